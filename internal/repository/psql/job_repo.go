package psql

import (
	"context"
	"errors"
	"fmt"

	"github.com/thewiin/aws-saas-etl/internal/domain/entity"
	"gorm.io/gorm"
)

type GormJobRepo struct {
	DB *gorm.DB
}

func NewGormJobRepo(db *gorm.DB) *GormJobRepo {
	return &GormJobRepo{DB: db}
}

func (r *GormJobRepo) Create(ctx context.Context, job *entity.Job) error {
	return r.DB.WithContext(ctx).Create(job).Error
}

func (r *GormJobRepo) UpdateStatus(ctx context.Context, jobID string, status entity.JobStatus) error {
	res := r.DB.WithContext(ctx).Model(&entity.Job{}).
		Where("job_id = ?", jobID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update job status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return entity.ErrJobNotFound
	}
	return nil
}

// UpdateResult writes status and result key in one statement so a Completed
// job can never be observed without its result reference.
func (r *GormJobRepo) UpdateResult(ctx context.Context, jobID string, status entity.JobStatus, resultKey string) error {
	res := r.DB.WithContext(ctx).Model(&entity.Job{}).
		Where("job_id = ?", jobID).
		Updates(map[string]interface{}{
			"status":     status,
			"result_key": resultKey,
		})
	if res.Error != nil {
		return fmt.Errorf("update job result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return entity.ErrJobNotFound
	}
	return nil
}

func (r *GormJobRepo) Get(ctx context.Context, jobID string) (*entity.Job, error) {
	job := &entity.Job{}
	if err := r.DB.WithContext(ctx).First(job, "job_id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (r *GormJobRepo) ListRecent(ctx context.Context, userID string) ([]entity.Job, error) {
	var jobs []entity.Job
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("upload_time DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

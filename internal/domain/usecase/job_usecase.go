package usecase

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/thewiin/aws-saas-etl/internal/domain/entity"
	"github.com/thewiin/aws-saas-etl/pkg/logger"
	"github.com/thewiin/aws-saas-etl/pkg/tabular"
)

const (
	resultURLExpiry = 24 * time.Hour
	uploadURLExpiry = 15 * time.Minute
)

// JobUseCase is the CRUD shell around the pipeline: it stores uploads,
// creates job records and hands them to the ETLPipeline, which runs to a
// terminal state within the same request.
type JobUseCase struct {
	JobRepo   JobRepo
	Store     BlobStore
	Cache     StatusCache
	Pipeline  *ETLPipeline
	RawBucket string
}

func NewJobUseCase(repo JobRepo, store BlobStore, cache StatusCache, pipeline *ETLPipeline, rawBucket string) *JobUseCase {
	return &JobUseCase{
		JobRepo:   repo,
		Store:     store,
		Cache:     cache,
		Pipeline:  pipeline,
		RawBucket: rawBucket,
	}
}

// CreateJob uploads the file, records the job and runs the pipeline. The
// returned job is always in a terminal state; a non-nil error alongside a
// non-nil job carries the failure message the caller should surface.
func (u *JobUseCase) CreateJob(ctx context.Context, fileBytes []byte, fileName, userID string) (*entity.Job, error) {
	if _, err := tabular.FormatForKey(fileName); err != nil {
		return nil, err
	}

	jobID := uuid.New().String()
	fileKey := "jobs/" + jobID + "/" + fileName

	if err := u.Store.Put(ctx, u.RawBucket, fileKey, fileBytes, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return u.startJob(ctx, jobID, fileKey, fileName, userID)
}

// CreateJobFromKey runs the pipeline against an object the caller already
// placed in the raw bucket (e.g. via a presigned upload URL).
func (u *JobUseCase) CreateJobFromKey(ctx context.Context, fileKey, userID string) (*entity.Job, error) {
	if _, err := tabular.FormatForKey(fileKey); err != nil {
		return nil, err
	}
	return u.startJob(ctx, uuid.New().String(), fileKey, path.Base(fileKey), userID)
}

func (u *JobUseCase) startJob(ctx context.Context, jobID, fileKey, fileName, userID string) (*entity.Job, error) {
	job := &entity.Job{
		JobID:      jobID,
		UserID:     userID,
		Filename:   fileName,
		FileKey:    fileKey,
		Status:     entity.StatusPending,
		UploadTime: time.Now().UTC(),
	}

	if err := u.JobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job record: %w", err)
	}
	if err := u.Cache.SetStatus(ctx, jobID, string(job.Status)); err != nil {
		logger.Warn(ctx, "failed to cache job status", "error", err)
	}

	if err := u.Pipeline.Run(ctx, job); err != nil {
		return job, err
	}
	return job, nil
}

// GetStatus answers from the cache when possible and falls back to the
// repository. Completed jobs also get a presigned URL for the result.
func (u *JobUseCase) GetStatus(ctx context.Context, jobID string) (entity.JobStatus, string, error) {
	var status entity.JobStatus
	var resultKey string

	if cached, err := u.Cache.GetStatus(ctx, jobID); err == nil && cached != "" {
		status = entity.JobStatus(cached)
	}

	if status == "" || status == entity.StatusCompleted {
		job, err := u.JobRepo.Get(ctx, jobID)
		if err != nil {
			return "", "", err
		}
		status = job.Status
		resultKey = job.ResultKey
	}

	if status == entity.StatusCompleted && resultKey != "" {
		url, err := u.Store.PresignGet(ctx, u.Pipeline.ProcessedBucket, resultKey, resultURLExpiry)
		if err != nil {
			return "", "", fmt.Errorf("presign result: %w", err)
		}
		return status, url, nil
	}
	return status, "", nil
}

// ListJobs returns the caller's jobs, newest upload first.
func (u *JobUseCase) ListJobs(ctx context.Context, userID string) ([]entity.Job, error) {
	return u.JobRepo.ListRecent(ctx, userID)
}

// PresignUpload hands out a short-lived PUT URL for a direct upload into the
// raw bucket. The returned key is what CreateJobFromKey expects.
func (u *JobUseCase) PresignUpload(ctx context.Context, fileName string) (key, url string, err error) {
	if _, err := tabular.FormatForKey(fileName); err != nil {
		return "", "", err
	}

	key = "jobs/" + uuid.New().String() + "/" + fileName
	url, err = u.Store.PresignPut(ctx, u.RawBucket, key, uploadURLExpiry)
	if err != nil {
		return "", "", fmt.Errorf("presign upload: %w", err)
	}
	return key, url, nil
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/thewiin/aws-saas-etl/internal/classifier"
	"github.com/thewiin/aws-saas-etl/internal/domain/entity"
	"github.com/thewiin/aws-saas-etl/pkg/logger"
	"github.com/thewiin/aws-saas-etl/pkg/tabular"
)

type JobRepo interface {
	Create(ctx context.Context, job *entity.Job) error
	UpdateStatus(ctx context.Context, jobID string, status entity.JobStatus) error
	UpdateResult(ctx context.Context, jobID string, status entity.JobStatus, resultKey string) error
	Get(ctx context.Context, jobID string) (*entity.Job, error)
	ListRecent(ctx context.Context, userID string) ([]entity.Job, error)
}

type BlobStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	PresignPut(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

type StatusCache interface {
	SetStatus(ctx context.Context, jobID, status string) error
	GetStatus(ctx context.Context, jobID string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, body json.RawMessage) error
}

// ETLPipeline runs one job synchronously: read the raw object, parse it,
// attach sentiment labels, write the processed object and drive the job
// record Pending -> Processing -> Completed/Failed. A job is never left in
// Processing when Run returns.
type ETLPipeline struct {
	JobRepo         JobRepo
	Store           BlobStore
	Cache           StatusCache
	Publisher       EventPublisher
	Classifier      classifier.Classifier
	Transformer     *Transformer
	RawBucket       string
	ProcessedBucket string
}

func NewETLPipeline(repo JobRepo, store BlobStore, cache StatusCache, pub EventPublisher, clf classifier.Classifier, tr *Transformer, rawBucket, processedBucket string) *ETLPipeline {
	return &ETLPipeline{
		JobRepo:         repo,
		Store:           store,
		Cache:           cache,
		Publisher:       pub,
		Classifier:      clf,
		Transformer:     tr,
		RawBucket:       rawBucket,
		ProcessedBucket: processedBucket,
	}
}

// DerivedKey is the deterministic output key for an input key: the basename
// gains a "processed_" prefix, the directory is kept.
func DerivedKey(key string) string {
	dir, base := path.Split(key)
	return dir + "processed_" + base
}

func (p *ETLPipeline) Run(ctx context.Context, job *entity.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
			p.markFailed(ctx, job, err)
		}
	}()
	return p.run(ctx, job)
}

func (p *ETLPipeline) run(ctx context.Context, job *entity.Job) error {
	ctx = context.WithValue(ctx, logger.JobIDKey, job.JobID)
	logger.Info(ctx, "processing job", "file_key", job.FileKey)

	if err := p.setStatus(ctx, job, entity.StatusProcessing); err != nil {
		return p.markFailed(ctx, job, fmt.Errorf("persist job status: %w", err))
	}

	raw, err := p.Store.Get(ctx, p.RawBucket, job.FileKey)
	if err != nil {
		return p.markFailed(ctx, job, fmt.Errorf("read source object %s: %w", job.FileKey, err))
	}

	format, err := tabular.FormatForKey(job.FileKey)
	if err != nil {
		return p.markFailed(ctx, job, err)
	}

	ds, err := tabular.Parse(raw, format)
	if err != nil {
		return p.markFailed(ctx, job, fmt.Errorf("parse dataset: %w", err))
	}

	out, err := p.Transformer.Transform(ctx, ds, p.Classifier)
	if err != nil {
		return p.markFailed(ctx, job, err)
	}

	data, err := out.Serialize(format)
	if err != nil {
		return p.markFailed(ctx, job, fmt.Errorf("serialize dataset: %w", err))
	}

	resultKey := DerivedKey(job.FileKey)
	if err := p.Store.Put(ctx, p.ProcessedBucket, resultKey, data, contentTypeFor(format)); err != nil {
		return p.markFailed(ctx, job, fmt.Errorf("write processed object %s: %w", resultKey, err))
	}

	if err := p.JobRepo.UpdateResult(ctx, job.JobID, entity.StatusCompleted, resultKey); err != nil {
		return p.markFailed(ctx, job, fmt.Errorf("persist job result: %w", err))
	}
	job.Status = entity.StatusCompleted
	job.ResultKey = resultKey

	if err := p.Cache.SetStatus(ctx, job.JobID, string(job.Status)); err != nil {
		logger.Warn(ctx, "failed to cache job status", "error", err)
	}
	p.publishEvent(ctx, job, "")

	logger.Info(ctx, "job completed", "result_key", resultKey, "rows", len(out.Rows))
	return nil
}

func (p *ETLPipeline) setStatus(ctx context.Context, job *entity.Job, status entity.JobStatus) error {
	if err := p.JobRepo.UpdateStatus(ctx, job.JobID, status); err != nil {
		return err
	}
	job.Status = status
	if err := p.Cache.SetStatus(ctx, job.JobID, string(status)); err != nil {
		logger.Warn(ctx, "failed to cache job status", "error", err)
	}
	return nil
}

// markFailed records the terminal Failed state and passes the original error
// back to the caller. A failure while persisting Failed is logged, not
// surfaced, so the first error stays visible.
func (p *ETLPipeline) markFailed(ctx context.Context, job *entity.Job, cause error) error {
	logger.Error(ctx, "job failed", "job_id", job.JobID, "error", cause)

	if err := p.JobRepo.UpdateStatus(ctx, job.JobID, entity.StatusFailed); err != nil {
		logger.Error(ctx, "failed to persist FAILED status", "job_id", job.JobID, "error", err)
	}
	job.Status = entity.StatusFailed
	if err := p.Cache.SetStatus(ctx, job.JobID, string(entity.StatusFailed)); err != nil {
		logger.Warn(ctx, "failed to cache job status", "error", err)
	}
	p.publishEvent(ctx, job, cause.Error())

	return cause
}

// publishEvent notifies external consumers of a terminal transition. Delivery
// is best effort and never changes the job outcome.
func (p *ETLPipeline) publishEvent(ctx context.Context, job *entity.Job, errMsg string) {
	if p.Publisher == nil {
		return
	}

	event := entity.JobEvent{
		JobID:     job.JobID,
		UserID:    job.UserID,
		Status:    job.Status,
		ResultKey: job.ResultKey,
		Error:     errMsg,
		At:        time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		logger.Warn(ctx, "failed to marshal job event", "error", err)
		return
	}
	if err := p.Publisher.Publish(ctx, body); err != nil {
		logger.Warn(ctx, "failed to publish job event", "error", err)
	}
}

func contentTypeFor(format tabular.Format) string {
	switch format {
	case tabular.FormatCSV:
		return "text/csv"
	case tabular.FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

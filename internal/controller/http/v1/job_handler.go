package v1

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thewiin/aws-saas-etl/internal/domain/entity"
)

type JobUseCase interface {
	CreateJob(ctx context.Context, fileBytes []byte, fileName, userID string) (*entity.Job, error)
	CreateJobFromKey(ctx context.Context, fileKey, userID string) (*entity.Job, error)
	GetStatus(ctx context.Context, jobID string) (entity.JobStatus, string, error)
	ListJobs(ctx context.Context, userID string) ([]entity.Job, error)
	PresignUpload(ctx context.Context, fileName string) (key, url string, err error)
}

type JobHandler struct {
	UseCase JobUseCase
}

func NewJobHandler(u JobUseCase) *JobHandler {
	return &JobHandler{UseCase: u}
}

// CreateJob accepts either a multipart upload ("file" field) or a JSON body
// {"file_key": "..."} referencing an object already in the raw bucket. The
// pipeline runs synchronously; the response carries the terminal status.
func (h *JobHandler) CreateJob(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	var job *entity.Job
	var runErr error

	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		fileBytes, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		job, runErr = h.UseCase.CreateJob(c.Request.Context(), fileBytes, file.Filename, userID)
	} else {
		var req struct {
			FileKey string `json:"file_key" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file or file_key required"})
			return
		}
		job, runErr = h.UseCase.CreateJobFromKey(c.Request.Context(), req.FileKey, userID)
	}

	if runErr != nil {
		if job == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": runErr.Error()})
			return
		}
		// the job exists and is terminal Failed
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"job_id": job.JobID,
			"status": job.Status,
			"error":  runErr.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":     job.JobID,
		"status":     job.Status,
		"result_key": job.ResultKey,
	})
}

func (h *JobHandler) GetStatus(c *gin.Context) {
	jobID := c.Param("job_id")
	status, url, err := h.UseCase.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, entity.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if url != "" {
		c.JSON(http.StatusOK, gin.H{"job_id": jobID, "status": status, "result_url": url})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "status": status})
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	jobs, err := h.UseCase.ListJobs(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *JobHandler) PresignUpload(c *gin.Context) {
	var req struct {
		Filename string `json:"filename" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename required"})
		return
	}

	key, url, err := h.UseCase.PresignUpload(c.Request.Context(), req.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"file_key": key, "upload_url": url})
}

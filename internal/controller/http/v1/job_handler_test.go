package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/thewiin/aws-saas-etl/internal/domain/entity"
)

type fakeJobUseCase struct {
	job    *entity.Job
	runErr error
	jobs   []entity.Job
	status entity.JobStatus
	url    string
	err    error
}

func (f *fakeJobUseCase) CreateJob(_ context.Context, _ []byte, _, _ string) (*entity.Job, error) {
	return f.job, f.runErr
}

func (f *fakeJobUseCase) CreateJobFromKey(_ context.Context, _, _ string) (*entity.Job, error) {
	return f.job, f.runErr
}

func (f *fakeJobUseCase) GetStatus(_ context.Context, _ string) (entity.JobStatus, string, error) {
	return f.status, f.url, f.err
}

func (f *fakeJobUseCase) ListJobs(_ context.Context, _ string) ([]entity.Job, error) {
	return f.jobs, f.err
}

func (f *fakeJobUseCase) PresignUpload(_ context.Context, fileName string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return "jobs/x/" + fileName, "https://signed.example/" + fileName, nil
}

func jobTestRouter(uc JobUseCase, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	h := NewJobHandler(uc)
	r.POST("/jobs", h.CreateJob)
	r.GET("/jobs", h.ListJobs)
	r.GET("/jobs/:job_id/status", h.GetStatus)
	r.POST("/uploads/presign", h.PresignUpload)
	return r
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte(content))
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestCreateJobUpload(t *testing.T) {
	uc := &fakeJobUseCase{job: &entity.Job{
		JobID:     "j1",
		Status:    entity.StatusCompleted,
		ResultKey: "jobs/j1/processed_r.csv",
	}}
	r := jobTestRouter(uc, "user-1")

	body, contentType := multipartBody(t, "r.csv", "comments\ngreat\n")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "COMPLETED") {
		t.Errorf("Expected completed status in response: %s", w.Body.String())
	}
}

func TestCreateJobFromKeyBody(t *testing.T) {
	uc := &fakeJobUseCase{job: &entity.Job{JobID: "j1", Status: entity.StatusCompleted}}
	r := jobTestRouter(uc, "user-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`{"file_key":"jobs/x/r.csv"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateJobFailedPipeline(t *testing.T) {
	uc := &fakeJobUseCase{
		job:    &entity.Job{JobID: "j1", Status: entity.StatusFailed},
		runErr: errors.New("no recognized text column"),
	}
	r := jobTestRouter(uc, "user-1")

	body, contentType := multipartBody(t, "r.csv", "id\n1\n")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != string(entity.StatusFailed) {
		t.Errorf("Expected FAILED status, got %v", resp["status"])
	}
	if !strings.Contains(resp["error"].(string), "no recognized text column") {
		t.Errorf("Expected error message, got %v", resp["error"])
	}
}

func TestCreateJobRejectedUpload(t *testing.T) {
	uc := &fakeJobUseCase{runErr: errors.New("unsupported file type")}
	r := jobTestRouter(uc, "user-1")

	body, contentType := multipartBody(t, "r.exe", "x")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
}

func TestCreateJobUnauthenticated(t *testing.T) {
	r := jobTestRouter(&fakeJobUseCase{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}
}

func TestGetStatusCompleted(t *testing.T) {
	uc := &fakeJobUseCase{status: entity.StatusCompleted, url: "https://signed.example/result"}
	r := jobTestRouter(uc, "user-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/j1/status", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "result_url") {
		t.Errorf("Expected result_url in response: %s", w.Body.String())
	}
}

func TestGetStatusNotFound(t *testing.T) {
	uc := &fakeJobUseCase{err: entity.ErrJobNotFound}
	r := jobTestRouter(uc, "user-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/missing/status", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
}

func TestListJobs(t *testing.T) {
	uc := &fakeJobUseCase{jobs: []entity.Job{
		{JobID: "new", Status: entity.StatusCompleted},
		{JobID: "old", Status: entity.StatusFailed},
	}}
	r := jobTestRouter(uc, "user-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Jobs []entity.Job `json:"jobs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Jobs) != 2 || resp.Jobs[0].JobID != "new" {
		t.Errorf("Unexpected jobs payload: %+v", resp.Jobs)
	}
}

func TestPresignUploadHandler(t *testing.T) {
	r := jobTestRouter(&fakeJobUseCase{}, "user-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/uploads/presign", strings.NewReader(`{"filename":"r.csv"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "upload_url") {
		t.Errorf("Expected upload_url in response: %s", w.Body.String())
	}

	// missing filename
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/uploads/presign", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
}

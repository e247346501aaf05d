package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey = "test-key"
	docText = "1. Introduction\nThis is a long sentence about optimizing systems for research purposes.\n2. Methods\nWe analyze the data."
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.APIKey = testKey
	cfg.WorkerCount = 1
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.DiscardHandler)
	orch := pipeline.NewOrchestrator(cfg, pipeline.NewAnalyzer(cfg, log), log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg)
}

type upload struct {
	name, content string
}

func analyzeRequest(t *testing.T, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func authGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func submit(t *testing.T, srv *Server, fields map[string]string, files ...upload) string {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, analyzeRequest(t, fields, files...))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp struct {
		JobID   string `json:"job_id"`
		Status  string `json:"status"`
		PollURL string `json:"poll_url"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "queued", resp.Status)
	assert.Equal(t, "/api/jobs/"+resp.JobID+"/status", resp.PollURL)
	return resp.JobID
}

func waitStatus(t *testing.T, srv *Server, id string) pipeline.JobSnapshot {
	t.Helper()
	var snap pipeline.JobSnapshot
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, authGet("/api/jobs/"+id+"/status"))
		if rec.Code != http.StatusOK {
			return false
		}
		return json.Unmarshal(rec.Body.Bytes(), &snap) == nil && snap.Status.Done()
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid api key")

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/stats"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyze_EndToEnd(t *testing.T) {
	srv := newTestServer(t, nil)
	id := submit(t, srv, map[string]string{
		"persona_role": "Researcher",
		"task":         "optimize systems",
	}, upload{"paper.txt", docText})

	snap := waitStatus(t, srv, id)
	assert.Equal(t, pipeline.StatusCompleted, snap.Status)
	assert.Equal(t, []string{"paper.txt"}, snap.Documents)
	assert.Equal(t, "Researcher", snap.Persona)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/jobs/"+id+"/result"))
	require.Equal(t, http.StatusOK, rec.Code)

	var res report.Result
	decode(t, rec, &res)
	assert.Equal(t, []string{"paper.txt"}, res.Metadata.InputDocuments)
	assert.Equal(t, "optimize systems", res.Metadata.JobToBeDone)
	require.Len(t, res.ExtractedSections, 2)
	assert.Equal(t, 1, res.ExtractedSections[0].ImportanceRank)
	assert.Len(t, res.SubsectionAnalysis, 2)
}

func TestAnalyze_TopN(t *testing.T) {
	srv := newTestServer(t, nil)
	id := submit(t, srv, map[string]string{"top_n": "1"}, upload{"paper.txt", docText})
	waitStatus(t, srv, id)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/jobs/"+id+"/result"))
	var res report.Result
	decode(t, rec, &res)
	assert.Len(t, res.ExtractedSections, 1)
	assert.NotEmpty(t, res.Metadata.Persona, "detector fills a missing role")
}

func TestAnalyze_NoSections(t *testing.T) {
	srv := newTestServer(t, nil)
	id := submit(t, srv, nil, upload{"blank.txt", "   "})

	snap := waitStatus(t, srv, id)
	assert.Equal(t, pipeline.StatusFailed, snap.Status)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/jobs/"+id+"/result"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAnalyze_BadRequests(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.MaxFilesPerRequest = 2
		c.MaxUploadBytes = 1024
	})

	tests := []struct {
		name   string
		fields map[string]string
		files  []upload
		want   int
	}{
		{"no files", nil, nil, http.StatusBadRequest},
		{"unsupported type", nil, []upload{{"image.png", "x"}}, http.StatusBadRequest},
		{"too many files", nil, []upload{{"a.txt", "a"}, {"b.txt", "b"}, {"c.txt", "c"}}, http.StatusBadRequest},
		{"bad top_n", map[string]string{"top_n": "zero"}, []upload{{"a.txt", "a"}}, http.StatusBadRequest},
		{"negative top_n", map[string]string{"top_n": "-1"}, []upload{{"a.txt", "a"}}, http.StatusBadRequest},
		{"too large", nil, []upload{{"big.txt", strings.Repeat("x", 2<<20)}}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, analyzeRequest(t, tt.fields, tt.files...))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestJobEndpoints_NotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/api/jobs/nope/status", "/api/jobs/nope/result"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, authGet(path))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestJobResult_Conflict(t *testing.T) {
	cfg := config.Defaults()
	cfg.APIKey = testKey
	log := slog.New(slog.DiscardHandler)
	// Never started, so the job stays queued.
	orch := pipeline.NewOrchestrator(cfg, pipeline.NewAnalyzer(cfg, log), log)
	srv := NewServer(orch, log, cfg)

	id := submit(t, srv, nil, upload{"paper.txt", docText})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/jobs/"+id+"/result"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "queued")
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, nil)
	id := submit(t, srv, nil, upload{"paper.txt", docText})
	waitStatus(t, srv, id)

	var resp struct {
		Stats      pipeline.StatsSnapshot `json:"stats"`
		QueueDepth int                    `json:"queue_depth"`
		Jobs       int                    `json:"jobs"`
	}
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, authGet("/api/stats"))
		return json.Unmarshal(rec.Body.Bytes(), &resp) == nil && resp.Stats.Completed == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, resp.Jobs)
	assert.Equal(t, 0, resp.QueueDepth)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":            "report.pdf",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\notes.txt`: "notes.txt",
		"a..b.txt":              "a_b.txt",
		"":                      "unnamed",
		"..":                    "unnamed",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}

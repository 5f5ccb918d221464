package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/striver-24/ai-resume-analyzer-sub000/constants"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/async"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/kvstore"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/pipeline"
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("server.write_response_failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorBody{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSubmit accepts a multipart resume submission, creates the job,
// and enqueues the pipeline run. The response carries the job ID so the
// caller can poll progress immediately.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "resume file is required")
		return
	}
	defer file.Close()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		s.writeError(w, http.StatusUnsupportedMediaType, "unsupported file type: "+ext)
		return
	}

	source, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "could not read resume file")
		return
	}

	jobDescription := r.FormValue("jobDescription")
	if jd, jdHeader, jdErr := r.FormFile("jobDescriptionFile"); jdErr == nil {
		defer jd.Close()
		b, readErr := io.ReadAll(jd)
		if readErr != nil {
			s.writeError(w, http.StatusBadRequest, "could not read job description file")
			return
		}
		s.logger.Info("server.jd_file_attached", "filename", jdHeader.Filename, "bytes", len(b))
		jobDescription = string(b)
	}

	job := pipeline.NewJob(r.FormValue("companyName"), r.FormValue("jobTitle"), jobDescription)
	if err := s.orch.SaveQueued(r.Context(), job); err != nil {
		s.logger.Error("server.submit.persist_failed", "job_id", job.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not create job")
		return
	}

	req := pipeline.Request{
		Source:         source,
		SourceMime:     "application/pdf",
		CompanyName:    job.CompanyName,
		JobTitle:       job.JobTitle,
		JobDescription: job.JobDescription,
	}
	task := async.Task{
		JobID:       job.ID,
		SubmittedAt: time.Now().UTC(),
		Run: func(ctx context.Context) {
			if err := s.orch.Run(ctx, job, req); err != nil {
				var se *pipeline.StageError
				if errors.As(err, &se) {
					s.logger.Warn("server.job_failed", "job_id", job.ID, "stage", se.Stage, "reason", string(se.Reason))
				} else {
					s.logger.Error("server.job_failed", "job_id", job.ID, "error", err)
				}
			}
		},
	}
	if err := s.queue.Enqueue(r.Context(), task); err != nil {
		s.logger.Error("server.submit.enqueue_failed", "job_id", job.ID, "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "server busy, try again later")
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     job.ID,
		"status": string(constants.JobStatusQueued),
	})
}

func (s *Server) loadJob(w http.ResponseWriter, r *http.Request) (*pipeline.Job, bool) {
	id := chi.URLParam(r, "jobID")
	raw, err := s.kv.Get(r.Context(), constants.JobKey(id))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("server.load_job_failed", "job_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not load job")
		return nil, false
	}
	var job pipeline.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		s.logger.Error("server.job_decode_failed", "job_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "corrupt job record")
		return nil, false
	}
	return &job, true
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":            job.ID,
		"status":        job.Status,
		"failureReason": job.FailureReason,
		"statusMessage": job.StatusMessage,
		"steps":         job.Steps,
	})
}

type sideKind int

const (
	sideText sideKind = iota
	sideMarkdown
	sideRaw
)

// handleSideKey serves the side-channel values: extracted text, markdown
// rendering, and the malformed-analysis diagnostic raw text.
func (s *Server) handleSideKey(kind sideKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "jobID")
		var key string
		switch kind {
		case sideText:
			key = constants.JobTextKey(id)
		case sideMarkdown:
			key = constants.JobMarkdownKey(id)
		case sideRaw:
			key = constants.JobRawKey(id)
		}
		value, err := s.kv.Get(r.Context(), key)
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			s.writeError(w, http.StatusNotFound, "not available for this job")
			return
		}
		if err != nil {
			s.logger.Error("server.side_key_failed", "key", key, "error", err)
			s.writeError(w, http.StatusInternalServerError, "could not load value")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(value)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	idsParam := strings.TrimSpace(r.URL.Query().Get("ids"))
	if idsParam == "" {
		s.writeError(w, http.StatusBadRequest, "ids query parameter is required")
		return
	}
	ids := strings.Split(idsParam, ",")

	book, err := s.export.ExportJobsXLSX(r.Context(), ids)
	if err != nil {
		s.logger.Error("server.export_failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="analyses.xlsx"`)
	_, _ = w.Write(book)
}

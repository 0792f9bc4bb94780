package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docstruct/internal/analysis"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/pipeline"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	opts, err := s.formOptions(r.MultipartForm)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(filename, r.FormValue("title"), data, opts, formBool(r.MultipartForm, "force", false))
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.log.Info("job queued", "job_id", job.ID, "filename", filename, "bytes", len(data))
	writeJSON(w, http.StatusAccepted, queuedResponse(job))
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	opts, err := s.formOptions(r.MultipartForm)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	force := formBool(r.MultipartForm, "force", false)

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}

		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "file too large or read error",
			})
			continue
		}

		job := pipeline.NewJob(filename, "", data, opts, force)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		entry := queuedResponse(job)
		entry["filename"] = filename
		results = append(results, entry)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleIngestResult returns the analysis of a completed job. A duplicate
// resolves to the result of the job it duplicates while that job is still held.
func (s *Server) handleIngestResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
		writeJSON(w, http.StatusOK, map[string]any{
			"job_id": snap.ID,
			"doc_id": snap.DocID,
			"result": job.Result(),
		})
	case pipeline.StatusDupSkipped:
		orig := s.orchestrator.GetJob(snap.DuplicateOf)
		if orig == nil || orig.Result() == nil {
			jsonError(w, "duplicate of an expired job: "+snap.DuplicateOf, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"job_id":       snap.ID,
			"doc_id":       snap.DocID,
			"duplicate_of": snap.DuplicateOf,
			"result":       orig.Result(),
		})
	case pipeline.StatusFailed:
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "job failed",
			"status": snap.Status,
			"errors": snap.Progress.Errors,
		})
	default:
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "job not complete",
			"status": snap.Status,
		})
	}
}

func queuedResponse(job *pipeline.Job) map[string]any {
	return map[string]any{
		"job_id":   job.ID,
		"status":   job.Snapshot().Status,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	}
}

// formOptions reads chunking and vocabulary overrides from an upload form.
// Unparseable numbers and flags keep the server default.
func (s *Server) formOptions(form *multipart.Form) (analysis.Options, error) {
	cc := s.cfg.ChunkConfig()
	cc.MaxChunkSize = formInt(form, "chunk_size", cc.MaxChunkSize, 1)
	cc.OverlapSize = formInt(form, "overlap", cc.OverlapSize, 0)
	cc.MinChunkSize = formInt(form, "min_chunk", cc.MinChunkSize, 0)
	cc.RespectSections = formBool(form, "respect_sections", cc.RespectSections)
	cc.AdaptiveSizing = formBool(form, "adaptive_sizing", cc.AdaptiveSizing)
	cc.MergeUndersized = formBool(form, "merge_undersized", cc.MergeUndersized)

	var vocabs []string
	if v := formValue(form, "vocabularies"); v != "" {
		vocabs = []string{}
		if !strings.EqualFold(v, "none") {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					vocabs = append(vocabs, part)
				}
			}
		}
	}
	opts := s.options(vocabs, cc)
	if _, err := analysis.SectionPatterns(opts.Vocabularies, nil); err != nil {
		return analysis.Options{}, err
	}
	return opts, nil
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

func formInt(form *multipart.Form, key string, fallback, min int) int {
	if v := formValue(form, key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min {
			return n
		}
	}
	return fallback
}

func formBool(form *multipart.Form, key string, fallback bool) bool {
	if v := formValue(form, key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

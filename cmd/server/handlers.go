package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/img2wav/internal/imageio"
	"github.com/himanishpuri/img2wav/pkg/img2wav"
	"github.com/himanishpuri/img2wav/pkg/logger"
	"github.com/himanishpuri/img2wav/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies.
type Server struct {
	service img2wav.Service
	store   img2wav.Store
	config  *ServerConfig
	log     img2wav.Logger
}

// NewServer creates a new server instance.
func NewServer(service img2wav.Service, store img2wav.Store, config *ServerConfig) *Server {
	return &Server{
		service: service,
		store:   store,
		config:  config,
		log:     logger.GetLogger(),
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "img2wav API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":    "GET /health",
			"render":    "POST /api/render (multipart: image + params)",
			"listJobs":  "GET /api/jobs",
			"getJob":    "GET /api/jobs/{id}",
			"deleteJob": "DELETE /api/jobs/{id}",
			"files":     "GET /files/{name}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRender handles POST /api/render. The request is a multipart
// form with an "image" file plus optional parameter fields; the
// response carries the render stats and a download URL. Closing the
// connection cancels the reconstruction.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxImageBytes)
	if err := r.ParseMultipartForm(s.config.MaxImageBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("parsing form: %v", err))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing image file field")
		return
	}
	defer file.Close()

	params, err := parseRenderParams(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	src, _, err := decodeImage(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("decoding %s: %v", header.Filename, err))
		return
	}

	if err := utils.MakeDir(s.config.OutputDir); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	name := utils.NewID() + ".wav"
	outPath := filepath.Join(s.config.OutputDir, name)

	result, err := s.service.Render(r.Context(), src.Pixels, src.Width, src.Height, params, outPath, nil)
	if err != nil {
		switch {
		case r.Context().Err() != nil:
			// Client went away; nothing to answer.
			s.log.Warnf("render cancelled by client: %s", header.Filename)
		case errors.Is(err, img2wav.ErrInvalidParameter), errors.Is(err, img2wav.ErrEmptyInput):
			s.respondError(w, http.StatusBadRequest, err.Error())
		default:
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.respondJSON(w, http.StatusOK, RenderResponse{
		File:        name,
		DownloadURL: "/files/" + name,
		Frames:      result.Frames,
		Bins:        result.Bins,
		Samples:     result.Samples,
		Channels:    result.Channels,
		Bytes:       result.OutputBytes,
		ElapsedMs:   result.Elapsed.Milliseconds(),
	})
}

// handleJobs handles GET /api/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}
	if s.store == nil {
		s.respondError(w, http.StatusNotFound, "job history disabled")
		return
	}

	jobs, err := s.store.ListJobs()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]JobResponse, len(jobs))
	for i := range jobs {
		out[i] = toJobResponse(&jobs[i])
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"jobs": out, "count": len(out)})
}

// handleJob handles GET and DELETE /api/jobs/{id}
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotFound, "job history disabled")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" || strings.Contains(id, "/") {
		s.respondError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		job, err := s.store.GetJob(id)
		if err != nil {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, toJobResponse(job))
	case http.MethodDelete:
		if err := s.store.DeleteJob(id); err != nil {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "use GET or DELETE")
	}
}

// decodeImage converts an uploaded file into the grayscale buffer the
// pipeline consumes.
func decodeImage(file io.Reader) (*imageio.Image, string, error) {
	src, format, err := image.Decode(file)
	if err != nil {
		return nil, "", err
	}
	return imageio.FromImage(src), format, nil
}

// Package api exposes the patient, reading and file operations over HTTP.
// Routing is a pure function from request to response; Server mounts it on
// echo together with the realtime endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/apperr"
	"github.com/septivank/rnsync-vitals/internal/service"
	"github.com/septivank/rnsync-vitals/internal/validator"
)

// Request is the transport-independent view of an HTTP request
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   []byte
}

// Response is what Dispatch returns for every request
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Envelope is the JSON body of every response
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
	Path    string `json:"path,omitempty"`
}

var (
	patientPattern        = regexp.MustCompile(`^/patients/([^/]+)$`)
	patientHistoryPattern = regexp.MustCompile(`^/patients/([^/]+)/history$`)
	patientReadingPattern = regexp.MustCompile(`^/patients/([^/]+)/readings$`)
	patientFilesPattern   = regexp.MustCompile(`^/patients/([^/]+)/files$`)
	filePattern           = regexp.MustCompile(`^/files/([^/]+)$`)
)

// Router dispatches requests to the patient and file services
type Router struct {
	patients *service.PatientService
	files    *service.FileService
	prefix   string
	logger   *zap.Logger
}

// NewRouter creates a new router. Paths beginning with prefix are accepted
// with or without it.
func NewRouter(patients *service.PatientService, files *service.FileService, prefix string, logger *zap.Logger) *Router {
	return &Router{
		patients: patients,
		files:    files,
		prefix:   strings.TrimRight(prefix, "/"),
		logger:   logger,
	}
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, POST, DELETE, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization",
	}
}

// NormalizePath strips the configured prefix and ensures a leading slash
func (r *Router) NormalizePath(path string) string {
	if r.prefix != "" && (path == r.prefix || strings.HasPrefix(path, r.prefix+"/")) {
		path = strings.TrimPrefix(path, r.prefix)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// Dispatch routes req to a service operation and wraps the outcome
func (r *Router) Dispatch(ctx context.Context, req Request) Response {
	if req.Method == http.MethodOptions {
		return Response{StatusCode: http.StatusOK, Headers: corsHeaders()}
	}

	path := r.NormalizePath(req.Path)

	result, matched, err := r.route(ctx, req, path)
	switch {
	case !matched:
		return r.respond(http.StatusNotFound, Envelope{Success: false, Message: "Route not found", Path: path})
	case err != nil:
		return r.failure(req, path, err)
	}

	status := result.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	return r.respond(status, Envelope{
		Success: true,
		Message: result.Message,
		Data:    result.Data,
		Count:   result.Count,
	})
}

func (r *Router) route(ctx context.Context, req Request, path string) (service.Result, bool, error) {
	method := req.Method

	switch {
	case path == "/" || path == "/health":
		if method != http.MethodGet {
			return service.Result{}, false, nil
		}
		return service.Result{StatusCode: http.StatusOK, Message: "API is healthy"}, true, nil

	case path == "/patients":
		switch method {
		case http.MethodGet:
			res, err := r.patients.GetAllPatients(ctx)
			return res, true, err
		case http.MethodPost:
			var in validator.PatientInput
			if err := decodeBody(req.Body, &in); err != nil {
				return service.Result{}, true, err
			}
			res, err := r.patients.CreatePatient(ctx, in)
			return res, true, err
		}

	case patientHistoryPattern.MatchString(path):
		if method == http.MethodGet {
			id := patientHistoryPattern.FindStringSubmatch(path)[1]
			res, err := r.patients.GetPatientHistory(ctx, id, req.Query["metric"])
			return res, true, err
		}

	case patientReadingPattern.MatchString(path):
		if method == http.MethodPost {
			id := patientReadingPattern.FindStringSubmatch(path)[1]
			var in validator.ReadingInput
			if err := decodeBody(req.Body, &in); err != nil {
				return service.Result{}, true, err
			}
			res, err := r.patients.AddReading(ctx, id, in)
			return res, true, err
		}

	case patientFilesPattern.MatchString(path):
		id := patientFilesPattern.FindStringSubmatch(path)[1]
		switch method {
		case http.MethodGet:
			res, err := r.files.GetPatientFiles(ctx, id)
			return res, true, err
		case http.MethodPost:
			var in validator.FileInput
			if err := decodeBody(req.Body, &in); err != nil {
				return service.Result{}, true, err
			}
			res, err := r.files.AddFile(ctx, id, in)
			return res, true, err
		}

	case patientPattern.MatchString(path):
		if method == http.MethodGet {
			id := patientPattern.FindStringSubmatch(path)[1]
			res, err := r.patients.GetPatientByID(ctx, id)
			return res, true, err
		}

	case filePattern.MatchString(path):
		id := filePattern.FindStringSubmatch(path)[1]
		switch method {
		case http.MethodGet:
			res, err := r.files.GetFileByID(ctx, id)
			return res, true, err
		case http.MethodDelete:
			res, err := r.files.DeleteFile(ctx, id)
			return res, true, err
		}
	}

	return service.Result{}, false, nil
}

// decodeBody treats an empty body as an empty object
func decodeBody(body []byte, dest any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return apperr.Validation("Invalid request body: %v", err)
	}
	return nil
}

func (r *Router) failure(req Request, path string, err error) Response {
	status := apperr.StatusCode(err)
	if status == http.StatusInternalServerError {
		r.logger.Error("request failed",
			zap.Error(err),
			zap.String("method", req.Method),
			zap.String("path", path),
		)
		return r.respond(status, Envelope{Success: false, Message: "Internal Server Error", Error: err.Error()})
	}

	r.logger.Debug("request rejected",
		zap.Int("status", status),
		zap.String("reason", err.Error()),
		zap.String("path", path),
	)
	return r.respond(status, Envelope{Success: false, Message: err.Error()})
}

func (r *Router) respond(status int, envelope Envelope) Response {
	body, err := json.Marshal(envelope)
	if err != nil {
		r.logger.Error("failed to marshal response", zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"success":false,"message":"Internal Server Error"}`)
	}
	return Response{StatusCode: status, Headers: corsHeaders(), Body: body}
}

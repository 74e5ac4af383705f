package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/repository"
	"github.com/septivank/rnsync-vitals/internal/service"
)

func newTestServer() *Server {
	logger := zap.NewNop()
	gw := repository.NewMemoryGateway()
	router := NewRouter(service.NewPatientService(gw, nil, logger), service.NewFileService(gw, logger), "/rnsync", logger)
	return NewServer(router, nil, logger)
}

func TestServer_ServesDispatch(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/rnsync/patients", strings.NewReader(`{"name":"Jane","bed":"ICU-2"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Body.String(), "Patient created successfully")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestServer_PassesQuery(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/patients/unknown/history?metric=spo2", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Patient not found")
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if rid := c.Get("request_id").(string); rid != "my-custom-id" {
			t.Errorf("expected my-custom-id, got %s", rid)
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := RequestID()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		panic("nil map write")
	}

	if err := Recovery(zap.NewNop())(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal Server Error") {
		t.Errorf("expected envelope body, got %s", rec.Body.String())
	}
}

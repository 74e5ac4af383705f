package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/apperr"
)

// RESTGateway talks to a PostgREST-style table store over HTTP
type RESTGateway struct {
	baseURL                      string
	key                          string
	skipInsertWithoutCredentials bool
	client                       *http.Client
	logger                       *zap.Logger
}

// RESTConfig holds REST gateway settings
type RESTConfig struct {
	URL                          string
	Key                          string
	SkipInsertWithoutCredentials bool
	HTTPClient                   *http.Client
	Logger                       *zap.Logger
}

// NewRESTGateway creates a new REST gateway
func NewRESTGateway(cfg RESTConfig) *RESTGateway {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTGateway{
		baseURL:                      strings.TrimRight(cfg.URL, "/"),
		key:                          cfg.Key,
		skipInsertWithoutCredentials: cfg.SkipInsertWithoutCredentials,
		client:                       client,
		logger:                       logger,
	}
}

func (g *RESTGateway) hasCredentials() bool {
	return g.baseURL != "" && g.key != ""
}

// Insert sends row as a create request to table
func (g *RESTGateway) Insert(ctx context.Context, table string, row Row) error {
	if !g.hasCredentials() {
		if g.skipInsertWithoutCredentials {
			g.logger.Warn("datastore credentials not set, skipping insert", zap.String("table", table))
			return nil
		}
		return &apperr.StorageError{Op: "insert", Err: apperr.ErrMissingCredentials}
	}

	body, err := json.Marshal(row)
	if err != nil {
		return &apperr.StorageError{Op: "insert", Err: fmt.Errorf("failed to marshal row: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/rest/v1/"+table, bytes.NewReader(body))
	if err != nil {
		return &apperr.StorageError{Op: "insert", Err: err}
	}
	g.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := g.client.Do(req)
	if err != nil {
		return &apperr.StorageError{Op: "insert", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return &apperr.StorageError{Op: "insert", Status: resp.StatusCode, Body: string(text)}
	}

	g.logger.Debug("row inserted", zap.String("table", table))
	return nil
}

// Select reads rows from table
func (g *RESTGateway) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	if !g.hasCredentials() {
		return nil, &apperr.StorageError{Op: "select", Err: apperr.ErrMissingCredentials}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.selectURL(table, q), nil)
	if err != nil {
		return nil, &apperr.StorageError{Op: "select", Err: err}
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &apperr.StorageError{Op: "select", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return nil, &apperr.StorageError{Op: "select", Status: resp.StatusCode, Body: string(text)}
	}

	rows := []Row{}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, &apperr.StorageError{Op: "select", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

func (g *RESTGateway) selectURL(table string, q Query) string {
	var b strings.Builder
	b.WriteString(g.baseURL)
	b.WriteString("/rest/v1/")
	b.WriteString(table)
	b.WriteString("?select=*")
	if q.Order != "" {
		b.WriteString("&order=")
		b.WriteString(url.QueryEscape(q.Order))
	}
	if q.Limit > 0 {
		b.WriteString("&limit=")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	for _, f := range q.Filters {
		b.WriteString("&")
		b.WriteString(url.QueryEscape(f.Column))
		b.WriteString("=eq.")
		b.WriteString(url.QueryEscape(f.Value))
	}
	return b.String()
}

func (g *RESTGateway) authorize(req *http.Request) {
	req.Header.Set("apikey", g.key)
	req.Header.Set("Authorization", "Bearer "+g.key)
}

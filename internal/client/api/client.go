// Package api is the HTTP transport of the tracker client. It attaches the
// bearer token of the current session to every request and turns transport
// and status failures into apperror values.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bugboard/bugboard/internal/apperror"
	"github.com/bugboard/bugboard/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the backend root used when none is configured.
	DefaultBaseURL = "http://localhost:8080/api"
	// DefaultConnectTimeout bounds connection establishment.
	DefaultConnectTimeout = 10 * time.Second

	// RequestIDHeader carries a per-request UUID for log correlation.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 64 << 10
)

// TokenSource supplies the bearer token for outgoing requests. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// Client sends JSON requests to the tracker backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *zap.Logger
}

// New returns a Client rooted at baseURL. httpClient may be nil to use a
// client with DefaultConnectTimeout; tokens may be nil for anonymous use.
func New(baseURL string, httpClient *http.Client, tokens TokenSource, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient, _ = NewHTTPClient(DefaultConnectTimeout, 0, "")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		log:     logger.OrNop(log),
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Get fetches path and returns the response body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return readBody(resp, http.MethodGet, path)
}

// Post sends payload encoded as JSON and returns the response body.
func (c *Client) Post(ctx context.Context, path string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, apperror.NewUnexpectedError("encode request "+path, err)
	}
	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(b), "application/json")
	if err != nil {
		return nil, err
	}
	return readBody(resp, http.MethodPost, path)
}

// GetStream fetches path and hands the open body to the caller, who must
// close it.
func (c *Client) GetStream(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// PostMultipart uploads the file at filePath as the "file" form field.
func (c *Client) PostMultipart(ctx context.Context, path, filePath string) ([]byte, error) {
	body, contentType, err := multipartBody(filePath)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, path, body, contentType)
	if err != nil {
		return nil, err
	}
	return readBody(resp, http.MethodPost, path)
}

// do sends the request and returns the response only for 2xx statuses.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	op := method + " " + path
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apperror.NewUnexpectedError("build request "+op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.log.With(zap.String("op", op), zap.String("request_id", requestID))
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return nil, apperror.NewCommunicationError(op, err)
	}

	log.Debug("response received",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(data))
		if resp.StatusCode != http.StatusNotFound {
			log.Warn("server rejected request", zap.Int("status", resp.StatusCode), zap.String("body", msg))
		}
		return nil, apperror.NewApplicationError(op, resp.StatusCode, msg)
	}
	return resp, nil
}

func readBody(resp *http.Response, method, path string) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.NewCommunicationError("read response "+method+" "+path, err)
	}
	return data, nil
}

func multipartBody(filePath string) (io.Reader, string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, "", apperror.NewUnexpectedError("open upload", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	partType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filePath)))
	if partType == "" {
		partType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filePath)))
	h.Set("Content-Type", partType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", apperror.NewUnexpectedError("build upload", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", apperror.NewUnexpectedError("read upload", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", apperror.NewUnexpectedError("build upload", err)
	}
	return &buf, w.FormDataContentType(), nil
}

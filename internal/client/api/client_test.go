package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bugboard/bugboard/internal/apperror"
)

// roundTripperFunc lets a test stand in for the network.
type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(fn roundTripperFunc) *http.Client {
	return &http.Client{Transport: fn, Timeout: time.Second}
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

func respond(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestClient_GetSetsHeaders(t *testing.T) {
	var got *http.Request
	c := New("http://example.com/api/", newTestClient(func(req *http.Request) (*http.Response, error) {
		got = req
		return respond(200, `[]`), nil
	}), staticToken("tok1"), nil)

	body, err := c.Get(context.Background(), "/issues")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "[]" {
		t.Errorf("body = %q", body)
	}
	if got.URL.String() != "http://example.com/api/issues" {
		t.Errorf("url = %s", got.URL)
	}
	if h := got.Header.Get("Authorization"); h != "Bearer tok1" {
		t.Errorf("Authorization = %q", h)
	}
	if got.Header.Get(RequestIDHeader) == "" {
		t.Errorf("missing request id")
	}
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	c := New("http://example.com/api", newTestClient(func(req *http.Request) (*http.Response, error) {
		if h := req.Header.Get("Authorization"); h != "" {
			t.Errorf("unexpected Authorization %q", h)
		}
		return respond(200, `{}`), nil
	}), staticToken(""), nil)

	if _, err := c.Post(context.Background(), "/auth/login", map[string]string{"email": "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_PostEncodesJSON(t *testing.T) {
	c := New("http://example.com/api", newTestClient(func(req *http.Request) (*http.Response, error) {
		if ct := req.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		b, _ := io.ReadAll(req.Body)
		if string(b) != `{"email":"a@b.c","password":"pw"}` {
			t.Errorf("body = %s", b)
		}
		return respond(201, `{"token":"x"}`), nil
	}), nil, nil)

	body, err := c.Post(context.Background(), "/auth/login", struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{"a@b.c", "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"token":"x"}` {
		t.Errorf("body = %s", body)
	}
}

func TestClient_StatusErrors(t *testing.T) {
	cases := []struct {
		name     string
		code     int
		notFound bool
	}{
		{"not found", http.StatusNotFound, true},
		{"server error", http.StatusInternalServerError, false},
		{"forbidden", http.StatusForbidden, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New("http://example.com/api", newTestClient(func(req *http.Request) (*http.Response, error) {
				return respond(tc.code, "nope\n"), nil
			}), nil, nil)

			_, err := c.Get(context.Background(), "/users/email/x")
			if !apperror.IsApplication(err) {
				t.Fatalf("expected application error, got %v", err)
			}
			if apperror.StatusCode(err) != tc.code {
				t.Errorf("status = %d; want %d", apperror.StatusCode(err), tc.code)
			}
			if apperror.IsNotFound(err) != tc.notFound {
				t.Errorf("IsNotFound = %v", apperror.IsNotFound(err))
			}
			if !strings.Contains(err.Error(), "nope") {
				t.Errorf("error should carry body: %v", err)
			}
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	c := New("http://example.com/api", newTestClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("network down")
	}), nil, nil)

	_, err := c.Get(context.Background(), "/issues")
	if !apperror.IsCommunication(err) {
		t.Fatalf("expected communication error, got %v", err)
	}
}

func TestClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/issues")
	if !apperror.IsCommunication(err) {
		t.Fatalf("expected communication error, got %v", err)
	}
}

func TestClient_GetStream(t *testing.T) {
	c := New("http://example.com/api", newTestClient(func(req *http.Request) (*http.Response, error) {
		return respond(200, "PNGDATA"), nil
	}), nil, nil)

	rc, err := c.GetStream(context.Background(), "/images/a.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "PNGDATA" {
		t.Errorf("stream = %q", b)
	}
}

func TestClient_PostMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	if err := os.WriteFile(path, []byte("image-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/images/upload/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer")
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if string(b) != "image-bytes" || hdr.Filename != "shot.png" {
			t.Errorf("upload = %q %q", b, hdr.Filename)
		}
		_, _ = w.Write([]byte("stored.png"))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api", nil, staticToken("tok"), nil)
	body, err := c.PostMultipart(context.Background(), "/images/upload/42", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "stored.png" {
		t.Errorf("body = %q", body)
	}
}

func TestClient_PostMultipartMissingFile(t *testing.T) {
	c := New("http://example.com/api", newTestClient(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	}), nil, nil)

	if _, err := c.PostMultipart(context.Background(), "/images/upload/1", "/does/not/exist.png"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

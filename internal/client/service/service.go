// Package service wraps the tracker endpoints in typed calls. Every method
// blocks on the network and must run off the UI loop.
package service

import (
	"context"
	"encoding/json"
	"io"

	"github.com/bugboard/bugboard/internal/apperror"
)

// Transport is the subset of api.Client the services need.
type Transport interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, payload any) ([]byte, error)
	GetStream(ctx context.Context, path string) (io.ReadCloser, error)
	PostMultipart(ctx context.Context, path, filePath string) ([]byte, error)
}

// Endpoint paths relative to the backend root.
const (
	pathLogin         = "/auth/login"
	pathIssues        = "/issues"
	pathComments      = "/comments"
	pathIssueComments = "/comments/issue/%d"
	pathUsers         = "/users"
	pathUserByEmail   = "/users/email/"
	pathImages        = "/images/"
	pathImageUpload   = "/images/upload/%d"
)

func decode[T any](op string, body []byte, v *T) error {
	if err := json.Unmarshal(body, v); err != nil {
		return apperror.NewUnexpectedError("decode "+op, err)
	}
	return nil
}

// decodeList treats an empty or null body as an empty list.
func decodeList[T any](op string, body []byte) ([]T, error) {
	if len(body) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := decode(op, body, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

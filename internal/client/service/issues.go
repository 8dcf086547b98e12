package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/bugboard/bugboard/internal/apperror"
	"github.com/bugboard/bugboard/internal/models"
)

// ErrEmptyResponse is returned when a create call answers 2xx with no body.
var ErrEmptyResponse = apperror.NewUnexpectedError("empty response from server", nil)

// IssueService reads and writes issues and their images.
type IssueService struct {
	t Transport
}

// NewIssueService returns an IssueService over t.
func NewIssueService(t Transport) *IssueService {
	return &IssueService{t: t}
}

// FetchAll returns every issue in server order.
func (s *IssueService) FetchAll(ctx context.Context) ([]models.Issue, error) {
	body, err := s.t.Get(ctx, pathIssues)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Issue]("issues", body)
}

// Create posts draft and returns the issue as stored by the server. The
// draft's id, image and comments are not sent.
func (s *IssueService) Create(ctx context.Context, draft models.Issue) (models.Issue, error) {
	draft.ID = nil
	draft.ImagePath = ""
	draft.Comments = nil

	body, err := s.t.Post(ctx, pathIssues, draft)
	if err != nil {
		return models.Issue{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return models.Issue{}, ErrEmptyResponse
	}
	var created models.Issue
	if err := decode("issue", body, &created); err != nil {
		return models.Issue{}, err
	}
	return created, nil
}

// UploadImage sends the local file as the image of issue id and returns the
// server-side reference to store in Issue.ImagePath.
func (s *IssueService) UploadImage(ctx context.Context, id int, filePath string) (string, error) {
	body, err := s.t.PostMultipart(ctx, fmt.Sprintf(pathImageUpload, id), filePath)
	if err != nil {
		return "", err
	}
	ref := imageRef(body)
	if ref == "" {
		return "", ErrEmptyResponse
	}
	return ref, nil
}

// DownloadImage opens the stored image named by ref. Any directory part of
// ref is ignored; only the base name is requested. The caller closes the
// returned reader.
func (s *IssueService) DownloadImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	name := ImageBaseName(ref)
	if name == "" {
		return nil, apperror.NewValidationError("Image reference cannot be empty")
	}
	return s.t.GetStream(ctx, pathImages+url.PathEscape(name))
}

// ImageBaseName strips any directory part from an image reference, using
// either slash style.
func ImageBaseName(ref string) string {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, `\`, "/"))
	if ref == "" {
		return ""
	}
	base := path.Base(ref)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// imageRef accepts a plain-text reference, a JSON string, or a JSON object
// with a "path", "img" or "filename" field.
func imageRef(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	switch body[0] {
	case '"':
		var s string
		if json.Unmarshal(body, &s) == nil {
			return strings.TrimSpace(s)
		}
	case '{':
		var obj map[string]string
		if json.Unmarshal(body, &obj) == nil {
			for _, k := range []string{"path", "img", "filename"} {
				if v := strings.TrimSpace(obj[k]); v != "" {
					return v
				}
			}
			return ""
		}
	}
	return string(body)
}

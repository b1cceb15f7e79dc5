package httputil

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var ErrMissingFile = errors.New("file is missing")

// Upload is a multipart part spooled to a temporary file.
type Upload struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64
}

func (u *Upload) Ext() string {
	if ext := strings.ToLower(filepath.Ext(u.Filename)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(u.ContentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func (u *Upload) Remove() {
	if u != nil && u.Path != "" {
		_ = os.Remove(u.Path)
	}
}

// ParseMultipart limits the request body and parses the form.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewError(http.StatusRequestEntityTooLarge, "file too large")
		}
		return BadRequest("invalid multipart form")
	}
	return nil
}

// SaveFormFile copies the named part to a temp file. The caller must call
// Remove on the returned upload. ErrMissingFile is returned when the part is
// absent or empty.
func SaveFormFile(r *http.Request, field string) (*Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, ErrMissingFile
		}
		return nil, fmt.Errorf("read form file %s: %w", field, err)
	}
	defer func() { _ = file.Close() }()

	tmp, err := os.CreateTemp("", "vidtube-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(tmp, file)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("spool form file %s: %w", field, err)
	}
	if size == 0 {
		_ = os.Remove(tmp.Name())
		return nil, ErrMissingFile
	}

	contentType := header.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = parsed
	}

	return &Upload{
		Path:        tmp.Name(),
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        size,
	}, nil
}

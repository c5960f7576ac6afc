package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrObjectNotFound is returned by Storage when no stored upload has the name
var ErrObjectNotFound = errors.New("upload not found")

// ObjectInfo describes a stored upload
type ObjectInfo struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	ModTime     time.Time `json:"mod_time"`
}

// Storage persists uploaded files under flat names.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Open returns the file contents. The reader also implements io.Seeker
	// for every backend in this package.
	Open(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]ObjectInfo, error)
}

// PublicPrefix is the URL prefix uploads are served under
const PublicPrefix = "/uploads/"

// PublicPath returns the URL path a stored upload is served at
func PublicPath(name string) string {
	return PublicPrefix + name
}

// NameFromPublicPath extracts the stored name from a public path.
// It reports false for anything that is not a single flat file name.
func NameFromPublicPath(p string) (string, bool) {
	name, ok := strings.CutPrefix(p, PublicPrefix)
	if !ok || !ValidName(name) {
		return "", false
	}
	return name, true
}

// ValidName reports whether name is safe to use as a stored upload name
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

// Package upload accepts image uploads on creation requests and stores
// them under collision-resistant names.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"property-listing/internal/logging"
)

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnexpectedField = errors.New("unexpected field")
)

// multipartOverhead is the body allowance on top of the file size limit
// for the text fields and multipart framing.
const multipartOverhead = 1 << 20

const contextKey = "upload.file"

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,16}$`)

// Options configures an Uploader
type Options struct {
	Field        string
	MaxFileBytes int64
	AllowedTypes []string
	// SniffContent also checks the file bytes, not just the declared type
	SniffContent bool
}

// StoredFile describes an accepted upload
type StoredFile struct {
	Name         string
	OriginalName string
	ContentType  string
	Size         int64
	Path         string
}

// Uploader validates and stores at most one file per request
type Uploader struct {
	storage Storage
	opts    Options
	allowed map[string]bool
	now     func() time.Time
}

// New returns an Uploader writing to storage
func New(storage Storage, opts Options) *Uploader {
	if opts.Field == "" {
		opts.Field = "image"
	}
	allowed := make(map[string]bool, len(opts.AllowedTypes))
	for _, t := range opts.AllowedTypes {
		allowed[strings.ToLower(t)] = true
	}
	return &Uploader{
		storage: storage,
		opts:    opts,
		allowed: allowed,
		now:     time.Now,
	}
}

// Storage returns the backend uploads are written to
func (u *Uploader) Storage() Storage {
	return u.storage
}

// Single is gin middleware that stores the file in the configured field,
// if any, and makes it available through FileFromContext. Requests that
// are not multipart pass through untouched. Failures are attached with
// c.Error and abort the chain.
func (u *Uploader) Single() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			c.Next()
			return
		}

		if u.opts.MaxFileBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, u.opts.MaxFileBytes+multipartOverhead)
		}

		stored, err := u.handle(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if stored != nil {
			c.Set(contextKey, stored)
		}
		c.Next()
	}
}

func (u *Uploader) handle(c *gin.Context) (*StoredFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return nil, fmt.Errorf("%w: request exceeds %d bytes", ErrFileTooLarge, u.opts.MaxFileBytes)
		}
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	for field, files := range form.File {
		if field != u.opts.Field || len(files) > 1 {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedField, field)
		}
	}

	files := form.File[u.opts.Field]
	if len(files) == 0 {
		return nil, nil
	}
	return u.Store(c.Request.Context(), files[0])
}

// Store validates fh and writes it to storage
func (u *Uploader) Store(ctx context.Context, fh *multipart.FileHeader) (*StoredFile, error) {
	contentType := fh.Header.Get("Content-Type")
	if !u.typeAllowed(contentType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFileType, contentType)
	}
	if u.opts.MaxFileBytes > 0 && fh.Size > u.opts.MaxFileBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, fh.Size, u.opts.MaxFileBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	if u.opts.SniffContent {
		detected, err := mimetype.DetectReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to detect file type: %w", err)
		}
		if !u.typeAllowed(detected.String()) {
			return nil, fmt.Errorf("%w: content is %q", ErrInvalidFileType, detected.String())
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	name := u.filename(fh.Filename)
	if err := u.storage.Save(ctx, name, f, fh.Size, contentType); err != nil {
		return nil, err
	}

	logging.Logger.WithFields(logrus.Fields{
		"file":     name,
		"original": fh.Filename,
		"size":     fh.Size,
		"type":     contentType,
	}).Debug("Stored upload")

	return &StoredFile{
		Name:         name,
		OriginalName: fh.Filename,
		ContentType:  contentType,
		Size:         fh.Size,
		Path:         PublicPath(name),
	}, nil
}

func (u *Uploader) typeAllowed(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return u.allowed[strings.ToLower(mediaType)]
}

// filename is "<unix-millis>-<uuid><ext>". The UUID keeps uploads in the
// same millisecond apart.
func (u *Uploader) filename(original string) string {
	ext := filepath.Ext(original)
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return strconv.FormatInt(u.now().UnixMilli(), 10) + "-" + uuid.NewString() + ext
}

// Remove deletes the upload behind a public path
func (u *Uploader) Remove(ctx context.Context, publicPath string) error {
	name, ok := NameFromPublicPath(publicPath)
	if !ok {
		return fmt.Errorf("not an upload path: %q", publicPath)
	}
	return u.storage.Delete(ctx, name)
}

// FileFromContext returns the file stored by Single, or nil
func FileFromContext(c *gin.Context) *StoredFile {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	f, _ := v.(*StoredFile)
	return f
}

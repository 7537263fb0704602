package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/tanveenambrose/EcoMoney/internal/domain"
	"github.com/tanveenambrose/EcoMoney/internal/pkg/id"
)

// MaxSize is the largest accepted avatar in bytes.
const MaxSize = 5 << 20

// ErrUploadFailed marks failures of the object store, as opposed to bad input.
var ErrUploadFailed = errors.New("image upload failed")

// ObjectStore is the subset of the S3 store used for avatars.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

type Service interface {
	// Upload stores a new avatar for accountID and returns its public URL.
	Upload(ctx context.Context, accountID string, input UploadInput) (string, error)
	// Remove deletes a previously stored avatar. Failures are logged, not returned.
	Remove(ctx context.Context, url string)
}

type service struct {
	store ObjectStore
}

func NewService(store ObjectStore) Service {
	return &service{store: store}
}

func (s *service) Upload(ctx context.Context, accountID string, input UploadInput) (string, error) {
	contentType, err := imageContentType(input.ContentType)
	if err != nil {
		return "", err
	}
	if input.Size > MaxSize {
		return "", fmt.Errorf("image must be at most %d MB: %w", MaxSize>>20, domain.ErrBadRequest)
	}
	key := fmt.Sprintf("avatars/%s/%s-%s", accountID, id.New(), sanitizeFilename(input.Filename))
	url, err := s.store.Upload(ctx, key, input.Reader, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return url, nil
}

func (s *service) Remove(ctx context.Context, url string) {
	if url == "" {
		return
	}
	key, ok := s.store.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to delete old avatar", "key", key, "err", err)
	}
}

func imageContentType(declared string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("only image files are allowed: %w", domain.ErrBadRequest)
	}
	return mediaType, nil
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "avatar"
}

package mediastore

import (
	"context"
	"errors"
	"io"
)

// ErrUnavailable indicates the media store is not configured or unreachable.
var ErrUnavailable = errors.New("media store unavailable")

// MaxUploadBytes is the largest accepted image payload.
const MaxUploadBytes = 5 << 20

// UploadOptions carries server-side transformation hints.
type UploadOptions struct {
	// Folder groups uploads in the backing store (e.g. "headshots").
	Folder string

	// FaceCrop requests face-aware square cropping, used for headshots.
	FaceCrop bool
}

// Upload is the stored result: a stable retrieval URL plus the identifier
// needed to delete the asset later.
type Upload struct {
	URL      string
	PublicID string
}

// Store accepts binary image uploads and supports deletion by identifier.
//
// Deletion is best-effort from the caller's perspective: record deletion must
// not fail because Destroy did.
type Store interface {
	Upload(ctx context.Context, r io.Reader, opts UploadOptions) (Upload, error)
	Destroy(ctx context.Context, publicID string) error
}

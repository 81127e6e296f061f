package mediastore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/tanc-norcal/membership-api/internal/ports/out/mediastore"
)

// Store is an in-memory implementation of mediastore.Store used for local
// runs and tests. Uploads are held in memory and served nowhere; the URL is a
// stable fake.
type Store struct {
	mu     sync.Mutex
	assets map[string][]byte

	// DestroyErr, when set, makes Destroy fail. Tests use it to exercise the
	// best-effort deletion paths.
	DestroyErr error

	// Destroyed records the publicIDs passed to Destroy, in order.
	Destroyed []string
}

func NewStore() *Store {
	return &Store{assets: make(map[string][]byte)}
}

func (s *Store) Upload(ctx context.Context, r io.Reader, opts mediastore.UploadOptions) (mediastore.Upload, error) {
	_ = ctx
	data, err := io.ReadAll(r)
	if err != nil {
		return mediastore.Upload{}, err
	}
	id := opts.Folder + "/" + uuid.NewString()
	s.mu.Lock()
	s.assets[id] = data
	s.mu.Unlock()
	return mediastore.Upload{
		URL:      fmt.Sprintf("memory://%s", id),
		PublicID: id,
	}, nil
}

func (s *Store) Destroy(ctx context.Context, publicID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Destroyed = append(s.Destroyed, publicID)
	if s.DestroyErr != nil {
		return s.DestroyErr
	}
	delete(s.assets, publicID)
	return nil
}

// Has reports whether an asset is still stored.
func (s *Store) Has(publicID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.assets[publicID]
	return ok
}

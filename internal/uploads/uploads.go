// ABOUTME: Upload store interface and filesystem implementation
// ABOUTME: Each upload is a directory holding meta.json plus the raw payload

package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a referenced upload does not exist
var ErrNotFound = errors.New("upload not found")

// Upload is a stored file attached to a chat turn.
type Upload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MIMEType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`

	// Data is the raw payload, populated on Get.
	Data []byte `json:"-"`
}

// Store provides access to uploaded files by id.
type Store interface {
	Get(ctx context.Context, fileID string) (*Upload, error)
	Put(ctx context.Context, name, mimeType string, data []byte) (*Upload, error)
}

// DirStore keeps uploads on disk, one subdirectory per upload holding
// meta.json and the payload file.
type DirStore struct {
	dir string
}

// NewDirStore creates the uploads directory if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

var _ Store = (*DirStore)(nil)

// Put stores a new upload and returns its metadata.
func (s *DirStore) Put(ctx context.Context, name, mimeType string, data []byte) (*Upload, error) {
	up := &Upload{
		ID:        uuid.New().String(),
		Name:      name,
		MIMEType:  mimeType,
		Size:      int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}

	dir := filepath.Join(s.dir, up.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	meta, err := json.MarshalIndent(up, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing upload metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), meta, 0o644); err != nil {
		return nil, fmt.Errorf("writing upload metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "payload"), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing upload payload: %w", err)
	}

	up.Data = data
	return up, nil
}

// Get loads an upload and its payload. Missing uploads return ErrNotFound.
func (s *DirStore) Get(ctx context.Context, fileID string) (*Upload, error) {
	dir := filepath.Join(s.dir, fileID)

	meta, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("reading upload metadata: %w", err)
	}

	var up Upload
	if err := json.Unmarshal(meta, &up); err != nil {
		return nil, fmt.Errorf("parsing upload metadata: %w", err)
	}

	up.Data, err = os.ReadFile(filepath.Join(dir, "payload"))
	if err != nil {
		return nil, fmt.Errorf("reading upload payload: %w", err)
	}

	return &up, nil
}

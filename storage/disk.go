//go:generate go run go.uber.org/mock/mockgen -source=disk.go -destination=../mocks/mock_blob_store.go -package=mocks
// Package storage provides the blob store the media adapter uploads into.
package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type BlobStore interface {
	// Put uploads one object and returns its URL. The URL only exists once
	// the object is durable: callers never see a handle to a partial write.
	Put(senderID, conversationID, filename string, content io.Reader) (string, error)
	// Open reads back a stored object by its URL path.
	Open(urlPath string) (io.ReadCloser, error)
}

// DiskBlobStore lays objects out as
// {root}/uploads/{senderID}/{conversationID}/{timestamp}_{filename}.
// Uploads are single-shot and non-resumable: a failed write leaves nothing
// behind, a successful one is visible atomically via rename.
type DiskBlobStore struct {
	root string
	log  *slog.Logger
}

func NewDiskBlobStore(root string, log *slog.Logger) *DiskBlobStore {
	return &DiskBlobStore{root: root, log: log}
}

func (s *DiskBlobStore) Put(senderID, conversationID, filename string, content io.Reader) (string, error) {
	rel := filepath.Join("uploads", sanitize(senderID), sanitize(conversationID),
		fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitize(filename)))
	full := filepath.Join(s.root, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", err
	}
	defer func() {
		// No-ops once the rename succeeded.
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err = io.Copy(tmp, content); err != nil {
		return "", err
	}
	if err = tmp.Sync(); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	if err = os.Rename(tmp.Name(), full); err != nil {
		return "", err
	}

	url := "/" + filepath.ToSlash(rel)
	s.log.Debug("Blob stored", "url", url)
	return url, nil
}

func (s *DiskBlobStore) Open(urlPath string) (io.ReadCloser, error) {
	rel := strings.TrimPrefix(urlPath, "/")
	// Reject traversal out of the root.
	clean := filepath.Clean(rel)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, os.ErrNotExist
	}
	return os.Open(filepath.Join(s.root, clean))
}

// sanitize keeps path segments flat: separators and dot-dots in user-supplied
// names must not create directories outside the layout.
func sanitize(segment string) string {
	segment = strings.ReplaceAll(segment, "/", "_")
	segment = strings.ReplaceAll(segment, "\\", "_")
	segment = strings.ReplaceAll(segment, "..", "_")
	if segment == "" {
		return "_"
	}
	return segment
}

package storage

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Put_Follows_Upload_Path_Convention(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	store := NewDiskBlobStore(root, slog.Default())

	url, err := store.Put("alice", "conv-1", "selfie.jpg", bytes.NewReader([]byte("jpeg-bytes")))
	req.NoError(err)
	req.True(strings.HasPrefix(url, "/uploads/alice/conv-1/"))
	req.True(strings.HasSuffix(url, "_selfie.jpg"))

	reader, err := store.Open(url)
	req.NoError(err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	req.NoError(err)
	req.Equal("jpeg-bytes", string(data))
}

func Test_Put_Failure_Leaves_No_Object(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	store := NewDiskBlobStore(root, slog.Default())

	_, err := store.Put("alice", "conv-1", "clip.ogg", failingReader{})
	req.Error(err)

	// Neither the object nor the temp file survives the failed upload.
	var files []string
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err == nil && info != nil && !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	req.Empty(files)
}

func Test_Open_Rejects_Traversal(t *testing.T) {
	req := require.New(t)
	store := NewDiskBlobStore(t.TempDir(), slog.Default())

	_, err := store.Open("/../etc/passwd")
	req.Error(err)
}

func Test_Sanitize_Flattens_User_Supplied_Segments(t *testing.T) {
	req := require.New(t)
	store := NewDiskBlobStore(t.TempDir(), slog.Default())

	url, err := store.Put("a/../b", "c", "../../x.png", bytes.NewReader([]byte("x")))
	req.NoError(err)
	req.NotContains(url, "..")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

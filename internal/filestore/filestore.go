// Package filestore keeps uploaded document content on local disk,
// addressed by the BLAKE3 hash of the bytes. Identical uploads share one
// blob.
package filestore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
)

type Store struct {
	root string
}

var _ gateway.BlobStore = (*Store)(nil)

func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("filestore root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, "tmp"), 0o750); err != nil {
		return nil, fmt.Errorf("create filestore root: %w", err)
	}
	return &Store{root: root}, nil
}

// Put writes content to a temporary file while hashing it, then moves it
// to its content address.
func (s *Store) Put(ctx context.Context, content io.Reader) (string, int64, error) {
	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "upload-*")
	if err != nil {
		return "", 0, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	hasher := blake3.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), contextReader{ctx: ctx, r: content})
	if err != nil {
		return "", 0, err
	}
	if err := tmp.Sync(); err != nil {
		return "", 0, err
	}
	if err := tmp.Close(); err != nil {
		return "", 0, err
	}

	key := hex.EncodeToString(hasher.Sum(nil))
	final := s.path(key)
	if _, err := os.Stat(final); err == nil {
		return key, size, nil
	}
	if err := os.MkdirAll(filepath.Dir(final), 0o750); err != nil {
		return "", 0, err
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", 0, err
	}
	return key, size, nil
}

func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, gateway.ErrNotFound
	}
	file, err := os.Open(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, gateway.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, "blobs", key[:2], key[2:4], key)
}

// validKey accepts only hex digests, so a key can never escape the root.
func validKey(key string) bool {
	if len(key) != 64 {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

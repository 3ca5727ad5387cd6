package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// FileStore keeps objects as plain files below a root directory.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) filePath(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *FileStore) Put(_ context.Context, folder, fileName string, content io.Reader) (*Object, error) {
	data, obj, err := prepare(folder, fileName, content)
	if err != nil {
		return nil, err
	}

	dst := s.filePath(obj.Key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", obj.Key, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("commit %s: %w", obj.Key, err)
	}
	return &obj, nil
}

func (s *FileStore) Open(_ context.Context, key string) (io.ReadCloser, *Object, error) {
	if err := validKey(key); err != nil {
		return nil, nil, ErrNotFound
	}
	contentType, ok := allowedExtensions[path.Ext(key)]
	if !ok {
		return nil, nil, ErrNotFound
	}

	f, err := os.Open(s.filePath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("open %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", key, err)
	}

	return f, &Object{
		Key:         key,
		FileName:    path.Base(key),
		ContentType: contentType,
		Size:        info.Size(),
		CreatedAt:   info.ModTime().UTC(),
	}, nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return ErrNotFound
	}
	if err := os.Remove(s.filePath(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Package blobstore stores uploaded profile images. It defines the Store
// interface, an in-memory implementation for tests and development, a local
// filesystem implementation, and an echo handler that serves stored objects.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound           = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("only .png, .jpeg and .jpg images are allowed")
	ErrMissingFileName    = errors.New("file name is required")
	ErrInvalidKey         = errors.New("invalid blob key")
)

// MaxImageSize is the largest accepted upload (5 MB).
const MaxImageSize = 5 * 1024 * 1024

// URLPrefix is where stored objects are served from.
const URLPrefix = "/uploads/"

var allowedExtensions = map[string]string{
	".png":  "image/png",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
}

// Object describes a stored blob.
type Object struct {
	Key         string    `json:"key"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"createdAt"`
}

// URL is the path the object is served under.
func (o *Object) URL() string {
	return URLPrefix + o.Key
}

// Store is implemented by every storage backend.
type Store interface {
	Put(ctx context.Context, folder, fileName string, content io.Reader) (*Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, *Object, error)
	Delete(ctx context.Context, key string) error
}

// KeyFromURL reverses Object.URL. ok is false for URLs this package did not produce.
func KeyFromURL(url string) (string, bool) {
	key, found := strings.CutPrefix(url, URLPrefix)
	if !found || validKey(key) != nil {
		return "", false
	}
	return key, true
}

// prepare reads and checks an upload, returning its bytes and a populated
// Object with a fresh key under folder.
func prepare(folder, fileName string, content io.Reader) ([]byte, Object, error) {
	if fileName == "" {
		return nil, Object{}, ErrMissingFileName
	}
	ext := strings.ToLower(path.Ext(fileName))
	wantType, ok := allowedExtensions[ext]
	if !ok {
		return nil, Object{}, ErrInvalidContentType
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxImageSize+1))
	if err != nil {
		return nil, Object{}, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxImageSize {
		return nil, Object{}, ErrFileTooLarge
	}
	if !mimetype.Detect(data).Is(wantType) {
		return nil, Object{}, ErrInvalidContentType
	}

	h := sha256.Sum256(data)
	obj := Object{
		Key:         path.Join(folder, uuid.NewString()+ext),
		FileName:    path.Base(fileName),
		ContentType: wantType,
		Size:        int64(len(data)),
		Hash:        fmt.Sprintf("%x", h),
		CreatedAt:   time.Now().UTC(),
	}
	if err := validKey(obj.Key); err != nil {
		return nil, Object{}, err
	}
	return data, obj, nil
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

type storedBlob struct {
	object  Object
	content []byte
}

// MemoryStore is a thread-safe, in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]*storedBlob)}
}

func (s *MemoryStore) Put(_ context.Context, folder, fileName string, content io.Reader) (*Object, error) {
	data, obj, err := prepare(folder, fileName, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.blobs[obj.Key] = &storedBlob{object: obj, content: data}
	s.mu.Unlock()

	out := obj
	return &out, nil
}

func (s *MemoryStore) Open(_ context.Context, key string) (io.ReadCloser, *Object, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}

	obj := blob.object
	return io.NopCloser(bytes.NewReader(blob.content)), &obj, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[key]; !ok {
		return ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}

// Handler serves stored objects under URLPrefix.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET(URLPrefix+"*", h.handleDownload)
}

func (h *Handler) handleDownload(c echo.Context) error {
	key := c.Param("*")
	if validKey(key) != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not Found")
	}

	rc, obj, err := h.store.Open(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Not Found")
		}
		return err
	}
	defer rc.Close()

	c.Response().Header().Set("Cache-Control", "private, max-age=3600")
	return c.Stream(http.StatusOK, obj.ContentType, rc)
}

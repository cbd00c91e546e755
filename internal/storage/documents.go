package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/stwalsh4118/deedchain/internal/logger"
	"github.com/stwalsh4118/deedchain/internal/metrics"
	"github.com/stwalsh4118/deedchain/internal/models"
)

const maxConcurrentUploads = 4

// DocumentStore uploads documents best-effort. Failures are logged and counted
// but never returned; a failed document simply has no URL.
type DocumentStore struct {
	backend Backend
	log     *logger.Logger
	metrics *metrics.RegistryMetrics
}

// NewDocumentStore wraps backend.
func NewDocumentStore(backend Backend, log *logger.Logger, m *metrics.RegistryMetrics) *DocumentStore {
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentStore{backend: backend, log: log.WithComponent("documents"), metrics: m}
}

// Store uploads one document under scope and returns its URL, or "" on failure.
// Storing the same document type under the same scope overwrites the previous object.
func (s *DocumentStore) Store(ctx context.Context, file *models.DocumentFile, scope string, docType models.DocumentType) string {
	if file == nil {
		return ""
	}

	key := ObjectKey(scope, docType, file)
	if err := s.put(ctx, key, file); err != nil {
		s.metrics.IncUploadFailure(string(docType))
		s.log.Warn("document upload failed", map[string]interface{}{
			"scope":    scope,
			"doc_type": string(docType),
			"key":      key,
			"error":    err.Error(),
		})
		return ""
	}

	s.log.Debug("document stored", map[string]interface{}{
		"key":   key,
		"bytes": len(file.Content),
	})
	return s.backend.URL(key)
}

func (s *DocumentStore) put(ctx context.Context, key string, file *models.DocumentFile) error {
	if s.backend == nil {
		return errors.New("no storage backend configured")
	}
	if len(file.Content) == 0 {
		return errors.New("empty document")
	}
	return s.backend.Put(ctx, key, contentType(file), file.Content)
}

// StoreAll uploads every file concurrently and waits for all of them.
// The result holds a URL for each document that was stored.
func (s *DocumentStore) StoreAll(ctx context.Context, scope string, files map[models.DocumentType]*models.DocumentFile) models.DocumentURLs {
	urls := make(models.DocumentURLs, len(files))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(maxConcurrentUploads)
	for docType, file := range files {
		if file == nil {
			continue
		}
		g.Go(func() error {
			if url := s.Store(ctx, file, scope, docType); url != "" {
				mu.Lock()
				urls[docType] = url
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // Store never fails the group

	return urls
}

// ObjectKey builds {scope}/{docType}.{ext}. The extension comes from the
// filename, falling back to the detected content type.
func ObjectKey(scope string, docType models.DocumentType, file *models.DocumentFile) string {
	return strings.Trim(scope, "/") + "/" + string(docType) + extension(file)
}

func extension(file *models.DocumentFile) string {
	if ext := cleanExt(filepath.Ext(file.Filename)); ext != "" {
		return ext
	}
	if len(file.Content) > 0 {
		if ext := mimetype.Detect(file.Content).Extension(); ext != "" {
			return ext
		}
	}
	return ".bin"
}

func cleanExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return "." + ext
}

func contentType(file *models.DocumentFile) string {
	if file.ContentType != "" && file.ContentType != "application/octet-stream" {
		return file.ContentType
	}
	return mimetype.Detect(file.Content).String()
}

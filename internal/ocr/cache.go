package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const textBucket = "ocr_text"

// BoltCache stores OCR text by key in a bbolt file.
type BoltCache struct {
	db *bbolt.DB
}

// OpenBoltCache opens (or creates) the cache file.
func OpenBoltCache(path string) (*BoltCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(textBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &BoltCache{db: db}, nil
}

// Get returns the cached text and whether it was present.
func (c *BoltCache) Get(key string) (string, bool, error) {
	var (
		text  string
		found bool
	)
	err := c.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(textBucket)).Get([]byte(key)); v != nil {
			text, found = string(v), true
		}
		return nil
	})
	return text, found, err
}

func (c *BoltCache) Put(key, text string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(textBucket)).Put([]byte(key), []byte(text))
	})
}

func (c *BoltCache) Close() error {
	return c.db.Close()
}

// CachingRecognizer consults the cache before delegating to the wrapped recognizer.
// Keys are "<namespace>:<sha256 of the source receipt>", so switching engines does not
// return another engine's text.
type CachingRecognizer struct {
	next      Recognizer
	cache     *BoltCache
	namespace string
	logger    *slog.Logger
}

func NewCachingRecognizer(next Recognizer, cache *BoltCache, namespace string, logger *slog.Logger) *CachingRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingRecognizer{next: next, cache: cache, namespace: namespace, logger: logger}
}

func (r *CachingRecognizer) Recognize(ctx context.Context, img Image) (string, error) {
	sum := img.SourceHash
	if sum == "" {
		src := img.Source
		if src == "" {
			src = img.Path
		}
		var err error
		if sum, err = HashFile(src); err != nil {
			return "", err
		}
	}
	key := r.namespace + ":" + sum

	if text, ok, err := r.cache.Get(key); err != nil {
		r.logger.Warn("ocr cache read failed", "path", img.Source, "error", err)
	} else if ok {
		r.logger.Debug("ocr cache hit", "path", img.Source, "sha256", sum)
		return text, nil
	}

	text, err := r.next.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	if err := r.cache.Put(key, text); err != nil {
		r.logger.Warn("ocr cache write failed", "path", img.Source, "error", err)
	}
	return text, nil
}

// HashFile returns the hex SHA-256 of a file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

package tokenstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketSession = []byte("session")
	keyCurrent    = []byte("current")
)

// BoltStore keeps the credential in an embedded bbolt database under a single key.
// The database file is opened per operation so several processes can share it.
type BoltStore struct {
	dbPath  string
	timeout time.Duration
}

// Compile-time check to ensure BoltStore implements TokenStore
var _ TokenStore = (*BoltStore)(nil)

// NewBoltStore creates a BoltStore for the given database path, creating parent
// directories with 0700 permissions if they don't exist.
func NewBoltStore(dbPath string) (*BoltStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, err
	}

	return &BoltStore{
		dbPath:  dbPath,
		timeout: time.Second,
	}, nil
}

func (b *BoltStore) open(readOnly bool) (*bbolt.DB, error) {
	db, err := bbolt.Open(b.dbPath, 0600, &bbolt.Options{Timeout: b.timeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}
	return db, nil
}

// Read returns the stored credential. Returns ErrNotFound if the database or key is missing.
func (b *BoltStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// bbolt refuses to create a file in read-only mode
	if _, err := os.Stat(b.dbPath); os.IsNotExist(err) {
		return "", ErrNotFound
	}

	db, err := b.open(true)
	if err != nil {
		return "", err
	}
	defer func() { _ = db.Close() }()

	var value string
	err = db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return ErrNotFound
		}
		data := bucket.Get(keyCurrent)
		if len(data) == 0 {
			return ErrNotFound
		}
		// Bytes are only valid inside the transaction
		value = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// Write stores the credential, replacing any previous value.
func (b *BoltStore) Write(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	db, err := b.open(false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketSession)
		if err != nil {
			return fmt.Errorf("failed to create session bucket: %w", err)
		}
		if err := bucket.Put(keyCurrent, []byte(value)); err != nil {
			return fmt.Errorf("failed to save credential: %w", err)
		}
		return nil
	})
}

// Delete removes the stored credential. A missing database or key is not an error.
func (b *BoltStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(b.dbPath); os.IsNotExist(err) {
		return nil
	}

	db, err := b.open(false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return nil
		}
		return bucket.Delete(keyCurrent)
	})
}

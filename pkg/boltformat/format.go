// Package boltformat stores properties in a bbolt database file, one key per
// property inside the "properties" bucket. Values use the props binary record
// encoding.
package boltformat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	props "github.com/goliatone/go-props"
	"github.com/goliatone/go-props/log"
)

const (
	fileMode   os.FileMode = 0o600
	bucketName             = "properties"
	extension              = "db"
)

var defaultOptions = bbolt.Options{Timeout: time.Second, NoGrowSync: true}

// Format implements props.Format on top of bbolt.
type Format struct {
	Logger log.Logger
}

var _ props.Format = (*Format)(nil)

// New returns a bolt format that logs to logger.
func New(logger log.Logger) *Format {
	return &Format{Logger: logger}
}

func (f *Format) Name() string      { return "bolt" }
func (f *Format) Extension() string { return extension }

func (f *Format) logger() log.Logger {
	if f.Logger == nil {
		return log.DiscardLogger
	}
	return f.Logger
}

// Compile replaces the properties bucket of the database at path with
// records. Records that fail to encode are skipped.
func (f *Format) Compile(ctx context.Context, records []*props.Record, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("boltformat: create directory for %s: %w", path, err)
	}
	opts := defaultOptions
	db, err := bbolt.Open(path, fileMode, &opts)
	if err != nil {
		return fmt.Errorf("boltformat: open %s: %w", path, err)
	}
	defer db.Close()

	bucket := []byte(bucketName)
	return db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("boltformat: reset %s: %w", path, err)
		}
		b, err := tx.CreateBucket(bucket)
		if err != nil {
			return fmt.Errorf("boltformat: create bucket in %s: %w", path, err)
		}
		for _, rec := range records {
			raw, err := props.MarshalRecord(rec)
			if err != nil {
				f.logger().Warnf("skipping property %s: %v", rec.Key(), err)
				continue
			}
			if err := b.Put([]byte(rec.Key().String()), raw); err != nil {
				return fmt.Errorf("boltformat: write %s: %w", rec.Key(), err)
			}
		}
		return nil
	})
}

// Load reads every record of the properties bucket. Corrupt values are
// skipped; a missing file or bucket fails the load.
func (f *Format) Load(ctx context.Context, path string) ([]*props.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("boltformat: read %s: %w", path, err)
	}
	opts := defaultOptions
	opts.ReadOnly = true
	db, err := bbolt.Open(path, fileMode, &opts)
	if err != nil {
		return nil, fmt.Errorf("boltformat: open %s: %w", path, err)
	}
	defer db.Close()

	var records []*props.Record
	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("boltformat: %s: %w: no %q bucket", path, props.ErrMalformed, bucketName)
		}
		f.logger().Infof("loading %d property-items from %s", b.Stats().KeyN, path)
		return b.ForEach(func(k, v []byte) error {
			rec, err := props.UnmarshalRecord(v)
			if err != nil {
				f.logger().Warnf("skipping %s in %s: %v", k, path, err)
				return nil
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

package props

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-props/log"
)

// Format encodes records to a path and decodes them back. Load only decodes:
// applying values to widgets is done by Properties once the whole file has
// parsed.
type Format interface {
	Name() string
	Extension() string
	Compile(ctx context.Context, records []*Record, path string) error
	Load(ctx context.Context, path string) ([]*Record, error)
}

// Checker is implemented by formats that cannot store every value the binary
// codec accepts. Properties calls Check before Compile; a record failing it is
// left out of the file and counted as ignored.
type Checker interface {
	Check(rec *Record) error
}

// Experimental is implemented by formats that are not meant for production
// use yet.
type Experimental interface {
	Experimental() bool
}

// DefaultFormats returns the built-in formats: binary (ser), xml, json,
// toml and yaml.
func DefaultFormats() []Format {
	return defaultFormats(nil)
}

func defaultFormats(logger log.Logger) []Format {
	return []Format{
		&BinaryFormat{Logger: logger},
		&XMLFormat{Logger: logger},
		&JSONFormat{Logger: logger},
		&TOMLFormat{Logger: logger},
		&YAMLFormat{Logger: logger},
	}
}

// WithExtension appends "."+ext to path unless it already ends with it.
func WithExtension(path, ext string) string {
	if ext == "" || strings.HasSuffix(strings.ToLower(path), "."+strings.ToLower(ext)) {
		return path
	}
	return path + "." + ext
}

func extensionOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// writeFile encodes through fn into memory and only then replaces path, by
// writing a temporary file next to it and renaming it. A failed encode leaves
// the previous file untouched.
func writeFile(ctx context.Context, path string, fn func(w io.Writer) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("props: create directory for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("props: create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("props: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("props: close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("props: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("props: replace %s: %w", path, err)
	}
	return nil
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("props: read %s: %w", path, err)
	}
	return data, nil
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func decodeBase64(text string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimSpace(text))
}

package props

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/goliatone/go-props/log"
)

// BinaryFormat writes a record count followed by that many length-delimited
// records encoded with MarshalRecord.
type BinaryFormat struct {
	Logger log.Logger
}

func (f *BinaryFormat) Name() string      { return "binary" }
func (f *BinaryFormat) Extension() string { return "ser" }

func (f *BinaryFormat) logger() log.Logger { return orDiscard(f.Logger) }

// Compile writes records to path. Records that fail to encode are skipped.
func (f *BinaryFormat) Compile(ctx context.Context, records []*Record, path string) error {
	encoded := make([][]byte, 0, len(records))
	for _, rec := range records {
		raw, err := MarshalRecord(rec)
		if err != nil {
			f.logger().Warnf("skipping property %s: %v", rec.Key(), err)
			continue
		}
		encoded = append(encoded, raw)
	}
	return writeFile(ctx, path, func(w io.Writer) error {
		buf := protowire.AppendVarint(nil, uint64(len(encoded)))
		for _, raw := range encoded {
			buf = protowire.AppendBytes(buf, raw)
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("props: write %s: %w", path, err)
		}
		return nil
	})
}

// Load decodes path. A record whose payload is corrupt is skipped; a
// truncated stream fails the whole load.
func (f *BinaryFormat) Load(ctx context.Context, path string) ([]*Record, error) {
	data, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}
	count, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return nil, fmt.Errorf("props: %s: %w", path, wireError(protowire.ParseError(n)))
	}
	data = data[n:]
	f.logger().Infof("loading %d property-items from %s", count, path)

	records := make([]*Record, 0, min(count, uint64(len(data))))
	for i := uint64(0); i < count; i++ {
		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("props: %s: record %d: %w", path, i, wireError(protowire.ParseError(n)))
		}
		data = data[n:]
		rec, err := UnmarshalRecord(raw)
		if err != nil {
			f.logger().Warnf("skipping a property in %s: %v", path, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

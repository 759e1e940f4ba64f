package props

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-props/log"
)

// document is the shape shared by the JSON, TOML and YAML formats.
type document struct {
	Name       string             `json:"name" toml:"name" yaml:"name"`
	Count      int                `json:"count" toml:"count" yaml:"count"`
	Properties []documentProperty `json:"properties" toml:"properties" yaml:"properties"`
}

type documentProperty struct {
	Address string `json:"address" toml:"address" yaml:"address"`
	Class   string `json:"class,omitempty" toml:"class,omitempty" yaml:"class,omitempty"`
	Setter  string `json:"setter" toml:"setter" yaml:"setter"`
	Getter  string `json:"getter" toml:"getter" yaml:"getter"`
	ID      int    `json:"id" toml:"id" yaml:"id"`
	Type    string `json:"type" toml:"type" yaml:"type"`
	Value   any    `json:"value" toml:"value" yaml:"value"`
}

// documentCodec marshals and unmarshals a document in one concrete syntax.
type documentCodec struct {
	name       string
	extension  string
	marshal    func(w io.Writer, doc *document) error
	unmarshal  func(data []byte, doc *document) error
	finiteOnly bool // the syntax has no NaN or infinity
}

func (c documentCodec) compile(ctx context.Context, logger log.Logger, records []*Record, path string) error {
	doc := &document{Name: path, Properties: make([]documentProperty, 0, len(records))}
	for _, rec := range records {
		prop, err := c.property(rec)
		if err != nil {
			logger.Warnf("skipping property %s: %v", rec.Key(), err)
			continue
		}
		doc.Properties = append(doc.Properties, prop)
	}
	doc.Count = len(doc.Properties)
	return writeFile(ctx, path, func(w io.Writer) error {
		if err := c.marshal(w, doc); err != nil {
			return fmt.Errorf("props: encode %s as %s: %w", path, c.name, err)
		}
		return nil
	})
}

func (c documentCodec) load(ctx context.Context, logger log.Logger, path string) ([]*Record, error) {
	data, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := c.unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("props: %s: %w: %v", path, ErrMalformed, err)
	}
	if doc.Count != len(doc.Properties) {
		logger.Warnf("%s declares %d properties but holds %d", path, doc.Count, len(doc.Properties))
	}
	logger.Infof("loading %d property-items from %s", len(doc.Properties), path)
	records := make([]*Record, 0, len(doc.Properties))
	for _, prop := range doc.Properties {
		rec, err := fromDocumentProperty(prop)
		if err != nil {
			logger.Warnf("skipping a property in %s: %v", path, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// check reports whether rec can be written in this syntax.
func (c documentCodec) check(rec *Record) error {
	_, err := c.property(rec)
	return err
}

func (c documentCodec) property(rec *Record) (documentProperty, error) {
	v := rec.Value()
	for _, s := range []string{rec.Address(), rec.Class(), rec.Setter(), rec.Getter()} {
		if err := textUTF8(s); err != nil {
			return documentProperty{}, err
		}
	}
	if err := v.walk(validUTF8); err != nil {
		return documentProperty{}, err
	}
	if c.finiteOnly {
		if err := v.walk(finite); err != nil {
			return documentProperty{}, err
		}
	}
	prop := documentProperty{
		Address: rec.Address(),
		Class:   rec.Class(),
		Setter:  rec.Setter(),
		Getter:  rec.Getter(),
		ID:      rec.ID(),
		Type:    v.Type().Token(),
	}
	switch v.Kind() {
	case KindInvalid:
		return documentProperty{}, fmt.Errorf("%w: value is unset", ErrNonSerializable)
	case KindOpaque:
		data, err := v.OpaqueBytes()
		if err != nil {
			return documentProperty{}, err
		}
		prop.Value = encodeBase64(data)
	default:
		prop.Value = v.Native()
	}
	return prop, nil
}

func fromDocumentProperty(prop documentProperty) (*Record, error) {
	key := NewKey(strings.TrimSpace(prop.Address), strings.TrimSpace(prop.Setter), strings.TrimSpace(prop.Getter))
	if key.Address == "" || key.Setter == "" {
		return nil, fmt.Errorf("%w: property without address or setter", ErrMalformed)
	}
	t, err := ParseType(prop.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	v, err := FromNative(t, prop.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return NewRecord(key, v).WithOwner(prop.ID, prop.Class), nil
}

var jsonCodec = documentCodec{
	name:      "json",
	extension: "json",
	marshal: func(w io.Writer, doc *document) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	},
	unmarshal: func(data []byte, doc *document) error {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		return dec.Decode(doc)
	},
	finiteOnly: true,
}

var tomlCodec = documentCodec{
	name:      "toml",
	extension: "toml",
	marshal: func(w io.Writer, doc *document) error {
		return toml.NewEncoder(w).Encode(doc)
	},
	unmarshal: func(data []byte, doc *document) error {
		return toml.Unmarshal(data, doc)
	},
}

var yamlCodec = documentCodec{
	name:      "yaml",
	extension: "yaml",
	marshal: func(w io.Writer, doc *document) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	},
	unmarshal: func(data []byte, doc *document) error {
		return yaml.Unmarshal(data, doc)
	},
}

// JSONFormat stores records as a JSON document.
type JSONFormat struct {
	Logger log.Logger
}

func (f *JSONFormat) Name() string      { return jsonCodec.name }
func (f *JSONFormat) Extension() string { return jsonCodec.extension }

func (f *JSONFormat) Compile(ctx context.Context, records []*Record, path string) error {
	return jsonCodec.compile(ctx, orDiscard(f.Logger), records, path)
}

// Check implements Checker.
func (f *JSONFormat) Check(rec *Record) error { return jsonCodec.check(rec) }

func (f *JSONFormat) Load(ctx context.Context, path string) ([]*Record, error) {
	return jsonCodec.load(ctx, orDiscard(f.Logger), path)
}

// TOMLFormat stores records as a TOML document with one [[properties]]
// table per record.
type TOMLFormat struct {
	Logger log.Logger
}

func (f *TOMLFormat) Name() string      { return tomlCodec.name }
func (f *TOMLFormat) Extension() string { return tomlCodec.extension }

func (f *TOMLFormat) Compile(ctx context.Context, records []*Record, path string) error {
	return tomlCodec.compile(ctx, orDiscard(f.Logger), records, path)
}

// Check implements Checker.
func (f *TOMLFormat) Check(rec *Record) error { return tomlCodec.check(rec) }

func (f *TOMLFormat) Load(ctx context.Context, path string) ([]*Record, error) {
	return tomlCodec.load(ctx, orDiscard(f.Logger), path)
}

// YAMLFormat stores records as a YAML document.
type YAMLFormat struct {
	Logger log.Logger
}

func (f *YAMLFormat) Name() string      { return yamlCodec.name }
func (f *YAMLFormat) Extension() string { return yamlCodec.extension }

func (f *YAMLFormat) Compile(ctx context.Context, records []*Record, path string) error {
	return yamlCodec.compile(ctx, orDiscard(f.Logger), records, path)
}

// Check implements Checker.
func (f *YAMLFormat) Check(rec *Record) error { return yamlCodec.check(rec) }

func (f *YAMLFormat) Load(ctx context.Context, path string) ([]*Record, error) {
	return yamlCodec.load(ctx, orDiscard(f.Logger), path)
}

func orDiscard(logger log.Logger) log.Logger {
	if logger == nil {
		return log.DiscardLogger
	}
	return logger
}

package props

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-props/log"
)

// XMLFormat writes a flat <properties> document. String and array values are
// wrapped in CDATA; arrays are written as a JSON array. Strings holding a
// carriage return are written as escaped text instead, since parsers fold
// line breaks inside CDATA.
type XMLFormat struct {
	Logger log.Logger
}

type xmlDocument struct {
	XMLName    xml.Name      `xml:"properties"`
	Name       string        `xml:"name,attr"`
	Properties []xmlProperty `xml:"property"`
}

type xmlProperty struct {
	Address string   `xml:"address"`
	Class   string   `xml:"class"`
	Setter  string   `xml:"setter"`
	Getter  string   `xml:"getter"`
	Type    string   `xml:"type"`
	Value   xmlValue `xml:"value"`
}

// xmlValue receives all character data in CDATA on decode, since it is the
// first text field.
type xmlValue struct {
	CDATA string `xml:",cdata"`
	Text  string `xml:",chardata"`
}

func (f *XMLFormat) Name() string       { return "xml" }
func (f *XMLFormat) Extension() string  { return "xml" }
func (f *XMLFormat) Experimental() bool { return true }

func (f *XMLFormat) logger() log.Logger { return orDiscard(f.Logger) }

// Compile writes records to path.
func (f *XMLFormat) Compile(ctx context.Context, records []*Record, path string) error {
	doc := xmlDocument{Name: path, Properties: make([]xmlProperty, 0, len(records))}
	for _, rec := range records {
		prop, err := toXMLProperty(rec)
		if err != nil {
			f.logger().Warnf("skipping property %s: %v", rec.Key(), err)
			continue
		}
		doc.Properties = append(doc.Properties, prop)
	}
	return writeFile(ctx, path, func(w io.Writer) error {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "\t")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("props: encode %s: %w", path, err)
		}
		return enc.Close()
	})
}

// Check implements Checker. It rejects text XML 1.0 cannot carry.
func (f *XMLFormat) Check(rec *Record) error {
	_, err := toXMLProperty(rec)
	return err
}

// Load decodes path. The whole document must parse; individual properties
// with an unknown type or unparsable value are skipped.
func (f *XMLFormat) Load(ctx context.Context, path string) ([]*Record, error) {
	data, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("props: %s: %w: %v", path, ErrMalformed, err)
	}
	records := make([]*Record, 0, len(doc.Properties))
	for _, prop := range doc.Properties {
		rec, err := fromXMLProperty(prop)
		if err != nil {
			f.logger().Warnf("skipping a property in %s: %v", path, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func toXMLProperty(rec *Record) (xmlProperty, error) {
	v := rec.Value()
	for _, s := range []string{rec.Address(), rec.Class(), rec.Setter(), rec.Getter()} {
		if err := xmlText(s); err != nil {
			return xmlProperty{}, err
		}
	}
	err := v.walk(func(item Value) error {
		if item.kind != KindString {
			return nil
		}
		return xmlText(item.s)
	})
	if err != nil {
		return xmlProperty{}, err
	}
	prop := xmlProperty{
		Address: rec.Address(),
		Class:   rec.Class(),
		Setter:  rec.Setter(),
		Getter:  rec.Getter(),
		Type:    v.Type().Token(),
	}
	switch v.Kind() {
	case KindString:
		if strings.ContainsRune(v.s, '\r') {
			prop.Value.Text = v.s
		} else {
			prop.Value.CDATA = v.s
		}
	case KindArray:
		raw, err := json.Marshal(v.Native())
		if err != nil {
			return xmlProperty{}, fmt.Errorf("%w: %v", ErrNonSerializable, err)
		}
		prop.Value.CDATA = string(raw)
	case KindOpaque:
		data, err := v.OpaqueBytes()
		if err != nil {
			return xmlProperty{}, err
		}
		prop.Value.Text = encodeBase64(data)
	case KindInvalid:
		return xmlProperty{}, fmt.Errorf("%w: value is unset", ErrNonSerializable)
	default:
		prop.Value.Text = v.String()
	}
	return prop, nil
}

func fromXMLProperty(prop xmlProperty) (*Record, error) {
	key := NewKey(strings.TrimSpace(prop.Address), strings.TrimSpace(prop.Setter), strings.TrimSpace(prop.Getter))
	if key.Address == "" || key.Setter == "" {
		return nil, fmt.Errorf("%w: property without address or setter", ErrMalformed)
	}
	t, err := ParseType(prop.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	text := prop.Value.CDATA + prop.Value.Text
	var v Value
	switch t.Kind {
	case KindArray:
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		var items []any
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", key, ErrMalformed, err)
		}
		v, err = FromNative(t, items)
	case KindOpaque:
		v, err = FromNative(t, text)
	default:
		v, err = ParseValue(t.Kind, text)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return NewRecord(key, v).WithOwner(0, strings.TrimSpace(prop.Class)), nil
}

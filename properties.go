package props

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/goliatone/go-props/log"
	"github.com/goliatone/go-props/pkg/activity"
	"github.com/goliatone/go-props/pkg/state"
)

// Properties persists widget properties. It owns a Registry and a snapshot
// store, and saves or loads records through the registered formats.
//
// Save, load, capture and restore are serialized; record values are only
// written while that lock is held.
type Properties struct {
	mu        sync.Mutex
	cfg       config
	log       log.Logger
	registry  *Registry
	resolver  Resolver
	formats   []Format
	format    Format
	snapshots state.Store[[]*Record]
	emitter   *activity.Emitter
}

// Report summarizes a save, load or restore. Err combines the per-record
// failures; it never carries the file-level error, which is returned
// separately.
type Report struct {
	Path    string
	Format  string
	Saved   int
	Ignored int
	Applied int
	Skipped int
	Err     error
}

// Errors returns the per-record failures.
func (r Report) Errors() []error {
	return multierr.Errors(r.Err)
}

// New returns Properties resolving owners through resolver.
func New(resolver Resolver, opts ...Option) *Properties {
	cfg := applyOptions(opts)
	p := &Properties{
		cfg:       cfg,
		log:       cfg.logger,
		registry:  NewRegistry(),
		resolver:  resolver,
		snapshots: cfg.snapshots,
		emitter:   newEmitter(cfg),
	}
	for _, f := range append(defaultFormats(cfg.logger), cfg.formats...) {
		p.addFormat(f)
	}
	p.format = p.lookupFormat(cfg.format)
	if p.format == nil {
		p.log.Warnf("no format registered for %q, falling back to %q", cfg.format, p.formats[0].Extension())
		p.format = p.formats[0]
	}
	return p
}

func (p *Properties) addFormat(f Format) {
	if f == nil {
		return
	}
	for i, existing := range p.formats {
		if strings.EqualFold(existing.Extension(), f.Extension()) {
			p.formats[i] = f
			return
		}
	}
	p.formats = append(p.formats, f)
}

func (p *Properties) lookupFormat(ext string) Format {
	for _, f := range p.formats {
		if strings.EqualFold(f.Extension(), ext) {
			return f
		}
	}
	return nil
}

// Registry exposes the underlying registry for set management.
func (p *Properties) Registry() *Registry { return p.registry }

// Register registers the accessor pair on address. The owner is looked up
// by address on every refresh and apply.
func (p *Properties) Register(address, setter, getter string) *Record {
	return p.register(NewKey(address, setter, getter))
}

// RegisterProperty registers set<Name>/get<Name> on address.
func (p *Properties) RegisterProperty(address, name string) *Record {
	return p.register(PropertyKey(address, name))
}

// Property returns the record for the triple, registering it when unknown.
func (p *Properties) Property(address, setter, getter string) *Record {
	return p.register(NewKey(address, setter, getter))
}

// PropertyByName is Property with accessor names derived from name.
func (p *Properties) PropertyByName(address, name string) *Record {
	return p.register(PropertyKey(address, name))
}

func (p *Properties) register(key Key) *Record {
	rec, created := p.registry.register(key)
	if !created {
		return rec
	}
	p.mu.Lock()
	if _, _, err := p.resolveAccessor(rec.key); err != nil {
		p.log.Debugf("registered %s unbound: %v", key, err)
	}
	p.mu.Unlock()
	p.emit(context.Background(), activity.BuildPropertyRegisteredEvent(activity.PropertyEventInput{
		Property: key.String(),
		Sets:     []string{DefaultSet},
	}))
	return rec
}

// resolveAccessor finds the current owner of key and looks the accessor up on
// it. Nothing is cached: a widget replaced at the same address is picked up
// on the next call.
func (p *Properties) resolveAccessor(key Key) (Target, Accessor, error) {
	target := resolve(p.resolver, key.Address)
	if target == nil {
		return nil, Accessor{}, fmt.Errorf("%w: %q", ErrUnresolved, key.Address)
	}
	acc, ok := target.Accessor(key.Setter, key.Getter)
	if !ok {
		return target, Accessor{}, fmt.Errorf("%w: %s/%s not bound on %q", ErrAccessor, key.Setter, key.Getter, key.Address)
	}
	if live, registered := p.registry.Lookup(key); registered && acc.Type.Kind != KindInvalid {
		live.typ = acc.Type
	}
	return target, acc, nil
}

// Refresh reads the live value of rec through its getter and reports whether
// the value can be persisted.
func (p *Properties) Refresh(rec *Record) bool {
	if rec == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.refresh(rec); err != nil {
		p.log.Debugf("refresh %s: %v", rec.Key(), err)
		return false
	}
	return true
}

func (p *Properties) refresh(rec *Record) error {
	if !p.registry.Contains(rec) {
		return propertyError("refresh", rec.key, ErrNotRegistered)
	}
	target, acc, err := p.resolveAccessor(rec.key)
	if err != nil {
		return propertyError("refresh", rec.key, err)
	}
	v, err := acc.get()
	if err != nil {
		if !errors.Is(err, ErrAccessor) {
			err = fmt.Errorf("%w: %w", ErrAccessor, err)
		}
		return propertyError("refresh", rec.key, err)
	}
	rec.value = v
	if v.IsValid() {
		rec.typ = v.Type()
	}
	if identified, ok := target.(Identified); ok {
		rec.id = identified.ID()
	}
	if classified, ok := target.(Classified); ok {
		rec.class = classified.Class()
	}
	return propertyError("refresh", rec.key, encodable(rec))
}

// Save writes every active property to the default file with the active
// format.
func (p *Properties) Save(ctx context.Context) (Report, error) {
	return p.SaveAs(ctx, p.cfg.defaultName)
}

// SaveAs writes the active properties in the union of sets to path. With no
// sets every property is a candidate. The active format's extension is
// appended to path when missing.
func (p *Properties) SaveAs(ctx context.Context, path string, sets ...string) (Report, error) {
	p.mu.Lock()
	candidates := p.registry.Records()
	if len(sets) > 0 {
		candidates = p.registry.InSets(sets...)
	}
	included, report := p.collect(candidates)
	report, err := p.compile(ctx, path, included, report)
	p.mu.Unlock()
	if err != nil {
		return report, err
	}
	p.emitSaved(ctx, report, sets)
	return report, nil
}

// collect refreshes each active candidate and keeps those that can be
// persisted.
func (p *Properties) collect(candidates []*Record) ([]*Record, Report) {
	var report Report
	included := make([]*Record, 0, len(candidates))
	for _, rec := range candidates {
		if !rec.Active() {
			continue
		}
		if err := p.refresh(rec); err != nil {
			report.Ignored++
			report.Err = multierr.Append(report.Err, err)
			p.log.Warnf("ignoring %s: %v", rec.Key(), err)
			continue
		}
		included = append(included, rec)
	}
	return included, report
}

func (p *Properties) compile(ctx context.Context, path string, records []*Record, report Report) (Report, error) {
	format := p.format
	report.Path = WithExtension(p.cfg.resolvePath(path), format.Extension())
	report.Format = format.Name()
	if exp, ok := format.(Experimental); ok && exp.Experimental() {
		p.log.Warnf("the %s properties format is experimental", format.Name())
	}
	if checker, ok := format.(Checker); ok {
		records = p.admit(checker, records, &report)
	}
	if err := format.Compile(ctx, records, report.Path); err != nil {
		p.log.Errorf("saving %s failed: %v", report.Path, err)
		return report, err
	}
	report.Saved = len(records)
	p.log.Infof("%d items saved, %d ignored to %s (%s)", report.Saved, report.Ignored, report.Path, report.Format)
	return report, nil
}

// admit drops the records checker rejects and counts them as ignored.
func (p *Properties) admit(checker Checker, records []*Record, report *Report) []*Record {
	admitted := make([]*Record, 0, len(records))
	for _, rec := range records {
		if err := checker.Check(rec); err != nil {
			report.Ignored++
			report.Err = multierr.Append(report.Err, propertyError("save", rec.key, err))
			p.log.Warnf("ignoring %s: %v", rec.Key(), err)
			continue
		}
		admitted = append(admitted, rec)
	}
	return admitted
}

func (p *Properties) emitSaved(ctx context.Context, report Report, sets []string) {
	p.emit(ctx, activity.BuildPropertiesSavedEvent(activity.PropertyEventInput{
		Path:   report.Path,
		Format: report.Format,
		Sets:   sets,
		Counts: map[string]int{"saved": report.Saved, "ignored": report.Ignored},
	}))
}

// Load applies the default file written by Save.
func (p *Properties) Load(ctx context.Context) (Report, error) {
	return p.LoadFrom(ctx, WithExtension(p.cfg.defaultName, p.Format().Extension()))
}

// LoadFrom decodes path with the format matching its extension and applies
// every decoded value. Nothing is applied when the file does not decode.
func (p *Properties) LoadFrom(ctx context.Context, path string) (Report, error) {
	path = p.cfg.resolvePath(path)
	report := Report{Path: path}
	format, err := p.FormatFor(path)
	if err != nil {
		p.log.Errorf("loading %s: %v", path, err)
		return report, err
	}
	report.Format = format.Name()
	records, err := format.Load(ctx, path)
	if err != nil {
		p.log.Errorf("loading %s: %v", path, err)
		return report, err
	}

	p.mu.Lock()
	p.apply("load", records, &report)
	p.mu.Unlock()

	p.log.Infof("%d items applied, %d skipped from %s", report.Applied, report.Skipped, path)
	p.emit(ctx, activity.BuildPropertiesLoadedEvent(activity.PropertyEventInput{
		Path:   path,
		Format: report.Format,
		Counts: map[string]int{"applied": report.Applied, "skipped": report.Skipped},
	}))
	return report, nil
}

// Inspect decodes path without applying anything.
func (p *Properties) Inspect(ctx context.Context, path string) ([]*Record, error) {
	path = p.cfg.resolvePath(path)
	format, err := p.FormatFor(path)
	if err != nil {
		return nil, err
	}
	return format.Load(ctx, path)
}

// apply pushes each record's value to its owner. Failures are counted and
// collected, never fatal.
func (p *Properties) apply(op string, records []*Record, report *Report) {
	for _, rec := range records {
		if err := p.applyRecord(op, rec); err != nil {
			report.Skipped++
			report.Err = multierr.Append(report.Err, err)
			p.log.Warnf("skipping %s: %v", rec.Key(), err)
			continue
		}
		report.Applied++
	}
}

func (p *Properties) applyRecord(op string, rec *Record) error {
	if !rec.value.IsValid() {
		return propertyError(op, rec.key, fmt.Errorf("%w: value is unset", ErrNonSerializable))
	}
	target, acc, err := p.resolveAccessor(rec.key)
	if err != nil {
		return propertyError(op, rec.key, err)
	}
	v := rec.value.Clone()
	if err := acc.set(v); err != nil {
		if !errors.Is(err, ErrAccessor) && !errors.Is(err, ErrTypeMismatch) {
			err = fmt.Errorf("%w: %w", ErrAccessor, err)
		}
		return propertyError(op, rec.key, err)
	}
	if identified, ok := target.(Identified); ok && rec.id != 0 {
		identified.SetID(rec.id)
	}
	if live, ok := p.registry.Lookup(rec.key); ok {
		live.value = v
		if v.IsValid() {
			live.typ = v.Type()
		}
	}
	return nil
}

// FormatFor returns the registered format whose extension matches path,
// compared case-insensitively.
func (p *Properties) FormatFor(path string) (Format, error) {
	ext := extensionOf(path)
	if f := p.lookupFormat(ext); f != nil && ext != "" {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// SetFormat selects the format used for saving by extension.
func (p *Properties) SetFormat(extension string) error {
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(extension)), ".")
	f := p.lookupFormat(ext)
	if f == nil {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, extension)
	}
	p.mu.Lock()
	p.format = f
	p.mu.Unlock()
	return nil
}

// Format returns the format used for saving.
func (p *Properties) Format() Format {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format
}

// Formats lists the registered formats.
func (p *Properties) Formats() []Format {
	return slices.Clone(p.formats)
}

// Descriptor is a read-only view of one registered property.
type Descriptor struct {
	Key    Key
	Type   string
	Value  string
	ID     int
	Class  string
	Active bool
	Sets   []string
}

// Describe lists the registered properties with their last captured values,
// sorted by key.
func (p *Properties) Describe() []Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	records := p.registry.Records()
	out := make([]Descriptor, 0, len(records))
	for _, rec := range records {
		out = append(out, Descriptor{
			Key:    rec.Key(),
			Type:   rec.Type().Token(),
			Value:  rec.Value().String(),
			ID:     rec.ID(),
			Class:  rec.Class(),
			Active: rec.Active(),
			Sets:   p.registry.Sets(rec),
		})
	}
	slices.SortFunc(out, func(a, b Descriptor) int {
		return strings.Compare(a.Key.String(), b.Key.String())
	})
	return out
}

func (p *Properties) String() string {
	descriptors := p.Describe()
	var b strings.Builder
	b.WriteString("props.Properties\n")
	fmt.Fprintf(&b, "total num of properties:\t%d\n", len(descriptors))
	for _, d := range descriptors {
		fmt.Fprintf(&b, "\t%s (%s) = %s\n", d.Key, d.Type, d.Value)
	}
	fmt.Fprintf(&b, "total num of sets:\t\t%d\n", len(p.registry.SetNames()))
	for _, name := range p.registry.SetNames() {
		fmt.Fprintf(&b, "\t%s\n", name)
	}
	return b.String()
}

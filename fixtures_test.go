package props

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type slider struct {
	*Base
	value   float64
	label   string
	steps   []int
	visible bool
	colors  []float64
}

func newSlider(address string) *slider {
	s := &slider{Base: NewBase(address, "Slider"), label: "volume", visible: true}
	s.Bind("value", FloatAccessor(func() float64 { return s.value }, func(v float64) { s.value = v }))
	s.Bind("label", StringAccessor(func() string { return s.label }, func(v string) { s.label = v }))
	s.Bind("steps", IntsAccessor(func() []int { return s.steps }, func(v []int) { s.steps = v }))
	s.Bind("visible", BoolAccessor(func() bool { return s.visible }, func(v bool) { s.visible = v }))
	s.Bind("colors", FloatsAccessor(func() []float64 { return s.colors }, func(v []float64) { s.colors = v }))
	return s
}

type toggle struct {
	*Base
	state int
}

func newToggle(address string) *toggle {
	tg := &toggle{Base: NewBase(address, "Toggle")}
	tg.Bind("state", IntAccessor(func() int { return tg.state }, func(v int) { tg.state = v }))
	return tg
}

// curve is an opaque payload that can be persisted.
type curve struct {
	points []byte
}

func (c *curve) MarshalBinary() ([]byte, error) { return bytes.Clone(c.points), nil }

func (c *curve) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty curve")
	}
	c.points = bytes.Clone(data)
	return nil
}

// handle is an opaque payload that cannot be persisted.
type handle struct {
	fd int
}

type fixture struct {
	widgets *Widgets
	slider  *slider
	toggle  *toggle
	props   *Properties
	dir     string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		widgets: NewWidgets(),
		slider:  newSlider("/slider"),
		toggle:  newToggle("/toggle"),
		dir:     dir,
	}
	f.widgets.AddController(f.slider).AddController(f.toggle)
	f.props = New(f.widgets, append([]Option{WithBaseDir(dir)}, opts...)...)
	return f
}

func (f *fixture) registerAll() {
	for _, name := range []string{"value", "label", "steps", "visible", "colors"} {
		f.props.RegisterProperty("/slider", name)
	}
	f.props.RegisterProperty("/toggle", "state")
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	props "github.com/goliatone/go-props"
)

func runCommand(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(func(key string) string { return env[key] })
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	level := 3
	knob := props.NewBase("/knob", "Knob")
	knob.Bind("level", props.IntAccessor(func() int { return level }, func(v int) { level = v }))
	p := props.New(props.NewWidgets().AddController(knob), props.WithBaseDir(dir))
	p.RegisterProperty("/knob", "level")
	report, err := p.SaveAs(t.Context(), "fixture")
	if err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return report.Path
}

func TestDumpPrintsRecords(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)

	out, err := runCommand(t, nil, "dump", path)
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	for _, want := range []string{"ADDRESS", "/knob", "setLevel", "Knob", "int", "3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestConvertUsesBaseDirFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)
	env := map[string]string{envBaseDir: dir, envLogLevel: "error"}

	for _, target := range []string{"fixture.json", "fixture.db", "fixture.sqlite"} {
		out, err := runCommand(t, env, "convert", "fixture.ser", target)
		if err != nil {
			t.Fatalf("convert to %s failed: %v", target, err)
		}
		if !strings.Contains(out, "1 records written to "+filepath.Join(dir, target)) {
			t.Fatalf("unexpected convert output %q", out)
		}

		dump, err := runCommand(t, env, "dump", target)
		if err != nil {
			t.Fatalf("dump %s failed: %v", target, err)
		}
		if !strings.Contains(dump, "setLevel") {
			t.Fatalf("converted %s lost the record:\n%s", target, dump)
		}
	}
}

func TestConvertRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)
	_, err := runCommand(t, nil, "convert", path, filepath.Join(dir, "out.abc"))
	if err == nil || !strings.Contains(err.Error(), "unknown storage format") {
		t.Fatalf("expected an unknown format error, got %v", err)
	}
}

func TestFormatsListsStores(t *testing.T) {
	out, err := runCommand(t, nil, "formats")
	if err != nil {
		t.Fatalf("formats failed: %v", err)
	}
	for _, want := range []string{"ser", "xml (experimental)", "toml", "db", "sqlite"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := runCommand(t, map[string]string{envLogLevel: "loud"}, "formats")
	if err == nil {
		t.Fatalf("expected an error for an unknown log level")
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const libV1 = `
name: Lib
types:
  - name: Lib.Client
    kind: class
    members:
      - name: Send()
        kind: method
        signature: public void Send()
      - name: Close()
        kind: method
        signature: public void Close()
`

const libV2 = `
name: Lib
types:
  - name: Lib.Client
    kind: class
    members:
      - name: Send()
        kind: method
        signature: public void Send()
      - name: Close()
        kind: method
        signature: public void Close()
      - name: Flush()
        kind: method
        signature: public void Flush()
`

// libV4 adds a type, which classifies as minor. Adding a member to an
// existing type (libV2) modifies that type and classifies as major.
const libV4 = `
name: Lib
types:
  - name: Lib.Client
    kind: class
    members:
      - name: Send()
        kind: method
        signature: public void Send()
      - name: Close()
        kind: method
        signature: public void Close()
  - name: Lib.Options
    kind: class
`

const libV3 = `
name: Lib
types:
  - name: Lib.Client
    kind: class
    members:
      - name: Send()
        kind: method
        signature: public void Send()
`

const breakingTree = `
kind: modified
element: assembly
name: Lib
children:
  - kind: modified
    element: type
    name: Lib.Client
    children:
      - kind: deleted
        breaking: true
        element: method
        name: Close()
      - kind: new
        element: method
        name: Flush()
`

type result struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiff_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFile(t, dir, "v1/Lib.yaml", libV1)
	v2 := writeFile(t, dir, "v2/Lib.yaml", libV2)
	v3 := writeFile(t, dir, "v3/Lib.yaml", libV3)
	v4 := writeFile(t, dir, "v4/Lib.yaml", libV4)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"new type under major lock", []string{"diff", "file|" + v1, "file|" + v4, "--prevent-change", "major"}, 0},
		{"new type meets minor lock", []string{"diff", "file|" + v1, "file|" + v4, "--prevent-change", "minor"}, 4},
		{"added member meets major lock", []string{"diff", "file|" + v1, "file|" + v2, "--prevent-change", "major"}, 4},
		{"major meets major lock", []string{"diff", "file|" + v1, "file|" + v3, "--prevent-change", "major"}, 4},
		{"no lock", []string{"diff", "file|" + v1, "file|" + v3}, 0},
		{"identical", []string{"diff", "file|" + v1, "file|" + v1, "--prevent-change", "patch"}, 4},
		{"directories", []string{"diff", "directory|" + filepath.Dir(v1), "directory|" + filepath.Dir(v4), "--prevent-change", "major"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, append(append([]string{"-C", dir}, tt.args...), "-f", "markdown")...)
			if r.code != tt.want {
				t.Errorf("exit code = %d, want %d\nstdout: %s\nstderr: %s", r.code, tt.want, r.stdout, r.stderr)
			}
		})
	}
}

func TestDiff_GateFailureIsLogged(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFile(t, dir, "v1/Lib.yaml", libV1)
	v3 := writeFile(t, dir, "v3/Lib.yaml", libV3)

	r := execute(t, "-C", dir, "diff", "file|"+v1, "file|"+v3, "--prevent-change", "minor", "-f", "markdown")
	if r.code != 4 {
		t.Fatalf("exit code = %d, want 4", r.code)
	}
	if !strings.Contains(r.stderr, "exceeds or equals configured lock 'Minor'") {
		t.Errorf("stderr = %s", r.stderr)
	}
	if strings.Contains(r.stderr, "Error:") {
		t.Errorf("a failed gate is not an error: %s", r.stderr)
	}
	if !strings.Contains(r.stdout, "## API Changes") || !strings.Contains(r.stdout, "Close()") {
		t.Errorf("stdout = %s", r.stdout)
	}
}

func TestDiff_NoPairs(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "v1/Lib.yaml", libV1)

	r := execute(t, "-C", dir, "diff", "directory|"+empty, "directory|"+filepath.Join(dir, "v1"))
	if r.code != 1 {
		t.Errorf("exit code = %d, want 1\nstderr: %s", r.code, r.stderr)
	}
	if !strings.Contains(r.stderr, "NO_COMPARABLE_PAIRS") {
		t.Errorf("stderr = %s", r.stderr)
	}

	r = execute(t, "-C", dir, "diff", "directory|"+empty, "directory|"+filepath.Join(dir, "v1"), "--allow-empty", "Directory")
	if r.code != 0 {
		t.Errorf("tolerated: exit code = %d, want 0\nstderr: %s", r.code, r.stderr)
	}
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFile(t, dir, "Lib.yaml", libV1)

	tests := []struct {
		name string
		args []string
	}{
		{"missing argument", []string{"diff", "file|" + v1}},
		{"unknown flag", []string{"diff", "--bogus", "a", "b"}},
		{"bad threshold", []string{"diff", "file|" + v1, "file|" + v1, "--prevent-change", "huge"}},
		{"unknown format", []string{"diff", "file|" + v1, "file|" + v1, "-f", "html"}},
		{"unknown provider", []string{"diff", "nuget|Lib", "file|" + v1}},
		{"bad log level", []string{"--log-level", "loud", "formats"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, append([]string{"-C", dir}, tt.args...)...)
			if r.code != 2 {
				t.Errorf("exit code = %d, want 2\nstderr: %s", r.code, r.stderr)
			}
			if !strings.Contains(r.stderr, "Error:") {
				t.Errorf("stderr = %s", r.stderr)
			}
		})
	}
}

func TestDiff_MissingArtifact(t *testing.T) {
	dir := t.TempDir()
	r := execute(t, "-C", dir, "diff", "file|"+filepath.Join(dir, "nope.yaml"), "file|"+filepath.Join(dir, "nope.yaml"))
	if r.code != 1 {
		t.Errorf("exit code = %d, want 1\nstderr: %s", r.code, r.stderr)
	}
}

func TestDiff_OutputFile(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFile(t, dir, "v1/Lib.yaml", libV1)
	v4 := writeFile(t, dir, "v4/Lib.yaml", libV4)
	out := filepath.Join(dir, "reports")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}

	r := execute(t, "-C", dir, "diff", "file|"+v1, "file|"+v4, "-f", "json", "-o", out, "--current-version", "1.4.2")
	if r.code != 0 {
		t.Fatalf("exit code = %d\nstderr: %s", r.code, r.stderr)
	}

	data, err := os.ReadFile(filepath.Join(out, "semdiff-report.json"))
	if err != nil {
		t.Fatal(err)
	}
	var summary struct {
		Overall     string `json:"overall"`
		NextVersion string `json:"nextVersion"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("decode: %v\n%s", err, data)
	}
	if summary.Overall != "minor" || summary.NextVersion != "1.5.0" {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(r.stdout, `"overall"`) {
		t.Error("the report should also go to the console")
	}
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	tree := writeFile(t, dir, "diff.yaml", breakingTree)

	r := execute(t, "-C", dir, "classify", tree, "--report-threshold", "patch")
	if r.code != 0 {
		t.Fatalf("exit code = %d\nstderr: %s", r.code, r.stderr)
	}
	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	if lines[0] != "major" {
		t.Errorf("level line = %q", lines[0])
	}
	if !strings.Contains(r.stdout, "! ") || !strings.Contains(r.stdout, "Close()") || !strings.Contains(r.stdout, "Flush()") {
		t.Errorf("stdout = %s", r.stdout)
	}

	r = execute(t, "-C", dir, "classify", tree, "--prevent-change", "major")
	if r.code != 4 {
		t.Errorf("exit code = %d, want 4", r.code)
	}

	r = execute(t, "-C", dir, "classify", filepath.Join(dir, "missing.yaml"))
	if r.code != 1 || !strings.Contains(r.stderr, "DECODE_FAILED") {
		t.Errorf("missing tree: code = %d, stderr = %s", r.code, r.stderr)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()

	r := execute(t, "-C", dir, "config", "init")
	if r.code != 0 {
		t.Fatalf("init: exit code = %d\nstderr: %s", r.code, r.stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, ".semdiff", "config.json")); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	r = execute(t, "-C", dir, "config", "init")
	if r.code != 2 || !strings.Contains(r.stderr, "--force") {
		t.Errorf("second init: code = %d, stderr = %s", r.code, r.stderr)
	}
	if r = execute(t, "-C", dir, "config", "init", "--force"); r.code != 0 {
		t.Errorf("forced init: code = %d", r.code)
	}

	t.Setenv("SEMDIFF_PREVENTCHANGE", "minor")
	r = execute(t, "-C", dir, "config", "show")
	if r.code != 0 {
		t.Fatalf("show: exit code = %d", r.code)
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(r.stdout), &cfg); err != nil {
		t.Fatalf("decode: %v\n%s", err, r.stdout)
	}
	if cfg["preventChange"] != "minor" || cfg["format"] != "xml" {
		t.Errorf("config = %v", cfg)
	}
}

func TestConfigFileDrivesDiff(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFile(t, dir, "v1/Lib.yaml", libV1)
	v3 := writeFile(t, dir, "v3/Lib.yaml", libV3)
	writeFile(t, dir, ".semdiff/config.yaml", "format: github-comment\npreventChange: major\n")

	r := execute(t, "-C", dir, "diff", "file|"+v1, "file|"+v3)
	if r.code != 4 {
		t.Errorf("exit code = %d, want 4\nstderr: %s", r.code, r.stderr)
	}
	if !strings.Contains(r.stdout, "breaking change(s) detected") {
		t.Errorf("stdout = %s", r.stdout)
	}

	if r = execute(t, "-C", dir, "diff", "file|"+v1, "file|"+v3, "--prevent-change", "none"); r.code != 0 {
		t.Errorf("flag should override the file: exit code = %d", r.code)
	}
}

func TestListings(t *testing.T) {
	r := execute(t, "-C", t.TempDir(), "formats")
	for _, want := range []string{"FORMAT", "xml", "markdown", "asciidoc", "github-comment", "json", "sarif", "toml"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("formats output missing %q:\n%s", want, r.stdout)
		}
	}

	r = execute(t, "-C", t.TempDir(), "providers")
	for _, want := range []string{"file|<path>", "directory|<path>[|<glob>]"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("providers output missing %q:\n%s", want, r.stdout)
		}
	}
}

func TestVersion(t *testing.T) {
	r := execute(t, "version")
	if r.code != 0 || !strings.HasPrefix(r.stdout, "semdiff version ") {
		t.Errorf("version: code = %d, stdout = %q", r.code, r.stdout)
	}
	r = execute(t, "--version")
	if r.code != 0 || !strings.HasPrefix(r.stdout, "semdiff version ") {
		t.Errorf("--version: code = %d, stdout = %q", r.code, r.stdout)
	}
}

func TestLogFile(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFile(t, dir, "v1/Lib.yaml", libV1)
	v2 := writeFile(t, dir, "v2/Lib.yaml", libV2)
	logPath := filepath.Join(dir, "logs", "semdiff.log")

	r := execute(t, "-C", dir, "--log-file", logPath, "diff", "file|"+v1, "file|"+v2, "-f", "markdown")
	if r.code != 0 {
		t.Fatalf("exit code = %d\nstderr: %s", r.code, r.stderr)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Difference found") {
		t.Errorf("log file = %s", data)
	}
	if strings.Contains(r.stderr, "Difference found") {
		t.Errorf("info records should stay off the console at the default level: %s", r.stderr)
	}
}

func TestDiff_AggregatesAcrossPairs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old/Core.yaml", libV1)
	writeFile(t, dir, "old/Extras.yaml", libV1)
	writeFile(t, dir, "new/Core.yaml", libV3)
	writeFile(t, dir, "new/Extras.yaml", libV4)
	oldSpec := "directory|" + filepath.Join(dir, "old")
	newSpec := "directory|" + filepath.Join(dir, "new")

	r := execute(t, "-C", dir, "diff", oldSpec, newSpec, "-f", "json", "--report-threshold", "patch")
	if r.code != 0 {
		t.Fatalf("exit code = %d\nstderr: %s", r.code, r.stderr)
	}
	var summary struct {
		Overall string `json:"overall"`
		Pairs   []struct {
			Old   string `json:"old"`
			Level string `json:"level"`
		} `json:"pairs"`
	}
	if err := json.Unmarshal([]byte(r.stdout), &summary); err != nil {
		t.Fatalf("decode: %v\n%s", err, r.stdout)
	}
	if summary.Overall != "major" || len(summary.Pairs) != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	for _, p := range summary.Pairs {
		want := map[string]string{"Core.yaml": "major", "Extras.yaml": "minor"}[p.Old]
		if p.Level != want {
			t.Errorf("%s level = %s, want %s", p.Old, p.Level, want)
		}
	}

	if r = execute(t, "-C", dir, "diff", oldSpec, newSpec, "-f", "json", "--prevent-change", "major"); r.code != 4 {
		t.Errorf("major lock: exit code = %d, want 4", r.code)
	}
}

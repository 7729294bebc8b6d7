package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"semdiff/internal/breaking"
	"semdiff/internal/config"
	"semdiff/internal/difftree"
	"semdiff/internal/engine"
	"semdiff/internal/errors"
	"semdiff/internal/export"
	"semdiff/internal/severity"
	"semdiff/internal/slogutil"
)

const v1 = `
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

// v2 adds a member. The member sits under a Modified type, which classifies
// as major.
const v2 = `
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

// v3 deletes a member.
const v3 = `
name: Lib
types:
  - name: Lib.Client
    kind: class
    members:
      - name: Send()
        kind: method
        signature: public void Send()
`

// v4 adds a type, the only purely additive change that classifies as minor.
const v4 = `
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
    members:
      - name: Timeout
        kind: property
        signature: public int Timeout { get; }
`

func writeDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	if opts.Engine == nil {
		eng, err := engine.New(engine.Options{Kind: engine.KindSurface})
		if err != nil {
			t.Fatal(err)
		}
		opts.Engine = eng
	}
	if opts.Exporter == nil {
		opts.Exporter = export.JSONExporter{}
	}
	p, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestRun_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		oldContent  string
		newContent  string
		prevent     severity.Level
		wantLevel   severity.Level
		wantOutcome Outcome
	}{
		{"identical passes", v1, v1, severity.Major, severity.Patch, Success},
		{"new type under major lock", v1, v4, severity.Major, severity.Minor, Success},
		{"new type meets minor lock", v1, v4, severity.Minor, severity.Minor, GateFailed},
		{"added member modifies its type", v1, v2, severity.Major, severity.Major, GateFailed},
		{"deletion meets major lock", v1, v3, severity.Major, severity.Major, GateFailed},
		{"none never fails", v1, v3, severity.None, severity.Major, Success},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldDir := writeDir(t, map[string]string{"Lib.yaml": tt.oldContent})
			newDir := writeDir(t, map[string]string{"Lib.yaml": tt.newContent})

			p := newPipeline(t, Options{
				Old:     "directory|" + oldDir,
				New:     "directory|" + newDir,
				Prevent: tt.prevent,
				Report:  tt.prevent,
			})
			report, err := p.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if report.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v", report.Outcome, tt.wantOutcome)
			}
			if report.Decision.Overall != tt.wantLevel {
				t.Errorf("Overall = %v, want %v", report.Decision.Overall, tt.wantLevel)
			}
			if report.Run == nil || report.Run.Result == nil || len(report.Run.Result.Comparisons) != 1 {
				t.Fatalf("Run = %+v", report.Run)
			}
		})
	}
}

func TestOutcome_ExitCode(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    int
	}{
		{Success, 0},
		{NoPairsTolerated, 0},
		{GateFailed, 4},
		{NoPairs, 1},
	}
	for _, tt := range tests {
		if got := tt.outcome.ExitCode(); got != tt.want {
			t.Errorf("%v.ExitCode() = %d, want %d", tt.outcome, got, tt.want)
		}
	}
}

func TestRun_NoPairs(t *testing.T) {
	oldDir := writeDir(t, map[string]string{"A.yaml": v1, "B.yaml": v1})
	newDir := writeDir(t, map[string]string{"C.yaml": v1, "D.yaml": v1})

	var logs bytes.Buffer
	logger := slogutil.NewLogger(&logs, slogutil.LevelFromVerbosity(1, false))

	p := newPipeline(t, Options{Old: "directory|" + oldDir, New: "directory|" + newDir, Logger: logger})
	report, err := p.Run(context.Background())
	if errors.CodeOf(err) != errors.NoComparablePairs {
		t.Fatalf("error = %v, want %s", err, errors.NoComparablePairs)
	}
	if report == nil || report.Outcome != NoPairs || report.Outcome.ExitCode() != 1 {
		t.Fatalf("report = %+v", report)
	}
	if !strings.Contains(err.Error(), "found 2 artifact(s)") {
		t.Errorf("error should carry artifact counts: %v", err)
	}
	if !strings.Contains(logs.String(), "Unable to create diff") {
		t.Errorf("logs = %s", logs.String())
	}

	p = newPipeline(t, Options{
		Old:        "directory|" + oldDir,
		New:        "directory|" + newDir,
		AllowEmpty: []string{"directory"},
	})
	report, err = p.Run(context.Background())
	if err != nil {
		t.Fatalf("tolerated run: %v", err)
	}
	if report.Outcome != NoPairsTolerated || report.Run != nil {
		t.Errorf("report = %+v", report)
	}
}

func TestRun_ProviderErrors(t *testing.T) {
	dir := writeDir(t, map[string]string{"Lib.yaml": v1})
	tests := []struct {
		name string
		old  string
		want errors.ErrorCode
	}{
		{"unknown provider", "nuget|Lib", errors.ProviderNotFound},
		{"missing directory", "directory|" + filepath.Join(dir, "missing"), errors.ArtifactNotFound},
		{"malformed", "file", errors.ProviderInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, Options{Old: tt.old, New: "directory|" + dir})
			_, err := p.Run(context.Background())
			if got := errors.CodeOf(err); got != tt.want {
				t.Errorf("code = %s, want %s (%v)", got, tt.want, err)
			}
		})
	}
}

func TestRun_EngineError(t *testing.T) {
	dir := writeDir(t, map[string]string{"A.yaml": v1, "B.yaml": v1})
	failing := engine.Func(func(ctx context.Context, old, new breaking.Artifact) (*difftree.Node, error) {
		if old.Name == "B.yaml" {
			return nil, errors.New(errors.EngineFailed, "boom", nil)
		}
		return nil, nil
	})

	p := newPipeline(t, Options{Old: "directory|" + dir, New: "directory|" + dir, Engine: failing})
	_, err := p.Run(context.Background())
	if errors.CodeOf(err) != errors.EngineFailed {
		t.Errorf("error = %v, want %s", err, errors.EngineFailed)
	}
	if !strings.Contains(err.Error(), "B.yaml") {
		t.Errorf("error should name the pair: %v", err)
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	files := make(map[string]string)
	for i := 0; i < 8; i++ {
		files[fmt.Sprintf("P%d.yaml", i)] = v1
	}
	dir := writeDir(t, files)

	var inFlight, peak int32
	var mu sync.Mutex
	var seen []string
	counting := engine.Func(func(ctx context.Context, old, new breaking.Artifact) (*difftree.Node, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		seen = append(seen, old.Name)
		mu.Unlock()
		return &difftree.Node{
			Kind: difftree.KindModified, Element: difftree.ElementAssembly, Name: old.Name,
			Children: []*difftree.Node{{Kind: difftree.KindNew, Element: difftree.ElementType, Name: "T"}},
		}, nil
	})

	p := newPipeline(t, Options{
		Old:     "directory|" + dir,
		New:     "directory|" + dir,
		Engine:  counting,
		Workers: 2,
		Prevent: severity.Major,
	})
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", peak)
	}
	if len(seen) != 8 {
		t.Errorf("engine ran %d times, want 8", len(seen))
	}
	// Trees are attached in pair order regardless of completion order.
	for i, c := range report.Run.Result.Comparisons {
		if c.Diff.Name != fmt.Sprintf("P%d.yaml", i) {
			t.Errorf("comparison %d carries tree %s", i, c.Diff.Name)
		}
	}
	if report.Decision.Overall != severity.Minor {
		t.Errorf("Overall = %v, want minor", report.Decision.Overall)
	}
}

func TestRun_ExportAndVersion(t *testing.T) {
	oldDir := writeDir(t, map[string]string{"Lib.yaml": v1})
	newDir := writeDir(t, map[string]string{"lib.YAML": v4})
	out := filepath.Join(t.TempDir(), "report.json")

	var console bytes.Buffer
	p := newPipeline(t, Options{
		Old:            "directory|" + oldDir,
		New:            "directory|" + newDir,
		Writers:        export.NewWriterFactory(out, &console),
		Prevent:        severity.Major,
		Report:         severity.Patch,
		CurrentVersion: "v1.4.2",
		ToolVersion:    "9.9.9",
	})
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.NextVersion != "v1.5.0" {
		t.Errorf("NextVersion = %q, want v1.5.0", report.NextVersion)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"runId": "` + report.Run.ID + `"`, `"nextVersion": "v1.5.0"`, `"toolVersion": "9.9.9"`, "type `Lib.Options` is new"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("report missing %s:\n%s", want, data)
		}
	}
	if console.String() != string(data) {
		t.Error("console and file should receive the same report")
	}
}

func TestNew_Validation(t *testing.T) {
	eng := engine.Func(func(context.Context, breaking.Artifact, breaking.Artifact) (*difftree.Node, error) { return nil, nil })
	tests := []struct {
		name string
		opts Options
		want errors.ErrorCode
	}{
		{"no engine", Options{Exporter: export.JSONExporter{}}, errors.InternalError},
		{"no exporter", Options{Engine: eng}, errors.InternalError},
		{"bad threshold", Options{Engine: eng, Exporter: export.JSONExporter{}, Prevent: severity.Level(9)}, errors.InvalidThreshold},
		{"bad version", Options{Engine: eng, Exporter: export.JSONExporter{}, CurrentVersion: "one"}, errors.ConfigInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if got := errors.CodeOf(err); got != tt.want {
				t.Errorf("code = %s, want %s (%v)", got, tt.want, err)
			}
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Format = "markdown"
	cfg.PreventChange = "minor"
	cfg.Targets = []string{"Lib"}

	opts, err := OptionsFromConfig(cfg, "file|a", "file|b", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Exporter.Format() != "markdown" || opts.Prevent != severity.Minor || opts.Report != severity.Minor {
		t.Errorf("opts = %+v", opts)
	}
	if !opts.Targets.Match("Lib.dll") || opts.Targets.Match("Other.dll") {
		t.Error("targets not applied")
	}
	if !opts.Exclude(&difftree.Node{Element: difftree.ElementReference}) {
		t.Error("references should be excluded by default")
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   errors.ErrorCode
	}{
		{"unknown format", func(c *config.Config) { c.Format = "html" }, errors.UnsupportedFormat},
		{"bad threshold", func(c *config.Config) { c.PreventChange = "huge" }, errors.InvalidThreshold},
		{"exec without command", func(c *config.Config) { c.Engine.Kind = "exec" }, errors.ConfigInvalid},
		{"bad target", func(c *config.Config) { c.Targets = []string{"[x"} }, errors.ConfigInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.DefaultConfig()
			tt.mutate(c)
			_, err := OptionsFromConfig(c, "file|a", "file|b", nil, nil)
			if got := errors.CodeOf(err); got != tt.want {
				t.Errorf("code = %s, want %s (%v)", got, tt.want, err)
			}
			if !errors.IsConfigError(err) {
				t.Errorf("%v should be a configuration error", err)
			}
		})
	}
}

func TestRun_DeletionAndNewTypeAcrossPairs(t *testing.T) {
	oldDir := writeDir(t, map[string]string{"Core.yaml": v1, "Extras.yaml": v1})
	newDir := writeDir(t, map[string]string{"core.yaml": v3, "Extras.yaml": v4, "Unrelated.yaml": v1})

	tests := []struct {
		prevent     severity.Level
		wantOutcome Outcome
	}{
		{severity.None, Success},
		{severity.Major, GateFailed},
	}
	for _, tt := range tests {
		t.Run(tt.prevent.String(), func(t *testing.T) {
			var logs bytes.Buffer
			p := newPipeline(t, Options{
				Old:     "directory|" + oldDir,
				New:     "directory|" + newDir,
				Prevent: tt.prevent,
				Report:  severity.Patch,
				Logger:  slogutil.NewLogger(&logs, slogutil.LevelFromVerbosity(1, false)),
			})
			report, err := p.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			// Pairs join by name; the unmatched new artifact is left out.
			cmps := report.Run.Result.Comparisons
			if len(cmps) != 2 || report.Acquisition.NewCount != 3 {
				t.Fatalf("comparisons = %d, new artifacts = %d", len(cmps), report.Acquisition.NewCount)
			}
			levels := map[string]severity.Level{}
			for _, c := range cmps {
				levels[c.Old.Name] = c.Level()
			}
			if levels["Core.yaml"] != severity.Major || levels["Extras.yaml"] != severity.Minor {
				t.Errorf("levels = %v, want Core major and Extras minor", levels)
			}

			if report.Decision.Overall != severity.Major {
				t.Errorf("Overall = %s, want major", report.Decision.Overall)
			}
			if report.Decision.Failed != (tt.wantOutcome == GateFailed) || report.Outcome != tt.wantOutcome {
				t.Errorf("decision = %+v, outcome = %v", report.Decision, report.Outcome)
			}
			if !strings.Contains(logs.String(), "Difference found") || !strings.Contains(logs.String(), "nodes=") {
				t.Errorf("logs = %s", logs.String())
			}
		})
	}
}

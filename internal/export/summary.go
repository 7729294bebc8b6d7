package export

import (
	"time"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
	"semdiff/internal/severity"
)

// Summary is the machine-readable view of a run shared by the json, sarif
// and toml exporters.
type Summary struct {
	RunID           string         `json:"runId" toml:"run_id"`
	Generated       string         `json:"generated" toml:"generated"`
	ToolVersion     string         `json:"toolVersion,omitempty" toml:"tool_version,omitempty"`
	Overall         severity.Level `json:"overall" toml:"overall"`
	PreventChange   severity.Level `json:"preventChange" toml:"prevent_change"`
	ReportThreshold severity.Level `json:"reportThreshold" toml:"report_threshold"`
	Failed          bool           `json:"failed" toml:"failed"`
	Message         string         `json:"message" toml:"message"`
	CurrentVersion  string         `json:"currentVersion,omitempty" toml:"current_version,omitempty"`
	NextVersion     string         `json:"nextVersion,omitempty" toml:"next_version,omitempty"`
	Deleted         int            `json:"deleted" toml:"deleted"`
	Modified        int            `json:"modified" toml:"modified"`
	New             int            `json:"new" toml:"new"`
	Pairs           []PairSummary  `json:"pairs" toml:"pairs"`
}

// PairSummary describes one comparison.
type PairSummary struct {
	Old      string          `json:"old" toml:"old"`
	New      string          `json:"new" toml:"new"`
	OldPath  string          `json:"oldPath" toml:"old_path"`
	NewPath  string          `json:"newPath" toml:"new_path"`
	Level    severity.Level  `json:"level" toml:"level"`
	Changed  bool            `json:"changed" toml:"changed"`
	Deleted  int             `json:"deleted" toml:"deleted"`
	Modified int             `json:"modified" toml:"modified"`
	Added    int             `json:"added" toml:"added"`
	Changes  []ChangeSummary `json:"changes,omitempty" toml:"changes,omitempty"`
}

// ChangeSummary is one selected change.
type ChangeSummary struct {
	Kind     difftree.Kind    `json:"kind" toml:"kind"`
	Element  difftree.Element `json:"element,omitempty" toml:"element,omitempty"`
	Name     string           `json:"name,omitempty" toml:"name,omitempty"`
	Text     string           `json:"text" toml:"text"`
	Breaking bool             `json:"breaking,omitempty" toml:"breaking,omitempty"`
	Depth    int              `json:"depth" toml:"depth"`
}

// Summarize runs one visitor pass per comparison at the run's report
// threshold.
func Summarize(run *Run) Summary {
	decision := run.Result.Gate()
	s := Summary{
		RunID:           run.ID,
		Generated:       run.Generated.UTC().Format(time.RFC3339),
		ToolVersion:     run.ToolVersion,
		Overall:         decision.Overall,
		PreventChange:   decision.Threshold,
		ReportThreshold: run.Threshold(),
		Failed:          decision.Failed,
		Message:         decision.Message(),
		CurrentVersion:  run.CurrentVersion,
		NextVersion:     run.NextVersion,
		Pairs:           make([]PairSummary, 0, len(run.Result.Comparisons)),
	}

	for _, c := range run.Result.Comparisons {
		a := breaking.Assess(c, run.Policy)
		p := PairSummary{
			Old:      c.Old.Name,
			New:      c.New.Name,
			OldPath:  c.Old.Path,
			NewPath:  c.New.Path,
			Level:    a.Level,
			Changed:  c.Diff != nil,
			Deleted:  a.Report.Deleted,
			Modified: a.Report.Modified,
			Added:    a.Report.New,
		}
		for _, ch := range a.Report.Changes {
			p.Changes = append(p.Changes, ChangeSummary{
				Kind:     ch.Node.Kind,
				Element:  ch.Node.Element,
				Name:     ch.Node.Name,
				Text:     ch.Node.DisplayText(),
				Breaking: ch.Node.Breaking,
				Depth:    ch.Level,
			})
		}
		s.Deleted += p.Deleted
		s.Modified += p.Modified
		s.New += p.Added
		s.Pairs = append(s.Pairs, p)
	}
	return s
}

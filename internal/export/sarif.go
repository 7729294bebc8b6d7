package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"

	"semdiff/internal/difftree"
)

// SARIF 2.1.0 schema types
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html

// SARIFReport is the top-level SARIF document.
type SARIFReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun represents a single analysis run.
type SARIFRun struct {
	Tool              SARIFTool               `json:"tool"`
	AutomationDetails *SARIFAutomationDetails `json:"automationDetails,omitempty"`
	Results           []SARIFResult           `json:"results"`
	Invocations       []SARIFInvocation       `json:"invocations,omitempty"`
	Properties        map[string]interface{}  `json:"properties,omitempty"`
}

// SARIFAutomationDetails identifies the run.
type SARIFAutomationDetails struct {
	ID   string `json:"id,omitempty"`
	GUID string `json:"guid,omitempty"`
}

// SARIFTool describes the analysis tool.
type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

// SARIFDriver describes the primary analysis component.
type SARIFDriver struct {
	Name            string      `json:"name"`
	Version         string      `json:"version,omitempty"`
	Rules           []SARIFRule `json:"rules,omitempty"`
	SemanticVersion string      `json:"semanticVersion,omitempty"`
}

// SARIFRule describes a rule that detected an issue.
type SARIFRule struct {
	ID                   string                  `json:"id"`
	Name                 string                  `json:"name,omitempty"`
	ShortDescription     *SARIFMessage           `json:"shortDescription,omitempty"`
	DefaultConfiguration *SARIFRuleConfiguration `json:"defaultConfiguration,omitempty"`
}

// SARIFRuleConfiguration describes the default configuration for a rule.
type SARIFRuleConfiguration struct {
	Level string `json:"level,omitempty"` // error, warning, note, none
}

// SARIFResult represents a single finding.
type SARIFResult struct {
	RuleID       string                 `json:"ruleId"`
	RuleIndex    int                    `json:"ruleIndex"`
	Level        string                 `json:"level,omitempty"`
	Message      SARIFMessage           `json:"message"`
	Locations    []SARIFLocation        `json:"locations,omitempty"`
	Fingerprints map[string]string      `json:"fingerprints,omitempty"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// SARIFMessage contains text in various formats.
type SARIFMessage struct {
	Text string `json:"text,omitempty"`
}

// SARIFLocation describes where a result was found.
type SARIFLocation struct {
	PhysicalLocation *SARIFPhysicalLocation `json:"physicalLocation,omitempty"`
}

// SARIFPhysicalLocation identifies a file.
type SARIFPhysicalLocation struct {
	ArtifactLocation *SARIFArtifactLocation `json:"artifactLocation,omitempty"`
}

// SARIFArtifactLocation identifies a file.
type SARIFArtifactLocation struct {
	URI string `json:"uri,omitempty"`
}

// SARIFInvocation describes a single invocation of the tool.
type SARIFInvocation struct {
	ExecutionSuccessful bool `json:"executionSuccessful"`
}

var sarifRules = []SARIFRule{
	{ID: "semdiff/breaking-change", Name: "BreakingChange", ShortDescription: &SARIFMessage{Text: "Incompatible API change"}, DefaultConfiguration: &SARIFRuleConfiguration{Level: "error"}},
	{ID: "semdiff/removal", Name: "Removal", ShortDescription: &SARIFMessage{Text: "API element removed"}, DefaultConfiguration: &SARIFRuleConfiguration{Level: "warning"}},
	{ID: "semdiff/modification", Name: "Modification", ShortDescription: &SARIFMessage{Text: "API element modified"}, DefaultConfiguration: &SARIFRuleConfiguration{Level: "warning"}},
	{ID: "semdiff/addition", Name: "Addition", ShortDescription: &SARIFMessage{Text: "API element added"}, DefaultConfiguration: &SARIFRuleConfiguration{Level: "note"}},
}

// SARIFExporter writes selected changes as SARIF results for code-scanning
// dashboards.
type SARIFExporter struct{}

func (SARIFExporter) Format() string      { return "sarif" }
func (SARIFExporter) Description() string { return "SARIF 2.1.0 results for code scanning" }

// ExportRun implements RunExporter.
func (SARIFExporter) ExportRun(run *Run, wf *WriterFactory) error {
	data, err := json.MarshalIndent(buildSARIF(Summarize(run)), "", "  ")
	if err != nil {
		return err
	}
	return writeAll(wf, "semdiff.sarif", append(data, '\n'))
}

func buildSARIF(s Summary) SARIFReport {
	results := make([]SARIFResult, 0)
	for _, p := range s.Pairs {
		for _, ch := range p.Changes {
			idx := ruleIndexFor(ch)
			rule := sarifRules[idx]
			results = append(results, SARIFResult{
				RuleID:    rule.ID,
				RuleIndex: idx,
				Level:     rule.DefaultConfiguration.Level,
				Message:   SARIFMessage{Text: p.Old + ": " + ch.Text},
				Locations: []SARIFLocation{{
					PhysicalLocation: &SARIFPhysicalLocation{
						ArtifactLocation: &SARIFArtifactLocation{URI: filepath.ToSlash(p.NewPath)},
					},
				}},
				Fingerprints: map[string]string{"semdiff/v1": fingerprint(p.Old, ch)},
				Properties: map[string]interface{}{
					"kind":    string(ch.Kind),
					"element": string(ch.Element),
					"depth":   ch.Depth,
					"level":   p.Level.String(),
				},
			})
		}
	}

	return SARIFReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []SARIFRun{{
			Tool: SARIFTool{Driver: SARIFDriver{
				Name:            "semdiff",
				Version:         s.ToolVersion,
				SemanticVersion: s.ToolVersion,
				Rules:           sarifRules,
			}},
			AutomationDetails: &SARIFAutomationDetails{ID: "semdiff/" + s.RunID, GUID: s.RunID},
			Results:           results,
			Invocations:       []SARIFInvocation{{ExecutionSuccessful: true}},
			Properties: map[string]interface{}{
				"overall":       s.Overall.String(),
				"preventChange": s.PreventChange.String(),
				"failed":        s.Failed,
				"message":       s.Message,
			},
		}},
	}
}

func ruleIndexFor(ch ChangeSummary) int {
	switch {
	case ch.Breaking:
		return 0
	case ch.Kind == difftree.KindDeleted:
		return 1
	case ch.Kind == difftree.KindNew:
		return 3
	default:
		return 2
	}
}

func fingerprint(pair string, ch ChangeSummary) string {
	h := sha256.Sum256([]byte(pair + "\x00" + string(ch.Kind) + "\x00" + ch.Text))
	return hex.EncodeToString(h[:16])
}

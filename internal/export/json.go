package export

import (
	"semdiff/internal/output"
)

// JSONExporter writes the run summary as deterministic JSON.
type JSONExporter struct{}

func (JSONExporter) Format() string      { return "json" }
func (JSONExporter) Description() string { return "machine-readable summary of all pairs" }

// ExportRun implements RunExporter.
func (JSONExporter) ExportRun(run *Run, wf *WriterFactory) error {
	data, err := output.EncodeIndent(Summarize(run), "  ")
	if err != nil {
		return err
	}
	return writeAll(wf, "semdiff-report.json", append(data, '\n'))
}

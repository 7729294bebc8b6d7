package export

import (
	"bytes"

	"github.com/BurntSushi/toml"
)

// TOMLExporter writes the run summary as TOML.
type TOMLExporter struct{}

func (TOMLExporter) Format() string      { return "toml" }
func (TOMLExporter) Description() string { return "summary of all pairs as TOML" }

// ExportRun implements RunExporter.
func (TOMLExporter) ExportRun(run *Run, wf *WriterFactory) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(Summarize(run)); err != nil {
		return err
	}
	return writeAll(wf, "semdiff-report.toml", buf.Bytes())
}

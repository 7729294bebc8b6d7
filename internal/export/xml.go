package export

import (
	"bytes"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
)

// XMLExporter writes each raw diff tree as XML.
type XMLExporter struct{}

func (XMLExporter) Format() string      { return "xml" }
func (XMLExporter) Description() string { return "raw diff tree per artifact pair" }

// ExportPair implements PairExporter.
func (XMLExporter) ExportPair(_ *Run, c *breaking.Comparison, wf *WriterFactory) error {
	var buf bytes.Buffer
	if err := difftree.EncodeXML(&buf, c.Diff); err != nil {
		return err
	}
	return writeAll(wf, withExt(c.Old.Name, ".xml"), buf.Bytes())
}

package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
)

var changedFrom = regexp.MustCompile(`changed from (.+?) to (.+?)(\.?)$`)

// quoteChange wraps the old and new values of a "changed from X to Y" text
// in backticks unless the text already carries code spans.
func quoteChange(text string) string {
	if strings.Contains(text, "`") {
		return text
	}
	return changedFrom.ReplaceAllString(text, "changed from `$1` to `$2`$3")
}

// outlineExporter renders a per-pair outline: one heading per changed type
// and one sub-heading per changed member.
type outlineExporter struct {
	format      string
	description string
	ext         string
	title       string
	typeHead    string
	memberHead  string
	addedType   string
}

// MarkdownExporter renders a Markdown outline per artifact pair.
func MarkdownExporter() PairExporter {
	return outlineExporter{
		format:      "markdown",
		description: "Markdown outline of type and member changes per artifact pair",
		ext:         ".md",
		title:       "## API Changes: `%s`",
		typeHead:    "## ",
		memberHead:  "### ",
		addedType:   "new",
	}
}

// AsciiDocExporter renders an AsciiDoc outline per artifact pair.
func AsciiDocExporter() PairExporter {
	return outlineExporter{
		format:      "asciidoc",
		description: "AsciiDoc outline of type and member changes per artifact pair",
		ext:         ".asciidoc",
		title:       "== Breaking changes for %s",
		typeHead:    "[float]\n=== ",
		memberHead:  "[float]\n==== ",
		addedType:   "added",
	}
}

func (o outlineExporter) Format() string      { return o.format }
func (o outlineExporter) Description() string { return o.description }

// ExportPair implements PairExporter.
func (o outlineExporter) ExportPair(_ *Run, c *breaking.Comparison, wf *WriterFactory) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, o.title+"\n\n", stem(c.Old.Name))

	for _, t := range c.Diff.Children {
		switch t.Kind {
		case difftree.KindDeleted:
			fmt.Fprintf(&b, "%s`%s` is deleted\n", o.typeHead, t.Name)
		case difftree.KindNew:
			fmt.Fprintf(&b, "%s`%s` is %s\n", o.typeHead, t.Name, o.addedType)
		case difftree.KindModified:
			o.writeMembers(&b, t)
		}
	}
	return writeAll(wf, withExt(c.Old.Name, o.ext), b.Bytes())
}

func (o outlineExporter) writeMembers(b *bytes.Buffer, t *difftree.Node) {
	members := t.Differences()
	if len(members) == 0 {
		return
	}
	fmt.Fprintf(b, "%s`%s`\n", o.typeHead, t.Name)

	for _, m := range members {
		if m.Name == "" {
			fmt.Fprintln(b, quoteChange(m.DisplayText()))
			continue
		}
		switch m.Kind {
		case difftree.KindDeleted:
			fmt.Fprintf(b, "%s`%s` is deleted\n", o.memberHead, m.Name)
		case difftree.KindNew:
			fmt.Fprintf(b, "%s`%s` is added\n", o.memberHead, m.Name)
		case difftree.KindModified:
			if detail := firstDetail(m); detail != "" {
				fmt.Fprintf(b, "%s`%s`\n%s\n", o.memberHead, m.Name, quoteChange(detail))
			} else {
				fmt.Fprintf(b, "%s`%s` is modified\n", o.memberHead, m.Name)
			}
		}
	}
}

// firstDetail returns the first descriptive text below n.
func firstDetail(n *difftree.Node) string {
	var text string
	difftree.Walk(n, func(d *difftree.Node, level int) bool {
		if text != "" {
			return false
		}
		if level > difftree.RootLevel && d.Text != "" {
			text = d.Text
			return false
		}
		return true
	})
	return text
}

package export

import (
	"bytes"
	"fmt"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
)

// GitHubCommentExporter renders a pull-request comment summarising every
// pair, with collapsible per-pair change lists.
type GitHubCommentExporter struct{}

func (GitHubCommentExporter) Format() string { return "github-comment" }
func (GitHubCommentExporter) Description() string {
	return "pull request comment summarising breaking changes across all pairs"
}

// ExportRun implements RunExporter.
func (GitHubCommentExporter) ExportRun(run *Run, wf *WriterFactory) error {
	result := run.Result
	threshold := run.Threshold()
	overall := result.Overall()
	report, matched := result.Visit(run.Policy, threshold)

	var b bytes.Buffer
	if len(result.Comparisons) == 1 {
		fmt.Fprintf(&b, "## API Changes: `%s`\n", stem(result.Comparisons[0].Old.Name))
	} else {
		b.WriteString("## API Changes\n")
	}

	scanned := fmt.Sprintf("Scanned: 📑 %d artifact(s), Suggested change in version: %s", len(result.Comparisons), overall.Title())
	if run.NextVersion != "" {
		scanned += fmt.Sprintf(" (%s → %s)", run.CurrentVersion, run.NextVersion)
	}
	if len(report.Changes) > 0 {
		fmt.Fprintf(&b, "\n```diff\n%s\n- ⚠️  %d breaking change(s) detected in 📑 %d artifact(s) ⚠️\n```\n",
			scanned, len(report.Changes), matched)
	} else {
		fmt.Fprintf(&b, "\n```diff\n%s\n+ 0 breaking change(s) detected.\n```\n", scanned)
	}

	if report.Total() > 0 {
		fmt.Fprintf(&b, "\n```diff\n+ 🌟 %d new additions\n- 🔴 %d removals\n- 🔷 %d modifications\n```\n",
			report.New, report.Deleted, report.Modified)
	}

	if overall.AtLeast(threshold) {
		for _, c := range result.Comparisons {
			writePairDetails(&b, run, c)
		}
	}
	return writeAll(wf, "github-breaking-changes-comments.md", b.Bytes())
}

func writePairDetails(b *bytes.Buffer, run *Run, c *breaking.Comparison) {
	if c.Diff == nil {
		fmt.Fprintf(b, "-----\n\n<b>📑 %s\n</b> <pre><b> No public API Changes detected</pre></b>\n\n", c.Old.Name)
		return
	}

	differences := breaking.Visit(c.Diff, run.Policy).Total()
	fmt.Fprintf(b, "\n-----\n\n<details>\n<summary><b>📑 %s\n</b> <pre><b> Click here to see the %d differences </b>\n</summary>\n\n```diff\n\n",
		c.Old.Name, differences)

	difftree.Walk(c.Diff, func(n *difftree.Node, level int) bool {
		changedType := level == breaking.TypeLevel && n.Kind == difftree.KindModified
		switch {
		case n.Kind == difftree.KindDeleted:
			b.WriteString("- 🔴 ")
		case n.Kind == difftree.KindNew:
			b.WriteString("+ 🌟 ")
		case level > breaking.TypeLevel && n.Kind == difftree.KindModified:
			b.WriteString("+ 🔷 ")
		case changedType:
			b.WriteString("```\n```diff\n")
		}

		line := n.DisplayText()
		if level >= breaking.TypeLevel && !changedType && n.Breaking && !run.excluded(n) {
			line += " 💥"
		}
		b.WriteString(line + "\n")
		return true
	})
	b.WriteString("```\n</details>\n")
}

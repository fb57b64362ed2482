package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/ppiankov/truthcore/internal/model"
)

// Renderer writes reports as JSON, Markdown or a terminal summary
type Renderer struct {
	isTerminal func(w io.Writer) bool
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{isTerminal: isTerminal}
}

// RenderJSON writes the report as indented JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return r.WriteJSON(f, report)
}

// WriteJSON writes v as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(report)), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Markdown formats the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# TruthCore Report\n\n")
	fmt.Fprintf(&b, "**Claim:** %s\n\n", report.Claim)
	if report.TypedClaim != "" {
		fmt.Fprintf(&b, "**Typed claim:** %s\n\n", report.TypedClaim)
	}
	fmt.Fprintf(&b, "**Confidence:** %.2f%% (%s)\n\n", report.Score.Confidence, report.Score.Level)
	fmt.Fprintf(&b, "**Source:** %s", report.Source)
	if report.SourceURL != "" {
		fmt.Fprintf(&b, " (%s)", report.SourceURL)
	}
	b.WriteString("\n\n")

	b.WriteString("## Breakdown\n\n")
	b.WriteString("| Component | Score | Weight | Note |\n")
	b.WriteString("|---|---:|---:|---|\n")
	for _, row := range breakdownRows(report) {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row[0], row[1], row[2], row[3])
	}
	b.WriteString("\n")

	if len(report.Score.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, s := range report.Score.Signals {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", s.Type, s.Severity, s.Description)
			if formula, ok := s.Data["formula"].(string); ok {
				fmt.Fprintf(&b, "  - formula: `%s`\n", formula)
			}
		}
		b.WriteString("\n")
	}

	if len(report.Evidences) > 0 {
		b.WriteString("## Evidence\n\n")
		for i, e := range report.Evidences {
			fmt.Fprintf(&b, "%d. %s\n", i+1, e)
		}
		b.WriteString("\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\nReport %s, scored %s\n", report.ID, report.ScoredAt.Format("2006-01-02 15:04:05 MST"))
	return b.String()
}

// RenderSummary prints the confidence and breakdown. Terminals get a table,
// anything else gets plain lines.
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "Confidence: %.2f%% (%s)\n", report.Score.Confidence, report.Score.Level)

	rows := breakdownRows(report)
	if r.isTerminal(w) {
		fmt.Fprintln(w, renderTable([]string{"Component", "Score", "Weight", "Note"}, rows, []text.Align{text.AlignLeft, text.AlignRight, text.AlignRight, text.AlignLeft}))
	} else {
		for _, row := range rows {
			fmt.Fprintf(w, "%s: %s (weight %s) - %s\n", row[0], row[1], row[2], row[3])
		}
	}

	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

// BatchResult pairs a batch entry with its outcome
type BatchResult struct {
	Index  int
	Claim  string
	Report *model.Report
	Err    error
}

// RenderBatchSummary prints one line per batch entry
func (r *Renderer) RenderBatchSummary(w io.Writer, results []BatchResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		claim := truncate(res.Claim, 60)
		if res.Err != nil {
			rows = append(rows, []string{fmt.Sprint(res.Index + 1), claim, "-", "error: " + res.Err.Error()})
			continue
		}
		rows = append(rows, []string{
			fmt.Sprint(res.Index + 1),
			claim,
			fmt.Sprintf("%.2f", res.Report.Score.Confidence),
			res.Report.Score.Level,
		})
	}

	if r.isTerminal(w) {
		fmt.Fprintln(w, renderTable([]string{"#", "Claim", "Confidence", "Level"}, rows, []text.Align{text.AlignRight, text.AlignLeft, text.AlignRight, text.AlignLeft}))
		return
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

// breakdownRows pairs each sub-score with its weight and static label
func breakdownRows(report *model.Report) [][]string {
	sub := report.Score.SubScores
	wt := report.Score.Weights
	values := []struct{ score, weight float64 }{
		{sub.Lineage, wt.Lineage},
		{sub.Consistency, wt.Consistency},
		{sub.Reliability, wt.Reliability},
		{sub.Manipulation, wt.Manipulation},
	}

	breakdown := report.Breakdown
	if len(breakdown) == 0 {
		breakdown = model.DefaultBreakdown()
	}

	rows := make([][]string, 0, len(values))
	for i, v := range values {
		name, label := "", ""
		if i < len(breakdown) {
			name, label = breakdown[i].Name, breakdown[i].Label
		}
		rows = append(rows, []string{name, fmt.Sprintf("%.2f", v.score), fmt.Sprintf("%.2f", v.weight), label})
	}
	return rows
}

func renderTable(headers []string, rows [][]string, aligns []text.Align) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) {
			align = aligns[i]
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

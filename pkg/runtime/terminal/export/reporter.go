package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/de-tools/governance-atlas/pkg/services/assessment"
	"github.com/de-tools/governance-atlas/pkg/services/checks"
	"github.com/de-tools/governance-atlas/pkg/services/delta"
)

type TableConfig struct {
	NameWidth   int
	ScopeWidth  int
	ColumnWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:   36,
		ScopeWidth:  32,
		ColumnWidth: 12,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

// JSON writes v indented, for piping into other tools.
func (c *Reporter) JSON(v any) error {
	enc := json.NewEncoder(c.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func (c *Reporter) funcs() template.FuncMap {
	return template.FuncMap{
		"cell": func(width int, v any) string {
			return fmt.Sprintf("%-*s", width, truncate(fmt.Sprint(v), width))
		},
		"separator": func(widths ...int) string {
			var b strings.Builder
			b.WriteString("+")
			for _, w := range widths {
				b.WriteString(strings.Repeat("-", w+2))
				b.WriteString("+")
			}
			return b.String()
		},
		"percent": func(f float64) string {
			return fmt.Sprintf("%.1f%%", f*100)
		},
		"score": func(f float64) string {
			return fmt.Sprintf("%.3f", f)
		},
		"date": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04")
		},
		"join": strings.Join,
		"w": func(name string) int {
			switch name {
			case "name":
				return c.config.NameWidth
			case "scope":
				return c.config.ScopeWidth
			default:
				return c.config.ColumnWidth
			}
		},
	}
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

func (c *Reporter) render(name, tmpl string, data any) error {
	t, err := template.New(name).Funcs(c.funcs()).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	if err := t.Execute(c.writer, data); err != nil {
		return fmt.Errorf("failed to render %s report: %w", name, err)
	}
	return nil
}

const classificationTmpl = `
Impact classification ({{len .}} assignments)

{{separator (w "name") (w "scope") (w "") (w "") (w "") (w "") (w "")}}
| {{cell (w "name") "Assignment"}} | {{cell (w "scope") "Scope"}} | {{cell (w "") "Effect"}} | {{cell (w "") "Security"}} | {{cell (w "") "Cost"}} | {{cell (w "") "Compliance"}} | {{cell (w "") "Risk"}} |
{{separator (w "name") (w "scope") (w "") (w "") (w "") (w "") (w "")}}
{{range .}}| {{cell (w "name") .Record.DisplayName}} | {{cell (w "scope") .Record.Scope}} | {{cell (w "") .Record.Effect}} | {{cell (w "") .Score.SecurityImpact}} | {{cell (w "") .Score.CostImpact}} | {{cell (w "") .Score.ComplianceImpact}} | {{cell (w "") .Score.RiskLevel}} |
{{end}}{{separator (w "name") (w "scope") (w "") (w "") (w "") (w "") (w "")}}
{{range .}}{{if .Score.Recommendation}}- {{.Record.DisplayName}}: {{.Score.Recommendation}}
{{end}}{{end}}`

func (c *Reporter) Classification(items []domain.ScoredAssignment) error {
	return c.render("classification", classificationTmpl, items)
}

type assessmentView struct {
	Snapshot   domain.Snapshot
	Score      domain.PostureScore
	Compliance []complianceView
	Tests      checks.Result
	Counts     string
}

type complianceView struct {
	Name     string
	Summary  string
	Coverage float64
	Missing  []string
}

const assessmentTmpl = `
Governance assessment{{if .Snapshot.ID}} {{.Snapshot.ID}}{{end}}
Source: {{date .Snapshot.SourceTimestamp}}
Assignments: {{len .Snapshot.Assignments}}  Exemptions: {{len .Snapshot.Exemptions}}
Posture: {{score .Score.Composite}} (enforcement {{percent .Score.EnforcementRate}}, compliance {{percent .Score.ComplianceRate}}, risk coverage {{percent .Score.RiskCoverage}})
{{if .Compliance}}
=== Control groups ===
{{range .Compliance}}{{.Name}}: {{.Summary}} ({{percent .Coverage}}){{if .Missing}}
  missing: {{join .Missing ", "}}{{end}}
{{end}}{{end}}
=== Framework checks ===
{{range .Tests.Framework}}[{{cell 6 .Status}}] {{.ID}} {{.Name}}
         {{.Detail}}
{{end}}
=== Test cases ===
{{range .Tests.Cases}}[{{cell 6 .Status}}] {{.ID}} {{.Name}} ({{.Detail}})
{{range .Subtests}}  [{{cell 6 .Status}}] {{.ID}} {{.Name}}
           {{.Detail}}
{{end}}{{end}}
Totals: {{.Counts}}
`

func (c *Reporter) Assessment(result assessment.Result) error {
	view := assessmentView{
		Snapshot: result.Snapshot,
		Score:    delta.CompositeScore(result.Snapshot),
		Tests:    result.Tests,
		Counts:   formatCounts(result.Tests.Counts()),
	}
	for _, gc := range result.Compliance {
		s := gc.Summary()
		cv := complianceView{
			Name:     gc.Group.Name,
			Summary:  fmt.Sprintf("%d/%d enforced, %d not enforced, %d missing", s.Enforced, s.Total, s.NotEnforced, s.Missing),
			Coverage: s.Coverage(),
		}
		for _, st := range gc.Statuses {
			if st.State == domain.ComplianceMissing {
				cv.Missing = append(cv.Missing, st.Control)
			}
		}
		view.Compliance = append(view.Compliance, cv)
	}

	return c.render("assessment", assessmentTmpl, view)
}

func formatCounts(counts map[domain.TestStatus]int) string {
	var parts []string
	for _, st := range []domain.TestStatus{domain.TestPass, domain.TestFail, domain.TestWarn, domain.TestManual, domain.TestSkip} {
		parts = append(parts, fmt.Sprintf("%s=%d", st, counts[st]))
	}
	return strings.Join(parts, " ")
}

const snapshotsTmpl = `
{{separator 36 16 16 (w "") (w "") (w "")}}
| {{cell 36 "Snapshot"}} | {{cell 16 "Source"}} | {{cell 16 "Recorded"}} | {{cell (w "") "Assignments"}} | {{cell (w "") "Exemptions"}} | {{cell (w "") "Tests"}} |
{{separator 36 16 16 (w "") (w "") (w "")}}
{{range .}}| {{cell 36 .ID}} | {{cell 16 (date .SourceTimestamp)}} | {{cell 16 (date .CreatedAt)}} | {{cell (w "") .AssignmentCount}} | {{cell (w "") .ExemptionCount}} | {{cell (w "") .TestCount}} |
{{end}}{{separator 36 16 16 (w "") (w "") (w "")}}
`

func (c *Reporter) Snapshots(headers []store.SnapshotHeader) error {
	if len(headers) == 0 {
		_, err := fmt.Fprintln(c.writer, "No snapshots recorded.")
		return err
	}
	return c.render("snapshots", snapshotsTmpl, headers)
}

const deltaTmpl = `
Posture delta {{date .PreviousTimestamp}} -> {{date .CurrentTimestamp}}
Trend: {{.Trend}} (composite {{score .PreviousScore.Composite}} -> {{score .CurrentScore.Composite}})
{{if .EffectShifts}}Effect shifts: {{.EffectShifts}}
{{end}}{{if .NewAssignments}}
=== New assignments ===
{{range .NewAssignments}}+ {{.Record.DisplayName}} [{{.Record.Scope}}] {{.Record.Effect}}
{{end}}{{end}}{{if .RemovedAssignments}}
=== Removed assignments ===
{{range .RemovedAssignments}}- {{.Record.DisplayName}} [{{.Record.Scope}}] {{.Record.Effect}}
{{end}}{{end}}{{if .ChangedAssignments}}
=== Changed assignments ===
{{range .ChangedAssignments}}~ {{.Name}} [{{.Scope}}]
{{range .Changes}}    {{.Field}}: {{.Previous}} -> {{.Current}}
{{end}}{{end}}{{end}}{{if .Exemptions.New}}
=== New exemptions ===
{{range .Exemptions.New}}+ {{.DisplayName}} [{{.Scope}}] {{.Category}}
{{end}}{{end}}{{if .Exemptions.Removed}}
=== Removed exemptions ===
{{range .Exemptions.Removed}}- {{.DisplayName}} [{{.Scope}}] {{.Category}}
{{end}}{{end}}`

func (c *Reporter) Delta(report domain.DeltaReport) error {
	return c.render("delta", deltaTmpl, report)
}

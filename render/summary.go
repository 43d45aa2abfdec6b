package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/initializ/envpipe/plan"
)

var (
	accent      = lipgloss.Color("#f97316")
	secondary   = lipgloss.Color("#888888")
	border      = lipgloss.Color("#2a2a3a")
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	keyStyle    = lipgloss.NewStyle().Foreground(secondary)
	valueStyle  = lipgloss.NewStyle()
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1)
)

const summaryWidth = 72

// row is a key/value pair in the summary box.
type row struct {
	Key   string
	Value string
}

// Summary renders a bordered overview of a plan: the pipeline, its shared
// resources, and one line per environment stage with its actions.
func Summary(p *plan.Pipeline) string {
	rows := []row{
		{"pipeline", p.ID},
		{"variant", p.Variant},
		{"source", sourceLine(p.Source)},
	}
	if p.Notifications != nil {
		rows = append(rows, row{"notifications", p.Notifications.Topic.Resource})
	}

	counts := p.Counts()
	var kinds []string
	for _, k := range plan.SortedKinds(counts) {
		kinds = append(kinds, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	rows = append(rows, row{"resources", strings.Join(kinds, " ")})

	for i, s := range p.Stages {
		rows = append(rows, row{fmt.Sprintf("stage %d", i+1), stageLine(s)})
	}

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s  %s\n", keyStyle.Width(14).Render(r.Key), valueStyle.Render(r.Value))
	}

	title := titleStyle.Render(p.Name)
	box := borderStyle.Width(summaryWidth).Render(strings.TrimRight(b.String(), "\n"))
	return title + "\n" + box + "\n"
}

func sourceLine(s plan.Stage) string {
	for _, a := range s.Actions {
		if a.Source != nil {
			return fmt.Sprintf("%s <- %s/%s", a.Source.Output, a.Source.Store.Resource, a.Source.Key)
		}
	}
	return "-"
}

func stageLine(s plan.Stage) string {
	names := make([]string, len(s.Actions))
	for i, a := range s.Actions {
		names[i] = a.Name
	}
	return s.Name + ": " + strings.Join(names, " -> ")
}

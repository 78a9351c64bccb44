package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fluxpost/internal/dose"
	"fluxpost/internal/spectrum"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	totalStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
)

// summaryTable is a minimal fixed-layout table for static report data.
type summaryTable struct {
	title   string
	headers []string
	rows    [][]string
}

func (t *summaryTable) add(row ...string) { t.rows = append(t.rows, row) }

func (t *summaryTable) render() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(titleStyle.Render(t.title))
		sb.WriteString("\n")
	}
	for i, h := range t.headers {
		sb.WriteString(headerStyle.Render(pad(h, widths[i])))
		if i < len(t.headers)-1 {
			sb.WriteString("  ")
		}
	}
	sb.WriteString("\n")
	for _, row := range t.rows {
		for i, cell := range row {
			sb.WriteString(pad(cell, widths[i]))
			if i < len(row)-1 {
				sb.WriteString("  ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func pad(s string, w int) string {
	if d := w - lipgloss.Width(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

// Styled renders the terminal summary with lipgloss. Content mirrors Text;
// only presentation differs.
func Styled(s *spectrum.Spectrum, r *dose.Report) string {
	var sb strings.Builder

	for _, w := range collectWarnings(s, r) {
		sb.WriteString(warnStyle.Render("warning: " + w))
		sb.WriteString("\n")
	}

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Detector %s — %d energy bins", s.Detector, len(s.Bins))))
	sb.WriteString(fmt.Sprintf("\nNormalization "+fmtE+" (from %s)\n\n", s.Norm.Factor, s.Norm.Source))

	flux := &summaryTable{title: "Flux by energy region", headers: []string{"region", "flux [n/cm2/s]", "share"}}
	flux.add("thermal", num(s.Regions.Thermal), share(s.Regions.Thermal, s.Total))
	flux.add("epithermal", num(s.Regions.Epithermal), share(s.Regions.Epithermal, s.Total))
	flux.add("fast", num(s.Regions.Fast), share(s.Regions.Fast, s.Total))
	flux.add(totalStyle.Render("total"), totalStyle.Render(num(s.Total)), "")
	sb.WriteString(flux.render())
	sb.WriteString("\n")

	dt := &summaryTable{title: "Dose rate", headers: []string{"region", "dose [rem/h]"}}
	dt.add("thermal", num(r.Thermal))
	dt.add("epithermal", num(r.Epithermal))
	dt.add("fast", num(r.Fast))
	dt.add(totalStyle.Render("total"), totalStyle.Render(num(r.Total)))
	sb.WriteString(dt.render())
	sb.WriteString("\n")

	top := &summaryTable{title: "Top dose contributors", headers: []string{"bin", "E_mid [MeV]", "dose [rem/h]", "share"}}
	for i, c := range r.TopContributors {
		if i >= TopN {
			break
		}
		top.add(fmt.Sprintf("%d", c.Bin), num(c.Energy), num(c.DoseRate), share(c.DoseRate, r.Total))
	}
	sb.WriteString(top.render())

	return sb.String()
}

func share(part, total float64) string {
	if total == 0 || math.IsNaN(part) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", 100*part/total)
}

package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ChartSpec names a chart kind plus the result columns supplying labels and
// values. Specs reach rendering only after validation against the result.
type ChartSpec struct {
	Kind        string
	LabelColumn string
	ValueColumn string
}

// ChartProjection is a render-ready series: labels and values aligned by
// row, in result order.
type ChartProjection struct {
	Kind   string
	Series string // value column name, shown as the series label
	Labels []interface{}
	Values []interface{}
}

// ProjectChart maps a validated spec across the result rows, preserving row
// order. Labels and Values always hold exactly one entry per result row.
func ProjectChart(result *QueryResult, spec ChartSpec) *ChartProjection {
	proj := &ChartProjection{
		Kind:   spec.Kind,
		Series: spec.ValueColumn,
		Labels: make([]interface{}, 0, result.Len()),
		Values: make([]interface{}, 0, result.Len()),
	}
	for _, row := range result.Rows {
		proj.Labels = append(proj.Labels, row[spec.LabelColumn])
		proj.Values = append(proj.Values, row[spec.ValueColumn])
	}
	return proj
}

var chartPalette = []lipgloss.Color{
	lipgloss.Color("33"),  // Blue
	lipgloss.Color("201"), // Magenta
	lipgloss.Color("82"),  // Green
	lipgloss.Color("226"), // Yellow
	lipgloss.Color("214"), // Orange
	lipgloss.Color("196"), // Red
}

// RenderChart draws a projection as terminal art. Bar is the fallback for
// kinds without a dedicated renderer.
func RenderChart(proj *ChartProjection, width int) string {
	if proj == nil || len(proj.Values) == 0 {
		return ""
	}
	if width < 10 {
		width = 10
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	title := titleStyle.Render(fmt.Sprintf("%s (%s chart)", proj.Series, proj.Kind))

	var body string
	switch proj.Kind {
	case "line":
		body = renderLineChart(proj, width)
	case "pie", "doughnut":
		body = renderShareChart(proj, width)
	default:
		body = renderBarChart(proj, width)
	}
	return title + "\n" + body
}

// renderBarChart draws one horizontal bar per row, scaled to the largest
// value.
func renderBarChart(proj *ChartProjection, width int) string {
	labels, labelWidth := chartLabels(proj)

	max := 0.0
	for _, v := range proj.Values {
		if f, ok := toFloat(v); ok && f > max {
			max = f
		}
	}

	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	var sb strings.Builder
	for i, v := range proj.Values {
		f, ok := toFloat(v)
		if !ok {
			f = 0
		}

		filledWidth := 0
		if max > 0 && f > 0 {
			filledWidth = int((f / max) * float64(width))
		}
		if filledWidth > width {
			filledWidth = width
		}

		barStyle := lipgloss.NewStyle().Foreground(chartPalette[i%len(chartPalette)])
		fmt.Fprintf(&sb, "%-*s %s%s %s\n",
			labelWidth, labels[i],
			barStyle.Render(strings.Repeat("█", filledWidth)),
			emptyStyle.Render(strings.Repeat("░", width-filledWidth)),
			formatValue(v),
		)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderLineChart draws the series as a sparkline with a range legend.
func renderLineChart(proj *ChartProjection, width int) string {
	values := make([]float64, 0, len(proj.Values))
	for _, v := range proj.Values {
		if f, ok := toFloat(v); ok {
			values = append(values, f)
		}
	}
	if len(values) == 0 {
		return renderBarChart(proj, width)
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	var spark strings.Builder
	for _, v := range values {
		idx := len(chars) / 2
		if max != min {
			idx = int(((v - min) / (max - min)) * float64(len(chars)-1))
		}
		spark.WriteRune(chars[idx])
	}

	lineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	legendStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	first := formatValue(proj.Labels[0])
	last := formatValue(proj.Labels[len(proj.Labels)-1])
	legend := legendStyle.Render(fmt.Sprintf("%s .. %s   min %s   max %s",
		first, last,
		strconv.FormatFloat(min, 'f', -1, 64),
		strconv.FormatFloat(max, 'f', -1, 64)))

	return lineStyle.Render(spark.String()) + "\n" + legend
}

// renderShareChart draws pie and doughnut suggestions as a stacked share
// bar with a per-slice legend.
func renderShareChart(proj *ChartProjection, width int) string {
	labels, labelWidth := chartLabels(proj)

	total := 0.0
	for _, v := range proj.Values {
		if f, ok := toFloat(v); ok && f > 0 {
			total += f
		}
	}
	if total == 0 {
		return renderBarChart(proj, width)
	}

	var bar strings.Builder
	remaining := width
	for i, v := range proj.Values {
		f, ok := toFloat(v)
		if !ok || f <= 0 {
			continue
		}
		segWidth := int(math.Round((f / total) * float64(width)))
		if i == len(proj.Values)-1 || segWidth > remaining {
			segWidth = remaining
		}
		style := lipgloss.NewStyle().Foreground(chartPalette[i%len(chartPalette)])
		bar.WriteString(style.Render(strings.Repeat("█", segWidth)))
		remaining -= segWidth
	}

	var sb strings.Builder
	sb.WriteString(bar.String())
	sb.WriteString("\n")
	for i, v := range proj.Values {
		f, ok := toFloat(v)
		if !ok {
			f = 0
		}
		share := 0.0
		if f > 0 {
			share = (f / total) * 100
		}
		style := lipgloss.NewStyle().Foreground(chartPalette[i%len(chartPalette)])
		fmt.Fprintf(&sb, "%s %-*s %5.1f%%  %s\n",
			style.Render("■"), labelWidth, labels[i], share, formatValue(v))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// chartLabels renders every label and returns them with the padding width.
func chartLabels(proj *ChartProjection) ([]string, int) {
	labels := make([]string, len(proj.Labels))
	labelWidth := 0
	for i, l := range proj.Labels {
		labels[i] = truncateString(formatValue(l), 24)
		if len(labels[i]) > labelWidth {
			labelWidth = len(labels[i])
		}
	}
	return labels, labelWidth
}

// toFloat converts a scan value to float64 for charting.
func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// formatValue renders a scan value for display. Floats print without
// trailing zeros so 29.0 shows as 29 and 1234.5 stays 1234.5.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

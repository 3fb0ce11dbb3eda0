package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
	// Color and Style pick a palette entry and line style by name. Empty
	// values cycle through the palette by series index.
	Color string
	Style string
}

// PlotOptions controls plot geometry and scaling.
type PlotOptions struct {
	// Width is the number of plot columns; 0 fits the terminal.
	Width int
	// Height is the number of text rows; 0 uses the default.
	Height int
	// Color forces ANSI colour even when the writer is not a terminal.
	Color bool
	// SharedScale draws every series against one value axis and aligns them
	// by sample index, so a shorter series ends early instead of being
	// stretched across the full width.
	SharedScale bool
}

type valueRange struct {
	min float64
	max float64
}

type lineStyle struct {
	name   string
	period int
	on     int
}

type ansiColor struct {
	name string
	code string
}

// Palette colour names accepted by Series.Color.
const (
	ColorCyan    = "cyan"
	ColorMagenta = "magenta"
	ColorYellow  = "yellow"
	ColorGreen   = "green"
	ColorBlue    = "blue"
	ColorRed     = "red"
)

// Line style names accepted by Series.Style.
const (
	StyleSolid   = "solid"
	StyleDashed  = "dashed"
	StyleDotted  = "dotted"
	StyleDashDot = "dashdot"
)

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 6
	axisSeparator       = " │ "
	perSeriesNote       = "Scaled per series; see min/max below."
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: StyleSolid, period: 1, on: 1},
	{name: StyleDashed, period: 6, on: 3},
	{name: StyleDotted, period: 4, on: 1},
	{name: StyleDashDot, period: 8, on: 3},
}

var colorPalette = []ansiColor{
	{name: ColorCyan, code: "\x1b[36m"},
	{name: ColorMagenta, code: "\x1b[35m"},
	{name: ColorYellow, code: "\x1b[33m"},
	{name: ColorGreen, code: "\x1b[32m"},
	{name: ColorBlue, code: "\x1b[34m"},
	{name: ColorRed, code: "\x1b[31m"},
}

// PlotSeries renders a braille line plot of series.
func PlotSeries(w io.Writer, title string, series []Series, opts PlotOptions) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}
	maxLen := maxSeriesLen(series)

	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := opts.Width
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	scaled := make([]Series, 0, len(series))
	for _, s := range series {
		cols := width
		if opts.SharedScale {
			cols = alignedColumns(len(s.Values), maxLen, width)
		}
		s.Values = resampleSeries(s.Values, cols)
		scaled = append(scaled, s)
	}

	ranges := make([]valueRange, len(scaled))
	if opts.SharedScale {
		shared := widenFlat(sharedRange(scaled))
		for i := range ranges {
			ranges[i] = shared
		}
	} else {
		for i, s := range scaled {
			lo, hi := seriesMinMaxSingle(s.Values)
			ranges[i] = widenFlat(valueRange{min: lo, max: hi})
		}
	}

	seriesCells := make([][][]uint8, len(scaled))
	for si, s := range scaled {
		seriesCells[si] = makeCells(height, width)
		style := styleFor(s, si)
		prevX, prevY := -1, -1
		for x, v := range s.Values {
			py := valueToRow(v, ranges[si].min, ranges[si].max, height*4)
			px := x * 2
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if style.shouldPlot(dx) {
						setBrailleDot(seriesCells[si], dx, dy)
					}
				})
			} else if style.shouldPlot(px) {
				setBrailleDot(seriesCells[si], px, py)
			}
			prevX, prevY = px, py
		}
	}

	useColor := shouldUseColor(w, opts.Color)
	var axisLabels []string
	if opts.SharedScale {
		axisLabels = makeValueLabels(height, ranges[0])
	} else {
		axisLabels = makePercentLabels(height)
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	if opts.SharedScale {
		if _, err := fmt.Fprintf(w, "Shared scale: min=%.3g max=%.3g\n", ranges[0].min, ranges[0].max); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(w, perSeriesNote); err != nil {
			return err
		}
		for i, s := range scaled {
			if _, err := fmt.Fprintf(w, "%s: min=%.2f max=%.2f\n", s.Name, ranges[i].min, ranges[i].max); err != nil {
				return err
			}
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, axisLabels[y], axisSeparator))
		for x := 0; x < width; x++ {
			mask, owner := composeCell(seriesCells, x, y)
			ch := brailleFromMask(mask)
			if useColor && owner >= 0 {
				row.WriteString(colorFor(scaled[owner], owner).code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderLegend(scaled, useColor)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func maxSeriesLen(series []Series) int {
	maxLen := 0
	for _, s := range series {
		if len(s.Values) > maxLen {
			maxLen = len(s.Values)
		}
	}
	return maxLen
}

// alignedColumns is the share of width covered by a series of n samples when
// the longest series has maxLen samples.
func alignedColumns(n, maxLen, width int) int {
	if maxLen <= 1 || n >= maxLen {
		return width
	}
	cols := int(math.Ceil(float64(width) * float64(n-1) / float64(maxLen-1)))
	return max(1, min(cols+1, width))
}

func sharedRange(series []Series) valueRange {
	r := valueRange{min: math.Inf(1), max: math.Inf(-1)}
	for _, s := range series {
		lo, hi := seriesMinMaxSingle(s.Values)
		r.min = math.Min(r.min, lo)
		r.max = math.Max(r.max, hi)
	}
	return r
}

func widenFlat(r valueRange) valueRange {
	if math.Abs(r.max-r.min) < 1e-9 {
		r.min--
		r.max++
	}
	return r
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - axisLabelWidth - runewidth.StringWidth(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makePercentLabels(height int) []string {
	return placeLabels(height, "100%", "50%", "0%")
}

func makeValueLabels(height int, r valueRange) []string {
	return placeLabels(height,
		axisValue(r.max), axisValue((r.min+r.max)/2), axisValue(r.min))
}

func placeLabels(height int, top, mid, bottom string) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = top
	if height > 2 {
		labels[height/2] = mid
	}
	if height > 1 {
		labels[height-1] = bottom
	}
	return labels
}

func axisValue(v float64) string {
	s := fmt.Sprintf("%.3g", v)
	if len(s) > axisLabelWidth {
		s = fmt.Sprintf("%.0e", v)
	}
	return s
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

// composeCell merges the dots of every series in a cell and reports the
// first series that owns a dot there.
func composeCell(seriesCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, cells := range seriesCells {
		if y < 0 || y >= len(cells) {
			continue
		}
		if x < 0 || x >= len(cells[y]) {
			continue
		}
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if owner == -1 {
			owner = i
		}
		mask |= cellMask
	}
	return mask, owner
}

func styleFor(s Series, idx int) lineStyle {
	for _, ls := range lineStyles {
		if ls.name == s.Style {
			return ls
		}
	}
	return lineStyles[idx%len(lineStyles)]
}

func colorFor(s Series, idx int) ansiColor {
	for _, c := range colorPalette {
		if c.name == s.Color {
			return c
		}
	}
	return colorPalette[idx%len(colorPalette)]
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) == width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	if len(values) > width {
		for i := 0; i < width; i++ {
			start := int(float64(i) * float64(len(values)) / float64(width))
			end := int(float64(i+1) * float64(len(values)) / float64(width))
			if end <= start {
				end = start + 1
			}
			if end > len(values) {
				end = len(values)
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
		return out
	}
	if width == 1 {
		out[0] = values[0]
		return out
	}
	if len(values) == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	for i := 0; i < width; i++ {
		pos := float64(i) * float64(len(values)-1) / float64(width-1)
		idx := int(math.Floor(pos))
		if idx >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx]*(1-frac) + values[idx+1]*frac
	}
	return out
}

func seriesMinMaxSingle(values []float64) (float64, float64) {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.IsInf(minVal, 1) {
		minVal = 0
	}
	if math.IsInf(maxVal, -1) {
		maxVal = 0
	}
	return minVal, maxVal
}

// valueToRow maps v onto dot rows, row 0 at the top.
func valueToRow(v, minVal, maxVal float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	return max(0, min(row, rows-1))
}

// renderLegend lists each distinct (name, colour, style) once.
func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	seen := make(map[string]bool, len(series))
	marker := brailleFromMask(0x01)
	for i, s := range series {
		style := styleFor(s, i)
		color := colorFor(s, i)
		key := s.Name + "\x00" + color.name + "\x00" + style.name
		if seen[key] {
			continue
		}
		seen[key] = true
		label := fmt.Sprintf("%c %s (%s)", marker, s.Name, style.name)
		if useColor {
			label = color.code + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask returns the Unicode braille bit for a dot at (x, y) within a
// 2x4 cell.
func brailleDotMask(x, y int) uint8 {
	masks := [2][4]uint8{
		{0x01, 0x02, 0x04, 0x40},
		{0x08, 0x10, 0x20, 0x80},
	}
	if x < 0 || x > 1 || y < 0 || y > 3 {
		return 0
	}
	return masks[x][y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
	"gonum.org/v1/gonum/stat"
)

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisSeparator       = " │ "
	axisLabelWidth      = 3
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	dotsPerRow          = 4
	dotsPerCol          = 2
)

const (
	colorGood    = "\x1b[32m"
	colorWarning = "\x1b[33m"
	colorError   = "\x1b[31m"
	colorGuide   = "\x1b[90m"
)

// guides are the band boundaries drawn as dotted rows.
var guides = []float64{90, 70}

// PlotScores renders form scores on a fixed 0-100 braille plot with the
// good and warning boundaries marked. Cells are coloured by band when the
// writer is a terminal or forceColor is set.
func PlotScores(w io.Writer, title string, scores []float64, width, height int, forceColor bool) error {
	if len(scores) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	values := resampleSeries(scores, width*dotsPerCol)
	dotRows := height * dotsPerRow
	cells := makeCells(height, width)
	cellScore := make([][]float64, height)
	for y := range cellScore {
		cellScore[y] = make([]float64, width)
	}

	prevX, prevY := -1, -1
	for x, v := range values {
		y := scoreToDot(v, dotRows)
		plot := func(dx, dy int) {
			setBrailleDot(cells, dx, dy)
			if cy, cx := dy/dotsPerRow, dx/dotsPerCol; cy < height && cx < width {
				cellScore[cy][cx] = v
			}
		}
		if prevX >= 0 {
			drawLine(prevX, prevY, x, y, plot)
		} else {
			plot(x, y)
		}
		prevX, prevY = x, y
	}

	guideRows := map[int]float64{}
	for _, g := range guides {
		guideRows[scoreToDot(g, dotRows)/dotsPerRow] = g
	}

	useColor := shouldUseColor(w, forceColor)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, rowLabel(y, height, guideRows), axisSeparator))
		_, isGuide := guideRows[y]
		for x := 0; x < width; x++ {
			mask := cells[y][x]
			if mask == 0 {
				if isGuide && x%2 == 0 {
					row.WriteString(paint("·", colorGuide, useColor))
				} else {
					row.WriteRune(brailleFromMask(0))
				}
				continue
			}
			row.WriteString(paint(string(brailleFromMask(mask)), bandColor(cellScore[y][x]), useColor))
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Legend: good >= 90, warning >= 70 (%d samples)\n\n", len(scores)); err != nil {
		return err
	}
	return nil
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - axisLabelWidth - utf8.RuneCountInString(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func rowLabel(y, height int, guideRows map[int]float64) string {
	switch {
	case y == 0:
		return "100"
	case y == height-1:
		return "0"
	}
	if g, ok := guideRows[y]; ok {
		return fmt.Sprintf("%.0f", g)
	}
	return ""
}

func scoreToDot(v float64, dotRows int) int {
	v = math.Max(0, math.Min(100, v))
	row := int(math.Round((1 - v/100) * float64(dotRows-1)))
	if row < 0 {
		row = 0
	}
	if row >= dotRows {
		row = dotRows - 1
	}
	return row
}

func bandColor(score float64) string {
	switch {
	case score >= 90:
		return colorGood
	case score >= 70:
		return colorWarning
	default:
		return colorError
	}
}

func paint(s, color string, useColor bool) string {
	if !useColor {
		return s
	}
	return color + s + colorReset
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

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

// resampleSeries averages down or linearly interpolates up to n points.
func resampleSeries(values []float64, n int) []float64 {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	out := make([]float64, n)
	switch {
	case len(values) == n:
		copy(out, values)
	case len(values) > n:
		for i := 0; i < n; i++ {
			start := i * len(values) / n
			end := (i + 1) * len(values) / n
			if end <= start {
				end = start + 1
			}
			out[i] = stat.Mean(values[start:end], nil)
		}
	case len(values) == 1 || n == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := 0; i < n; i++ {
			pos := float64(i) * float64(len(values)-1) / float64(n-1)
			idx := int(pos)
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// drawLine walks a Bresenham line between two dot coordinates.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cy, cx := y/dotsPerRow, x/dotsPerCol
	if cy >= len(cells) || cx >= len(cells[cy]) {
		return
	}
	cells[cy][cx] |= brailleDotMask(x%dotsPerCol, y%dotsPerRow)
}

// brailleDotMask maps a dot inside a 2x4 cell to its Unicode bit.
func brailleDotMask(x, y int) uint8 {
	left := [dotsPerRow]uint8{0x01, 0x02, 0x04, 0x40}
	right := [dotsPerRow]uint8{0x08, 0x10, 0x20, 0x80}
	if x == 0 {
		return left[y]
	}
	return right[y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

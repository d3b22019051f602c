package vtable

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Styles groups every style the renderer paints with.
type Styles struct {
	Header    lipgloss.Style
	Cell      lipgloss.Style
	AltRow    lipgloss.Style
	Hover     lipgloss.Style
	Moving    lipgloss.Style // applied over rows while scrolling
	Separator lipgloss.Style
	Track     lipgloss.Style
	Thumb     lipgloss.Style
}

// DefaultStyles mirrors a light-touch table: bold header, zebra rows, faint
// rows in motion.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8")),
		Cell:      lipgloss.NewStyle(),
		AltRow:    lipgloss.NewStyle().Background(lipgloss.Color("235")),
		Hover:     lipgloss.NewStyle().Background(lipgloss.Color("4")).Foreground(lipgloss.Color("15")),
		Moving:    lipgloss.NewStyle().Faint(true),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		Track:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Thumb:     lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	}
}

// Renderer draws windowed rows into terminal lines. RowHeight is the row
// pitch in lines; rows taller than one line get a separator on their last
// line, except the final row of the collection.
type Renderer struct {
	Columns   []Column
	Styles    Styles
	RowHeight int
	Gap       int
	Zebra     bool
}

// NewRenderer returns a renderer with default styles and one-line rows.
func NewRenderer(cols []Column) *Renderer {
	return &Renderer{
		Columns:   cols,
		Styles:    DefaultStyles(),
		RowHeight: 1,
		Gap:       1,
		Zebra:     true,
	}
}

// Widths lays the columns out on a track of the given width, leaving room
// for the gaps between them.
func (r *Renderer) Widths(track int, mode LayoutMode) []int {
	gaps := r.Gap * max(len(r.Columns)-1, 0)
	return Layout(r.Columns, track-gaps, mode)
}

// LineWidth is the full width of a row laid out with widths.
func (r *Renderer) LineWidth(widths []int) int {
	n := r.Gap * max(len(widths)-1, 0)
	for _, w := range widths {
		n += w
	}
	return n
}

// Header renders the sticky header line, horizontally scrolled by scrollX and
// cut to track cells.
func (r *Renderer) Header(widths []int, scrollX, track int) string {
	labels := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		labels[i] = c.Label
	}
	line := r.join(widths, func(i int) (string, lipgloss.Style) {
		return labels[i], r.Styles.Header
	}, r.Styles.Header)
	return padRight(viewportCut(line, scrollX, track), track, r.Styles.Header)
}

// Body renders viewport lines of the frame. Each content line y shows the
// track position ScrollTop+y; the materialized block starts at OffsetY, so a
// row is only drawn if the window holds it. hover is an absolute row index,
// or -1; it is ignored while the frame is scrolling.
func (r *Renderer) Body(f Frame[Row], widths []int, viewport, scrollX, track, hover int) []string {
	rh := max(r.RowHeight, 1)
	contentLine := (rh - 1) / 2
	blank := strings.Repeat(" ", max(track, 0))
	top := int(math.Floor(f.ScrollTop))
	offset := int(math.Floor(f.OffsetY))

	lines := make([]string, 0, viewport)
	for y := 0; y < viewport; y++ {
		rel := top + y - offset
		if rel < 0 {
			lines = append(lines, blank)
			continue
		}
		idx, sub := rel/rh, rel%rh
		if idx >= len(f.Rows) {
			lines = append(lines, blank)
			continue
		}
		abs := f.Start + idx

		switch {
		case sub == contentLine:
			lines = append(lines, r.rowLine(f.Rows[idx], abs, widths, scrollX, track, f.Scrolling, hover))
		case rh > 1 && sub == rh-1 && abs < f.RowCount-1:
			lines = append(lines, r.Styles.Separator.Render(strings.Repeat("─", max(track, 0))))
		default:
			lines = append(lines, blank)
		}
	}
	return lines
}

func (r *Renderer) rowLine(row Row, abs int, widths []int, scrollX, track int, scrolling bool, hover int) string {
	base := r.Styles.Cell
	if r.Zebra && abs%2 == 1 {
		base = r.Styles.AltRow
	}
	// hover is a resting affordance; suppress it while in motion
	if !scrolling && abs == hover {
		base = r.Styles.Hover
	}
	if scrolling {
		base = r.Styles.Moving.Inherit(base)
	}

	line := r.join(widths, func(i int) (string, lipgloss.Style) {
		c := r.Columns[i]
		st := base
		if s, ok := c.CellStyle(row); ok && (scrolling || abs != hover) {
			st = s.Inherit(base)
		}
		return c.Cell(row), st.Align(c.Align())
	}, base)
	return padRight(viewportCut(line, scrollX, track), track, base)
}

// join renders each cell at its width and joins them with gap spaces.
func (r *Renderer) join(widths []int, cell func(i int) (string, lipgloss.Style), gapStyle lipgloss.Style) string {
	var b strings.Builder
	gap := gapStyle.Render(strings.Repeat(" ", r.Gap))
	for i, w := range widths {
		if i >= len(r.Columns) {
			break
		}
		if i > 0 && r.Gap > 0 {
			b.WriteString(gap)
		}
		if w <= 0 {
			continue
		}
		text, st := cell(i)
		text = ansi.Truncate(sanitize(text), w, "…")
		b.WriteString(st.Width(w).MaxWidth(w).Render(text))
	}
	return b.String()
}

// Scrollbar renders a vertical bar of height lines for the given geometry.
// Adapted from the virtual list scrollbar: track of │, thumb of ┃.
func (r *Renderer) Scrollbar(height int, scrollTop, contentHeight, viewport float64) []string {
	out := make([]string, height)
	if height <= 0 {
		return out
	}
	track := r.Styles.Track.Render("│")
	thumb := r.Styles.Thumb.Render("┃")
	if contentHeight <= viewport || contentHeight <= 0 {
		for i := range out {
			out[i] = " "
		}
		return out
	}

	size := max(1, int(float64(height)*viewport/contentHeight))
	maxScroll := contentHeight - viewport
	pos := int(float64(height-size) * math.Min(scrollTop, maxScroll) / maxScroll)
	for i := range out {
		if i >= pos && i < pos+size {
			out[i] = thumb
		} else {
			out[i] = track
		}
	}
	return out
}

// viewportCut returns the [scrollX, scrollX+track) cells of a styled line.
func viewportCut(line string, scrollX, track int) string {
	if track <= 0 {
		return ""
	}
	if scrollX <= 0 {
		return ansi.Truncate(line, track, "")
	}
	return ansi.Cut(line, scrollX, scrollX+track)
}

func padRight(s string, width int, st lipgloss.Style) string {
	if w := ansi.StringWidth(s); w < width {
		return s + st.Render(strings.Repeat(" ", width-w))
	}
	return s
}

// sanitize keeps a cell on one line.
func sanitize(s string) string {
	if !strings.ContainsAny(s, "\n\r\t") {
		return s
	}
	return strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s)
}

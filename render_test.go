package vtable

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func namedRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{ID: i + 1, Fields: map[string]any{
			"name":    fmt.Sprintf("u%d", i),
			"address": map[string]any{"city": "Phoenix"},
		}}
	}
	return rows
}

func frameAt(rows []Row, rh, vh, top float64, buf int, scrolling bool) Frame[Row] {
	w := ComputeWindow(len(rows), rh, vh, top, buf)
	return Frame[Row]{Window: w, Rows: Slice(rows, w), RowCount: len(rows), ScrollTop: top, Scrolling: scrolling}
}

func testRenderer() *Renderer {
	return NewRenderer([]Column{
		NewColumn("id", "ID", 4),
		NewColumn("name", "Name", 6),
	})
}

func plain(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = ansi.Strip(l)
	}
	return out
}

func TestRendererBody(t *testing.T) {
	r := testRenderer()
	const track = 21
	widths := r.Widths(track, LayoutWide)
	if r.LineWidth(widths) != track {
		t.Fatalf("LineWidth = %d, want %d", r.LineWidth(widths), track)
	}

	rows := namedRows(10)
	lines := r.Body(frameAt(rows, 1, 5, 3, 2, false), widths, 5, 0, track, -1)
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	for i, l := range plain(lines) {
		if w := ansi.StringWidth(l); w != track {
			t.Errorf("line %d is %d cells wide, want %d", i, w, track)
		}
		want := fmt.Sprintf("u%d", 3+i)
		if !strings.Contains(l, want) {
			t.Errorf("line %d = %q, want it to show %s", i, l, want)
		}
	}
}

func TestRendererBodyPastEnd(t *testing.T) {
	r := testRenderer()
	widths := r.Widths(21, LayoutWide)
	lines := plain(r.Body(frameAt(namedRows(3), 1, 5, 0, 2, false), widths, 5, 0, 21, -1))
	for i := 3; i < 5; i++ {
		if strings.TrimSpace(lines[i]) != "" {
			t.Errorf("line %d = %q, want blank", i, lines[i])
		}
	}
}

func TestRendererSeparators(t *testing.T) {
	r := testRenderer()
	r.RowHeight = 2
	widths := r.Widths(21, LayoutWide)

	lines := plain(r.Body(frameAt(namedRows(3), 2, 6, 0, 0, false), widths, 6, 0, 21, -1))
	if !strings.Contains(lines[0], "u0") || !strings.Contains(lines[2], "u1") || !strings.Contains(lines[4], "u2") {
		t.Errorf("rows not on their content lines: %q", lines)
	}
	for _, i := range []int{1, 3} {
		if !strings.Contains(lines[i], "─") {
			t.Errorf("line %d = %q, want a separator", i, lines[i])
		}
	}
	if strings.Contains(lines[5], "─") {
		t.Errorf("last row has a separator: %q", lines[5])
	}
}

func TestRendererHover(t *testing.T) {
	r := testRenderer()
	r.Styles.Hover = lipgloss.NewStyle().Transform(strings.ToUpper)
	widths := r.Widths(21, LayoutWide)
	rows := namedRows(5)

	lines := plain(r.Body(frameAt(rows, 1, 5, 0, 0, false), widths, 5, 0, 21, 2))
	if !strings.Contains(lines[2], "U2") {
		t.Errorf("hovered row = %q, want hover style", lines[2])
	}
	if strings.Contains(lines[1], "U1") {
		t.Errorf("non-hovered row got hover style: %q", lines[1])
	}

	// hover is suppressed while scrolling
	lines = plain(r.Body(frameAt(rows, 1, 5, 0, 0, true), widths, 5, 0, 21, 2))
	if strings.Contains(lines[2], "U2") {
		t.Errorf("hover applied while scrolling: %q", lines[2])
	}
}

func TestRendererHeader(t *testing.T) {
	r := testRenderer()
	widths := r.Widths(21, LayoutWide)
	h := ansi.Strip(r.Header(widths, 0, 21))
	if !strings.HasPrefix(h, "ID") || !strings.Contains(h, "Name") {
		t.Errorf("header = %q", h)
	}
	if ansi.StringWidth(h) != 21 {
		t.Errorf("header width = %d, want 21", ansi.StringWidth(h))
	}
}

func TestRendererHorizontalScroll(t *testing.T) {
	r := NewRenderer([]Column{
		NewColumn("id", "ID", 4),
		NewColumn("name", "Name", 10),
		NewColumn("address.city", "City", 10),
	})
	widths := r.Widths(12, LayoutNarrow)
	if got := r.LineWidth(widths); got != 26 {
		t.Fatalf("LineWidth = %d, want 26", got)
	}

	h := ansi.Strip(r.Header(widths, 16, 10))
	if !strings.HasPrefix(h, "City") {
		t.Errorf("scrolled header = %q, want it to start at City", h)
	}
	lines := plain(r.Body(frameAt(namedRows(2), 1, 2, 0, 0, false), widths, 2, 16, 10, -1))
	if !strings.HasPrefix(lines[0], "Phoenix") {
		t.Errorf("scrolled row = %q, want it to start at Phoenix", lines[0])
	}
	if ansi.StringWidth(lines[0]) != 10 {
		t.Errorf("scrolled row width = %d, want 10", ansi.StringWidth(lines[0]))
	}
}

func TestRendererTruncates(t *testing.T) {
	r := NewRenderer([]Column{NewColumn("name", "Name", 1)})
	rows := []Row{{ID: 1, Fields: map[string]any{"name": "a very long\nname"}}}
	widths := r.Widths(6, LayoutWide)
	lines := plain(r.Body(frameAt(rows, 1, 1, 0, 0, false), widths, 1, 0, 6, -1))
	if lines[0] != "a ver…" {
		t.Errorf("truncated cell = %q, want %q", lines[0], "a ver…")
	}
}

func TestScrollbar(t *testing.T) {
	r := testRenderer()

	bar := plain(r.Scrollbar(10, 0, 100, 10))
	if bar[0] != "┃" || bar[1] != "│" || bar[9] != "│" {
		t.Errorf("bar at top = %q", bar)
	}
	bar = plain(r.Scrollbar(10, 90, 100, 10))
	if bar[9] != "┃" || bar[0] != "│" {
		t.Errorf("bar at bottom = %q", bar)
	}
	bar = plain(r.Scrollbar(4, 0, 10, 10))
	for i, s := range bar {
		if s != " " {
			t.Errorf("bar[%d] = %q with no overflow, want blank", i, s)
		}
	}
	if len(r.Scrollbar(0, 0, 100, 10)) != 0 {
		t.Error("zero-height scrollbar has lines")
	}
}

func TestViewportCut(t *testing.T) {
	tests := []struct {
		line          string
		scrollX, want int
		out           string
	}{
		{"abcdefgh", 0, 4, "abcd"},
		{"abcdefgh", 3, 4, "defg"},
		{"abcdefgh", 6, 4, "gh"},
		{"abc", 0, 0, ""},
	}
	for _, tt := range tests {
		if got := viewportCut(tt.line, tt.scrollX, tt.want); got != tt.out {
			t.Errorf("viewportCut(%q, %d, %d) = %q, want %q", tt.line, tt.scrollX, tt.want, got, tt.out)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitize("a\tb\nc\rd"); got != "a b c d" {
		t.Errorf("sanitize = %q", got)
	}
	if got := sanitize("plain"); got != "plain" {
		t.Errorf("sanitize = %q", got)
	}
}

func BenchmarkRendererBody(b *testing.B) {
	r := testRenderer()
	rows := namedRows(100_000)
	widths := r.Widths(80, LayoutWide)
	var top float64
	b.ReportAllocs()
	for b.Loop() {
		top = float64(int(top+3) % 99_950)
		_ = r.Body(frameAt(rows, 1, 50, top, 20, false), widths, 50, 0, 80, -1)
	}
}

package vtable

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

type fakeFetcher struct {
	rows  []Row
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]Row, error) {
	f.calls++
	return f.rows, f.err
}

func testColumns() []Column {
	return []Column{
		NewColumn("id", "ID", 6),
		NewColumn("name", "Name", 12),
		NewColumn("address.city", "City", 12),
	}
}

func lineConfig() Config {
	return Config{RowHeight: 1, ViewportHeight: 0, BufferSize: 5, Quiescence: 200 * time.Millisecond}
}

func newTestModel(t *testing.T, fetcher Fetcher) Model {
	t.Helper()
	m, err := NewModel(ModelConfig{
		Table:   lineConfig(),
		Columns: testColumns(),
		Title:   "Users",
		Fetcher: fetcher,
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, n, width, height int) Model {
	t.Helper()
	m := newTestModel(t, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: width, Height: height})
	m, _ = update(t, m, RowsMsg{Rows: namedRows(n), Source: "test"})
	return m
}

func TestNewModelRejectsBadConfig(t *testing.T) {
	_, err := NewModel(ModelConfig{Table: lineConfig()})
	if err == nil {
		t.Error("NewModel accepted no columns")
	}

	cfg := lineConfig()
	cfg.RowHeight = 0
	_, err = NewModel(ModelConfig{Table: cfg, Columns: testColumns()})
	if !errors.Is(err, ErrInvalidRowHeight) {
		t.Errorf("NewModel with zero row height = %v, want ErrInvalidRowHeight", err)
	}
}

func TestNewModelRejectsFractionalRowHeight(t *testing.T) {
	cfg := lineConfig()
	cfg.RowHeight = 1.5
	_, err := NewModel(ModelConfig{Table: cfg, Columns: testColumns()})
	if !errors.Is(err, ErrFractionalRowHeight) {
		t.Errorf("NewModel with row height 1.5 = %v, want ErrFractionalRowHeight", err)
	}
}

func TestModelTallRowsDrawAtOffset(t *testing.T) {
	cfg := lineConfig()
	cfg.RowHeight = 2
	m, err := NewModel(ModelConfig{Table: cfg, Columns: testColumns(), Title: "Users"})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	t.Cleanup(m.Close)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 13})
	m, _ = update(t, m, RowsMsg{Rows: namedRows(200)})

	f := m.Engine().Reposition(30)
	if f.Start != 10 || f.OffsetY != 20 {
		t.Fatalf("window = [%d,%d) offset %v, want start 10 offset 20", f.Start, f.End, f.OffsetY)
	}
	lines := strings.Split(ansi.Strip(m.View()), "\n")
	for i, want := range []string{"u15", "", "u16", "", "u17"} {
		line := lines[2+i]
		if want == "" {
			if strings.Contains(line, "u") {
				t.Errorf("body line %d = %q, want separator", i, line)
			}
			continue
		}
		if !slices.Contains(strings.Fields(line), want) {
			t.Errorf("body line %d = %q, want row %s", i, line, want)
		}
	}
}

func TestModelFitsViewportToTerminal(t *testing.T) {
	m := loaded(t, 1000, 100, 30)
	if got := m.Engine().Config().ViewportHeight; got != 30-chrome {
		t.Errorf("ViewportHeight = %v, want %d", got, 30-chrome)
	}
	f := m.Engine().Frame()
	if f.Start != 0 || f.End != 27+5 {
		t.Errorf("window = [%d,%d), want [0,32)", f.Start, f.End)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 10})
	if got := m.Engine().Config().ViewportHeight; got != 7 {
		t.Errorf("ViewportHeight after resize = %v, want 7", got)
	}
}

func TestModelFixedViewport(t *testing.T) {
	cfg := lineConfig()
	cfg.ViewportHeight = 10
	m, err := NewModel(ModelConfig{Table: cfg, Columns: testColumns()})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	if got := m.Engine().Config().ViewportHeight; got != 10 {
		t.Errorf("ViewportHeight = %v, want the configured 10", got)
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 8})
	if got := m.Engine().Config().ViewportHeight; got != 5 {
		t.Errorf("ViewportHeight in a short terminal = %v, want 5", got)
	}
}

func TestModelKeys(t *testing.T) {
	m := loaded(t, 1000, 100, 23) // 20-line viewport

	tests := []struct {
		key  string
		want float64
	}{
		{"j", 1},
		{"j", 2},
		{"k", 1},
		{"ctrl+d", 11},
		{" ", 30},
		{"G", 980},
		{"j", 980},
		{"g", 0},
		{"k", 0},
		{"end", 980},
	}
	for _, tt := range tests {
		m, _ = update(t, m, keyMsg(tt.key))
		if got := m.Engine().ScrollTop(); got != tt.want {
			t.Fatalf("after %q: ScrollTop = %v, want %v", tt.key, got, tt.want)
		}
	}
	if !m.Engine().Scrolling() {
		t.Error("key scrolling did not enter scrolling")
	}
}

func TestModelWheel(t *testing.T) {
	m := loaded(t, 1000, 100, 23)
	m, _ = update(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	m, _ = update(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	if got := m.Engine().ScrollTop(); got != 6 {
		t.Errorf("ScrollTop after two wheel notches = %v, want 6", got)
	}
	m, _ = update(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	if got := m.Engine().ScrollTop(); got != 3 {
		t.Errorf("ScrollTop after wheel up = %v, want 3", got)
	}
}

func TestModelHover(t *testing.T) {
	m := loaded(t, 1000, 100, 23)
	m.Engine().Reposition(10)

	m, _ = update(t, m, tea.MouseMsg{X: 5, Y: 4, Action: tea.MouseActionMotion})
	if m.hover != 12 {
		t.Errorf("hover = %d, want 12", m.hover)
	}
	m, _ = update(t, m, tea.MouseMsg{X: 5, Y: 0, Action: tea.MouseActionMotion})
	if m.hover != -1 {
		t.Errorf("hover over the title = %d, want -1", m.hover)
	}
}

func TestModelRowsReplaceAndClamp(t *testing.T) {
	m := loaded(t, 1000, 100, 23)
	m, _ = update(t, m, keyMsg("G"))

	m, _ = update(t, m, RowsMsg{Rows: namedRows(30)})
	if got := m.Engine().ScrollTop(); got != 10 {
		t.Errorf("ScrollTop after shrink = %v, want 10", got)
	}
	f := m.Engine().Frame()
	if f.End != 30 || f.RowCount != 30 {
		t.Errorf("frame after shrink = [%d,%d) of %d", f.Start, f.End, f.RowCount)
	}
}

func TestModelFetch(t *testing.T) {
	ff := &fakeFetcher{rows: namedRows(5)}
	m := newTestModel(t, ff)
	if !m.loading {
		t.Error("model with a fetcher should start loading")
	}

	cmd := m.fetch()
	msg := cmd()
	rm, ok := msg.(RowsMsg)
	if !ok || len(rm.Rows) != 5 {
		t.Fatalf("fetch produced %#v", msg)
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})
	m, _ = update(t, m, rm)
	if m.loading || len(m.Engine().Rows()) != 5 {
		t.Errorf("rows not applied: loading=%v rows=%d", m.loading, len(m.Engine().Rows()))
	}

	m, cmd = update(t, m, keyMsg("r"))
	if cmd == nil {
		t.Fatal("refresh returned no command")
	}
	cmd()
	if ff.calls != 2 {
		t.Errorf("fetcher called %d times, want 2", ff.calls)
	}

	ff.err = errors.New("boom")
	m, _ = update(t, m, m.fetch()())
	if !strings.Contains(ansi.Strip(m.View()), "error: boom") {
		t.Error("fetch error not shown")
	}
	if len(m.Engine().Rows()) != 5 {
		t.Error("failed fetch dropped the current rows")
	}
}

type statusFetcher struct {
	fakeFetcher
	status string
}

func (f *statusFetcher) FetchStatus() string { return f.status }

func statusLine(m Model) string {
	out := ansi.Strip(m.View())
	return out[strings.LastIndex(out, "\n")+1:]
}

func TestModelStatusShowsFetchLifecycle(t *testing.T) {
	sf := &statusFetcher{fakeFetcher: fakeFetcher{rows: namedRows(3)}, status: "loading"}
	m := newTestModel(t, sf)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 20})
	if got := statusLine(m); !strings.Contains(got, "fetch loading") {
		t.Errorf("status line = %q, want fetch loading", got)
	}
	sf.status = "failed"
	if got := statusLine(m); !strings.Contains(got, "fetch failed") {
		t.Errorf("status line = %q, want fetch failed", got)
	}

	// fetchers without their own status fall back to what the model saw
	ff := &fakeFetcher{err: errors.New("boom")}
	m = newTestModel(t, ff)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 20})
	if got := statusLine(m); !strings.Contains(got, "fetch loading") {
		t.Errorf("status line before fetch = %q, want fetch loading", got)
	}
	m, _ = update(t, m, m.fetch()())
	if got := statusLine(m); !strings.Contains(got, "fetch failed") {
		t.Errorf("status line after error = %q, want fetch failed", got)
	}
}

func TestModelNoFetcher(t *testing.T) {
	m := newTestModel(t, nil)
	if m.fetch() != nil {
		t.Error("fetch without a fetcher returned a command")
	}
	_, cmd := update(t, m, keyMsg("r"))
	if cmd != nil {
		t.Error("refresh without a fetcher returned a command")
	}
}

func TestModelSettleForwarded(t *testing.T) {
	m := loaded(t, 1000, 100, 23)
	m, _ = update(t, m, keyMsg("j"))

	done := make(chan tea.Msg, 1)
	go func() { done <- m.waitSettle()() }()
	select {
	case msg := <-done:
		if _, ok := msg.(settledMsg); !ok {
			t.Fatalf("waitSettle returned %#v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("settle never reached the model")
	}
	if m.Engine().Scrolling() {
		t.Error("engine still scrolling after settle")
	}

	_, cmd := update(t, m, settledMsg{})
	if cmd == nil {
		t.Error("settledMsg did not re-arm the settle wait")
	}
}

func TestModelCloseReleasesSettleWait(t *testing.T) {
	m := loaded(t, 10, 100, 23)
	done := make(chan tea.Msg, 1)
	go func() { done <- m.waitSettle()() }()
	m.Close()
	select {
	case msg := <-done:
		if msg != nil {
			t.Errorf("waitSettle after Close returned %#v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitSettle blocked after Close")
	}
}

func TestModelQuit(t *testing.T) {
	m := loaded(t, 10, 100, 23)
	_, cmd := update(t, m, keyMsg("q"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit did not produce tea.QuitMsg")
	}
}

func TestModelNarrowHorizontalScroll(t *testing.T) {
	m := loaded(t, 100, 21, 23) // track of 20 cells, below the breakpoint
	if m.mode != LayoutNarrow {
		t.Fatalf("mode = %v, want narrow", m.mode)
	}

	for range 10 {
		m, _ = update(t, m, keyMsg("l"))
	}
	// line is 6+1+12+1+12 = 32 cells on a 20-cell track
	if m.scrollX != 12 {
		t.Errorf("scrollX = %d, want clamped 12", m.scrollX)
	}
	m, _ = update(t, m, keyMsg("h"))
	if m.scrollX != 8 {
		t.Errorf("scrollX = %d, want 8", m.scrollX)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 23})
	if m.mode != LayoutWide || m.scrollX != 0 {
		t.Errorf("wide mode kept scrollX=%d mode=%v", m.scrollX, m.mode)
	}
}

func TestModelView(t *testing.T) {
	m := newTestModel(t, nil)
	if m.View() != "" {
		t.Error("View before the first resize should be empty")
	}

	m = loaded(t, 1000, 100, 23)
	out := ansi.Strip(m.View())
	lines := strings.Split(out, "\n")
	if len(lines) != 23 {
		t.Fatalf("View has %d lines, want 23", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Users") || !strings.Contains(lines[0], "test") {
		t.Errorf("title line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Name") || !strings.Contains(lines[1], "City") {
		t.Errorf("header line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "u0") || !strings.Contains(lines[2], "Phoenix") {
		t.Errorf("first body line = %q", lines[2])
	}
	if !strings.Contains(lines[22], "1–20 of 1000") || !strings.Contains(lines[22], "idle") {
		t.Errorf("status line = %q", lines[22])
	}

	m, _ = update(t, m, keyMsg("G"))
	status := ansi.Strip(m.View())
	if !strings.Contains(status, "981–1000 of 1000") || !strings.Contains(status, "scrolling") {
		t.Errorf("status after G = %q", status[strings.LastIndex(status, "\n")+1:])
	}
}

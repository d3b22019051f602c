package vtable

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// styles for the chrome around the table
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// chrome is the number of lines around the body: title, header, status.
const chrome = 3

// ErrFractionalRowHeight rejects row heights the terminal can't draw: rows
// occupy whole lines.
var ErrFractionalRowHeight = errors.New("row height must be a whole number of lines")

// Fetcher supplies a fresh row collection. Each successful fetch replaces the
// table's rows wholesale.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Row, error)
}

// StatusReporter is implemented by fetchers that track their most recent
// fetch (idle, loading, succeeded, failed). The status line shows it.
type StatusReporter interface {
	FetchStatus() string
}

// KeyMap holds the table's key bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	HalfUp   key.Binding
	HalfDown key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Left     key.Binding
	Right    key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

// DefaultKeyMap uses vim-style movement plus the usual paging keys.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		HalfUp:   key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("^u", "half page up")),
		HalfDown: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("^d", "half page down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+f", " "), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "scroll left")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "scroll right")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp lists the bindings shown in the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.PageDown, k.Bottom, k.Refresh, k.Quit}
}

// RowsMsg replaces the table's rows. Data layers outside the model (file
// watchers, pushes) send it through tea.Program.Send.
type RowsMsg struct {
	Rows   []Row
	Source string
}

// FetchErrMsg reports a failed fetch; the current rows stay on screen.
type FetchErrMsg struct{ Err error }

type settledMsg struct{}

// ModelConfig configures the interactive table.
type ModelConfig struct {
	Table       Config // RowHeight and ViewportHeight in terminal lines
	Columns     []Column
	Title       string
	FitHeight   bool // size the viewport to the terminal instead of Table.ViewportHeight
	NarrowBelow int
	WheelLines  int
	Fetcher     Fetcher
	Logger      *zap.Logger
	DumpWindow  bool
	Keys        *KeyMap
}

// Model is the bubbletea host: it feeds key, mouse, resize and data events
// into the engine and draws the resulting frame.
type Model struct {
	engine   *Engine[Row]
	renderer *Renderer
	keys     KeyMap
	fetcher  Fetcher
	log      *zap.Logger

	title       string
	fit         bool
	fixedHeight int
	narrowBelow int
	wheel       float64

	width, height int
	mode          LayoutMode
	scrollX       int
	hover         int
	loading       bool
	err           error
	source        string

	ctx     context.Context
	cancel  context.CancelFunc
	settled chan struct{}
}

// NewModel validates the configuration and builds the model.
func NewModel(cfg ModelConfig) (Model, error) {
	if err := ValidateColumns(cfg.Columns); err != nil {
		return Model{}, fmt.Errorf("invalid columns: %w", err)
	}
	if rh := cfg.Table.RowHeight; rh != math.Trunc(rh) {
		return Model{}, fmt.Errorf("%w: got %v", ErrFractionalRowHeight, rh)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.NarrowBelow <= 0 {
		cfg.NarrowBelow = DefaultNarrowBelow
	}
	if cfg.WheelLines <= 0 {
		cfg.WheelLines = 3
	}
	if cfg.Table.ViewportHeight <= 0 {
		cfg.FitHeight = true
	}
	if cfg.FitHeight {
		// placeholder until the first WindowSizeMsg
		cfg.Table.ViewportHeight = 24 - chrome
	}
	keys := DefaultKeyMap()
	if cfg.Keys != nil {
		keys = *cfg.Keys
	}

	ctx, cancel := context.WithCancel(context.Background())
	settled := make(chan struct{}, 1)
	eng, err := New[Row](cfg.Table,
		WithLogger(log),
		WithWindowDump(cfg.DumpWindow),
		WithSettleHook(func() {
			select {
			case settled <- struct{}{}:
			case <-ctx.Done():
			default:
			}
		}),
	)
	if err != nil {
		cancel()
		return Model{}, err
	}

	r := NewRenderer(cfg.Columns)
	r.RowHeight = max(int(cfg.Table.RowHeight), 1)

	return Model{
		engine:      eng,
		renderer:    r,
		keys:        keys,
		fetcher:     cfg.Fetcher,
		log:         log.Named("model"),
		title:       cfg.Title,
		fit:         cfg.FitHeight,
		fixedHeight: int(cfg.Table.ViewportHeight),
		narrowBelow: cfg.NarrowBelow,
		wheel:       float64(cfg.WheelLines),
		hover:       -1,
		loading:     cfg.Fetcher != nil,
		ctx:         ctx,
		cancel:      cancel,
		settled:     settled,
	}, nil
}

// Engine exposes the windowing engine, mainly for tests and tooling.
func (m Model) Engine() *Engine[Row] { return m.engine }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.waitSettle())
}

// Close cancels in-flight fetches and stops the engine's timer.
func (m Model) Close() {
	m.cancel()
	m.engine.Close()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.mode = ModeFor(m.trackWidth(), m.narrowBelow)
		if _, err := m.engine.Resize(float64(m.viewportLines())); err != nil {
			m.log.Warn("resize rejected", zap.Error(err))
		}
		m.engine.ClampScroll()
		m.clampX()
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg), nil

	case RowsMsg:
		m.loading = false
		m.err = nil
		if msg.Source != "" {
			m.source = msg.Source
		}
		m.engine.SetRows(msg.Rows)
		m.engine.ClampScroll()
		m.log.Debug("rows replaced", zap.Int("count", len(msg.Rows)), zap.String("source", msg.Source))
		return m, nil

	case FetchErrMsg:
		m.loading = false
		m.err = msg.Err
		m.log.Error("fetch failed", zap.Error(msg.Err))
		return m, nil

	case settledMsg:
		return m, m.waitSettle()
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rh := m.engine.Config().RowHeight
	vh := m.engine.Config().ViewportHeight
	// page moves keep one row of context
	page := math.Max(vh-rh, rh)

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Down):
		m.engine.ScrollBy(rh)
	case key.Matches(msg, m.keys.Up):
		m.engine.ScrollBy(-rh)
	case key.Matches(msg, m.keys.HalfDown):
		m.engine.ScrollBy(math.Floor(vh / 2))
	case key.Matches(msg, m.keys.HalfUp):
		m.engine.ScrollBy(-math.Floor(vh / 2))
	case key.Matches(msg, m.keys.PageDown):
		m.engine.ScrollBy(page)
	case key.Matches(msg, m.keys.PageUp):
		m.engine.ScrollBy(-page)
	case key.Matches(msg, m.keys.Top):
		m.engine.Scroll(0)
	case key.Matches(msg, m.keys.Bottom):
		m.engine.Scroll(m.engine.MaxScrollTop())
	case key.Matches(msg, m.keys.Right):
		m.scrollX += 4
		m.clampX()
	case key.Matches(msg, m.keys.Left):
		m.scrollX -= 4
		m.clampX()
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.fetch()
	}
	return m, nil
}

func (m Model) updateMouse(msg tea.MouseMsg) Model {
	switch msg.Button {
	case tea.MouseButtonWheelDown:
		m.engine.ScrollBy(m.wheel)
		return m
	case tea.MouseButtonWheelUp:
		m.engine.ScrollBy(-m.wheel)
		return m
	}
	if msg.Action == tea.MouseActionMotion {
		m.hover = m.rowAt(msg.Y)
	}
	return m
}

// rowAt maps a screen line to an absolute row index, or -1.
func (m Model) rowAt(y int) int {
	body := y - 2 // title and header
	if body < 0 || body >= m.viewportLines() {
		return -1
	}
	contentY := math.Floor(m.engine.ScrollTop()) + float64(body)
	idx := int(contentY / m.engine.Config().RowHeight)
	if idx >= len(m.engine.Rows()) {
		return -1
	}
	return idx
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	track := m.trackWidth()
	vp := m.viewportLines()
	f := m.engine.Frame()
	widths := m.renderer.Widths(track, m.mode)

	var b strings.Builder
	b.WriteString(m.titleLine())
	b.WriteByte('\n')
	b.WriteString(m.renderer.Header(widths, m.scrollX, track))
	b.WriteByte('\n')

	body := m.renderer.Body(f, widths, vp, m.scrollX, track, m.hover)
	bar := m.renderer.Scrollbar(vp, f.ScrollTop, f.ContentHeight, m.engine.Config().ViewportHeight)
	for i, line := range body {
		b.WriteString(line)
		b.WriteString(bar[i])
		b.WriteByte('\n')
	}
	b.WriteString(m.statusLine(f))
	return b.String()
}

func (m Model) titleLine() string {
	t := titleStyle.Render(m.title)
	switch {
	case m.err != nil:
		t += " " + errorStyle.Render("error: "+m.err.Error())
	case m.loading:
		t += " " + dimStyle.Render("loading…")
	case m.source != "":
		t += " " + dimStyle.Render(m.source)
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(t)
}

func (m Model) statusLine(f Frame[Row]) string {
	cfg := m.engine.Config()
	start, end := VisibleRange(f.RowCount, cfg.RowHeight, cfg.ViewportHeight, f.ScrollTop)
	first := start + 1
	if end == 0 {
		first = 0
	}
	state := Idle
	if f.Scrolling {
		state = Scrolling
	}
	s := fmt.Sprintf("%d–%d of %d  window %d–%d  %s  %s", first, end, f.RowCount, f.Start, f.End, state, m.mode)
	if fs := m.fetchStatus(); fs != "" {
		s += "  fetch " + fs
	}

	var help []string
	for _, k := range m.keys.ShortHelp() {
		help = append(help, k.Help().Key+" "+k.Help().Desc)
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(
		statusStyle.Render(s) + "  " + dimStyle.Render(strings.Join(help, " · ")))
}

// fetchStatus prefers the fetcher's own lifecycle and falls back to what the
// model has seen of it.
func (m Model) fetchStatus() string {
	if sr, ok := m.fetcher.(StatusReporter); ok {
		return sr.FetchStatus()
	}
	switch {
	case m.fetcher == nil:
		return ""
	case m.loading:
		return "loading"
	case m.err != nil:
		return "failed"
	}
	return "succeeded"
}

func (m Model) trackWidth() int {
	return max(m.width-1, 0) // last column is the scrollbar
}

func (m Model) viewportLines() int {
	avail := max(m.height-chrome, 1)
	if m.fit || m.fixedHeight <= 0 {
		return avail
	}
	return min(m.fixedHeight, avail)
}

func (m *Model) clampX() {
	if m.mode == LayoutWide {
		m.scrollX = 0
		return
	}
	widths := m.renderer.Widths(m.trackWidth(), m.mode)
	maxX := max(m.renderer.LineWidth(widths)-m.trackWidth(), 0)
	m.scrollX = min(max(m.scrollX, 0), maxX)
}

func (m Model) fetch() tea.Cmd {
	if m.fetcher == nil {
		return nil
	}
	ctx, f := m.ctx, m.fetcher
	return func() tea.Msg {
		rows, err := f.Fetch(ctx)
		if err != nil {
			return FetchErrMsg{Err: err}
		}
		return RowsMsg{Rows: rows}
	}
}

// waitSettle turns the engine's off-loop settle hook into a loop message.
func (m Model) waitSettle() tea.Cmd {
	ch, done := m.settled, m.ctx.Done()
	return func() tea.Msg {
		select {
		case <-ch:
			return settledMsg{}
		case <-done:
			return nil
		}
	}
}

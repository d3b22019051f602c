package vtable

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column describes one display column. Key is a dotted field path; Width is
// both the column's proportional weight in wide layout and its width in
// cells in narrow layout.
type Column struct {
	Key      string
	Label    string
	Width    float64
	MinWidth float64 // 0 means no floor

	align    lipgloss.Position
	hasAlign bool
	format   func(any) string
	style    func(any) lipgloss.Style
}

// ColumnOption configures rendering of a single column.
type ColumnOption func(*Column)

// NewColumn builds a column and applies opts.
func NewColumn(key, label string, width float64, opts ...ColumnOption) Column {
	c := Column{Key: key, Label: label, Width: width}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// With returns a copy of c with opts applied.
func (c Column) With(opts ...ColumnOption) Column {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Align returns the cell alignment, left unless configured.
func (c Column) Align() lipgloss.Position {
	if c.hasAlign {
		return c.align
	}
	return lipgloss.Left
}

// Cell resolves and formats the column's value for row r.
func (c Column) Cell(r Row) string {
	v, ok := r.Lookup(c.Key)
	if !ok {
		return ""
	}
	if c.format != nil {
		return c.format(v)
	}
	return FormatValue(v)
}

// CellStyle returns the per-value style override, if any.
func (c Column) CellStyle(r Row) (lipgloss.Style, bool) {
	if c.style == nil {
		return lipgloss.Style{}, false
	}
	v, ok := r.Lookup(c.Key)
	if !ok {
		return lipgloss.Style{}, false
	}
	return c.style(v), true
}

// ValidateColumns reports every problem with the column set at once.
func ValidateColumns(cols []Column) error {
	if len(cols) == 0 {
		return errors.New("at least one column is required")
	}
	var errs []error
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		switch {
		case c.Key == "":
			errs = append(errs, fmt.Errorf("column %d: empty key", i))
		case seen[c.Key]:
			errs = append(errs, fmt.Errorf("column %d: duplicate key %q", i, c.Key))
		}
		seen[c.Key] = true
		if !positiveFinite(c.Width) {
			errs = append(errs, fmt.Errorf("column %q: width must be positive, got %v", c.Key, c.Width))
		}
		if c.MinWidth < 0 || math.IsNaN(c.MinWidth) {
			errs = append(errs, fmt.Errorf("column %q: min width must not be negative, got %v", c.Key, c.MinWidth))
		}
	}
	return errors.Join(errs...)
}

// TotalWidth is the sum of declared widths.
func TotalWidth(cols []Column) float64 {
	var sum float64
	for _, c := range cols {
		sum += c.Width
	}
	return sum
}

// ----------------------------------------------------------------------------
// layout
// ----------------------------------------------------------------------------

// LayoutMode selects how declared widths map onto the track.
type LayoutMode uint8

const (
	// LayoutWide shares the track proportionally between columns.
	LayoutWide LayoutMode = iota
	// LayoutNarrow keeps every column at its declared width and lets the
	// track scroll horizontally.
	LayoutNarrow
)

func (m LayoutMode) String() string {
	if m == LayoutNarrow {
		return "narrow"
	}
	return "wide"
}

// DefaultNarrowBelow is the track width, in cells, below which the narrow
// layout is used.
const DefaultNarrowBelow = 80

// ModeFor picks the layout for a track of the given width.
func ModeFor(width, narrowBelow int) LayoutMode {
	if width < narrowBelow {
		return LayoutNarrow
	}
	return LayoutWide
}

// Layout returns the rendered width of each column in cells.
func Layout(cols []Column, track int, mode LayoutMode) []int {
	widths := make([]int, len(cols))
	if len(cols) == 0 {
		return widths
	}
	floor := func(c Column, w int) int {
		if m := int(math.Ceil(c.MinWidth)); w < m {
			return m
		}
		return w
	}

	if mode == LayoutNarrow {
		for i, c := range cols {
			widths[i] = floor(c, int(math.Round(c.Width)))
		}
		return widths
	}

	total := TotalWidth(cols)
	if track < 0 {
		track = 0
	}
	used := 0
	for i, c := range cols {
		w := 0
		if total > 0 {
			w = int(math.Floor(float64(track) * c.Width / total))
		}
		widths[i] = w
		used += w
	}
	// rounding leftovers go to the last column so the row spans the track
	widths[len(widths)-1] += track - used
	for i, c := range cols {
		widths[i] = floor(c, widths[i])
	}
	return widths
}

// ----------------------------------------------------------------------------
// canned format presets
// ----------------------------------------------------------------------------

// AlignTo sets the column alignment.
func AlignTo(p lipgloss.Position) ColumnOption {
	return func(c *Column) { c.align = p; c.hasAlign = true }
}

// FormatWith sets a function that converts the field value to display text.
func FormatWith(fn func(any) string) ColumnOption {
	return func(c *Column) { c.format = fn }
}

// StyleWith sets a function that returns a per-cell style for the value.
func StyleWith(fn func(any) lipgloss.Style) ColumnOption {
	return func(c *Column) { c.style = fn }
}

// MinWidth floors the column's rendered width.
func MinWidth(w float64) ColumnOption {
	return func(c *Column) { c.MinWidth = w }
}

// Number formats numeric values with comma separators.
func Number(decimals int) ColumnOption {
	return func(c *Column) {
		AlignTo(lipgloss.Right)(c)
		c.format = func(v any) string { return formatNumber(v, decimals) }
	}
}

// Currency formats numeric values with a symbol prefix and comma separators.
func Currency(symbol string, decimals int) ColumnOption {
	return func(c *Column) {
		AlignTo(lipgloss.Right)(c)
		c.format = func(v any) string { return symbol + formatNumber(v, decimals) }
	}
}

// Percent formats numeric values as percentages.
func Percent(decimals int) ColumnOption {
	return func(c *Column) {
		AlignTo(lipgloss.Right)(c)
		c.format = func(v any) string {
			return strconv.FormatFloat(toFloat64(v), 'f', decimals, 64) + "%"
		}
	}
}

// Bytes formats numeric values as human-readable byte sizes.
func Bytes() ColumnOption {
	return func(c *Column) {
		AlignTo(lipgloss.Right)(c)
		c.format = func(v any) string { return formatBytes(toFloat64(v)) }
	}
}

// Bool formats boolean values with custom labels.
func Bool(yes, no string) ColumnOption {
	return func(c *Column) {
		AlignTo(lipgloss.Center)(c)
		c.format = func(v any) string {
			if b, ok := v.(bool); ok && b {
				return yes
			}
			return no
		}
	}
}

// StyleThreshold colors cells by numeric value: below low, between, above high.
func StyleThreshold(low, high float64, below, between, above lipgloss.Style) ColumnOption {
	return func(c *Column) {
		c.style = func(v any) lipgloss.Style {
			f := toFloat64(v)
			if f < low {
				return below
			}
			if f > high {
				return above
			}
			return between
		}
	}
}

// ParseFormat turns a config string into a preset:
//
//	number[:decimals]  currency:SYMBOL[:decimals]  percent[:decimals]
//	bytes              bool:YES:NO                 left | center | right
//
// The empty string means plain text.
func ParseFormat(format string) (ColumnOption, error) {
	if format == "" {
		return func(*Column) {}, nil
	}
	parts := strings.Split(format, ":")
	arg := func(i, fallback int) (int, error) {
		if len(parts) <= i || parts[i] == "" {
			return fallback, nil
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("format %q: bad decimals %q", format, parts[i])
		}
		return n, nil
	}

	switch parts[0] {
	case "number":
		d, err := arg(1, 0)
		if err != nil {
			return nil, err
		}
		return Number(d), nil
	case "currency":
		if len(parts) < 2 {
			return nil, fmt.Errorf("format %q: currency needs a symbol", format)
		}
		d, err := arg(2, 2)
		if err != nil {
			return nil, err
		}
		return Currency(parts[1], d), nil
	case "percent":
		d, err := arg(1, 1)
		if err != nil {
			return nil, err
		}
		return Percent(d), nil
	case "bytes":
		return Bytes(), nil
	case "bool":
		if len(parts) != 3 {
			return nil, fmt.Errorf("format %q: bool needs yes and no labels", format)
		}
		return Bool(parts[1], parts[2]), nil
	case "left":
		return AlignTo(lipgloss.Left), nil
	case "center":
		return AlignTo(lipgloss.Center), nil
	case "right":
		return AlignTo(lipgloss.Right), nil
	}
	return nil, fmt.Errorf("unknown column format %q", format)
}

// ----------------------------------------------------------------------------
// internal helpers
// ----------------------------------------------------------------------------

// toFloat64 converts common numeric types to float64.
func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

func formatNumber(v any, decimals int) string {
	return insertCommas(strconv.FormatFloat(toFloat64(v), 'f', decimals, 64))
}

// insertCommas adds thousand separators to a numeric string.
func insertCommas(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	integer, decimal, hasDecimal := strings.Cut(s, ".")

	if n := len(integer); n > 3 {
		var b strings.Builder
		b.Grow(n + n/3)
		start := n % 3
		if start == 0 {
			start = 3
		}
		b.WriteString(integer[:start])
		for i := start; i < n; i += 3 {
			b.WriteByte(',')
			b.WriteString(integer[i : i+3])
		}
		integer = b.String()
	}

	out := integer
	if hasDecimal {
		out += "." + decimal
	}
	if neg {
		return "-" + out
	}
	return out
}

// formatBytes converts a byte count to a human-readable string.
func formatBytes(b float64) string {
	if b < 0 {
		return "-" + formatBytes(-b)
	}
	if b < 1 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	exp := min(int(math.Log(b)/math.Log(1024)), len(units)-1)
	val := b / math.Pow(1024, float64(exp))
	if exp == 0 {
		return fmt.Sprintf("%.0f %s", val, units[exp])
	}
	return fmt.Sprintf("%.1f %s", val, units[exp])
}

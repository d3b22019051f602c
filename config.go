package vtable

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Defaults for Config. BufferSize defaults to 20 rows each side of the
// viewport; set it to 0 to materialize only what is visible.
const (
	DefaultRowHeight      = 40.0
	DefaultViewportHeight = 400.0
	DefaultBufferSize     = 20
	DefaultQuiescence     = 50 * time.Millisecond
)

var (
	ErrInvalidRowHeight      = errors.New("row height must be a positive finite number")
	ErrInvalidViewportHeight = errors.New("viewport height must be a positive finite number")
	ErrInvalidBufferSize     = errors.New("buffer size must not be negative")
	ErrInvalidQuiescence     = errors.New("quiescence interval must be positive")
)

// Config is the geometry and timing of a windowed list.
type Config struct {
	RowHeight      float64       // pitch of every row; drives all index math
	ViewportHeight float64       // visible height of the scroll container
	BufferSize     int           // rows over-rendered past each viewport edge
	Quiescence     time.Duration // silence after the last scroll before settling
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		RowHeight:      DefaultRowHeight,
		ViewportHeight: DefaultViewportHeight,
		BufferSize:     DefaultBufferSize,
		Quiescence:     DefaultQuiescence,
	}
}

// Validate rejects configurations that would divide by zero or produce an
// unbounded window.
func (c Config) Validate() error {
	if !positiveFinite(c.RowHeight) {
		return fmt.Errorf("%w: got %v", ErrInvalidRowHeight, c.RowHeight)
	}
	if !positiveFinite(c.ViewportHeight) {
		return fmt.Errorf("%w: got %v", ErrInvalidViewportHeight, c.ViewportHeight)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBufferSize, c.BufferSize)
	}
	if c.Quiescence <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidQuiescence, c.Quiescence)
	}
	return nil
}

// MaxWindowLen is the upper bound on rows a single window can hold.
func (c Config) MaxWindowLen() int {
	return 2*c.BufferSize + int(math.Ceil(c.ViewportHeight/c.RowHeight)) + 1
}

func positiveFinite(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}

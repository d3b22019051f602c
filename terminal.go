package vtable

import (
	"os"

	"golang.org/x/term"
)

// Size represents terminal dimensions in cells.
type Size struct {
	Width  int
	Height int
}

// fallbackSize is used when the output isn't a terminal.
var fallbackSize = Size{Width: 80, Height: 24}

// OutputSize returns the size of the terminal behind f, or 80x24 when f is
// not a terminal (piped output, tests).
func OutputSize(f *os.File) Size {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return fallbackSize
	}
	w, h, err := terminalSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return fallbackSize
	}
	return Size{Width: w, Height: h}
}

//go:build !unix

package vtable

import "golang.org/x/term"

func terminalSize(fd int) (int, int, error) {
	return term.GetSize(fd)
}

//go:build unix

package vtable

import "golang.org/x/sys/unix"

// terminalSize returns the current terminal dimensions.
func terminalSize(fd int) (int, int, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}

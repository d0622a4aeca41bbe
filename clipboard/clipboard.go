// Package clipboard copies text through the platform clipboard command.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fwojciec/gias"
)

// Ensure Command implements the Clipboard interface.
var _ gias.Clipboard = (*Command)(nil)

// ErrUnavailable is returned when no clipboard command is installed.
var ErrUnavailable = errors.New("no clipboard command available")

// Command implements gias.Clipboard by piping text into an external program.
type Command struct {
	Name string
	Args []string
}

// candidates are tried in order by Detect.
var candidates = []Command{
	{Name: "pbcopy"},
	{Name: "wl-copy"},
	{Name: "xclip", Args: []string{"-selection", "clipboard"}},
	{Name: "xsel", Args: []string{"--clipboard", "--input"}},
}

// Detect returns the first clipboard command found on PATH.
func Detect() (*Command, error) {
	for _, c := range candidates {
		if _, err := exec.LookPath(c.Name); err == nil {
			c := c
			return &c, nil
		}
	}
	return nil, ErrUnavailable
}

// Copy writes content to the clipboard command's stdin.
func (c *Command) Copy(content string) error {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Stdin = strings.NewReader(content)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.Name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

package tracker

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownCommand is returned for a command name with no meaning.
var ErrUnknownCommand = errors.New("tracker: unknown command")

// Command is a discrete operator request delivered between ticks.
type Command int

const (
	CmdResetBackground Command = iota
	CmdSelectTarget1
	CmdSelectTarget2
	CmdSelectTarget3
	CmdCycleBackground
	CmdUncalibrate
	CmdSaveCalibration
	CmdQuit
)

var commandNames = map[Command]string{
	CmdResetBackground: "reset-background",
	CmdSelectTarget1:   "select-target-1",
	CmdSelectTarget2:   "select-target-2",
	CmdSelectTarget3:   "select-target-3",
	CmdCycleBackground: "cycle-background",
	CmdUncalibrate:     "uncalibrate",
	CmdSaveCalibration: "save-calibration",
	CmdQuit:            "quit",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand resolves a command name as used in key bindings.
func ParseCommand(name string) (Command, error) {
	for c, n := range commandNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// CommandNames returns every command name, sorted.
func CommandNames() []string {
	names := make([]string, 0, len(commandNames))
	for _, n := range commandNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// target returns the 1-based calibration target a select command refers to.
func (c Command) target() (int, bool) {
	switch c {
	case CmdSelectTarget1:
		return 1, true
	case CmdSelectTarget2:
		return 2, true
	case CmdSelectTarget3:
		return 3, true
	}
	return 0, false
}

// KeyMap resolves key presses to commands. Unbound keys reset the
// background reference.
type KeyMap map[rune]Command

// NewKeyMap builds a KeyMap from single-character keys to command names.
func NewKeyMap(bindings map[string]string) (KeyMap, error) {
	km := make(KeyMap, len(bindings))
	for key, name := range bindings {
		r := []rune(key)
		if len(r) != 1 {
			return nil, fmt.Errorf("key binding %q must be a single character", key)
		}
		c, err := ParseCommand(name)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		km[r[0]] = c
	}
	return km, nil
}

// Resolve returns the command bound to key.
func (km KeyMap) Resolve(key rune) Command {
	if c, ok := km[key]; ok {
		return c
	}
	return CmdResetBackground
}

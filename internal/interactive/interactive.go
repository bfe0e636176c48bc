// Package interactive implements a terminal front-end, gated behind
// --interactive, that builds the same file list and mode selection a
// flag-driven invocation would and hands it to the same evaluator/verifier
// entry points, using huh for the form prompts.
package interactive

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/inancgumus/screen"
)

// Mode is the run mode the picker lets the user choose.
type Mode string

const (
	ModeCompute Mode = "Compute integrity codes"
	ModeVerify  Mode = "Verify against the database"
	ModeList    Mode = "List the database"
)

// Selection is the outcome of one interactive session: a mode plus the
// subset of discovered files the user chose to act on.
type Selection struct {
	Mode  Mode
	Files []string
}

// Picker drives the huh forms. Clear() wipes the terminal first.
type Picker struct{}

// New builds a Picker.
func New() *Picker {
	return &Picker{}
}

// Clear resets the terminal screen before drawing the first form.
func (p *Picker) Clear() {
	screen.Clear()
	screen.MoveTopLeft()
}

// Run presents a mode select followed by a multi-select over candidates,
// returning the user's Selection. An empty candidates list is an error: the
// caller should already have discovered at least one file via C5 before
// offering the picker.
func (p *Picker) Run(candidates []string) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, fmt.Errorf("interactive: no candidate files to offer")
	}

	var mode string
	var chosen []string

	options := make([]huh.Option[string], len(candidates))
	for i, c := range candidates {
		options[i] = huh.NewOption(c, c)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What do you want to do?").
				Options(
					huh.NewOption(string(ModeCompute), string(ModeCompute)),
					huh.NewOption(string(ModeVerify), string(ModeVerify)),
					huh.NewOption(string(ModeList), string(ModeList)),
				).
				Value(&mode),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select files").
				Options(options...).
				Value(&chosen),
		),
	)

	if err := form.Run(); err != nil {
		return Selection{}, fmt.Errorf("interactive: form failed: %w", err)
	}

	return Selection{Mode: Mode(mode), Files: chosen}, nil
}

// Confirm asks a single yes/no question and returns the answer.
func (p *Picker) Confirm(question string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Value(&ok),
		),
	).Run()
	if err != nil {
		return false, fmt.Errorf("interactive: confirm failed: %w", err)
	}
	return ok, nil
}

package sugar

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ErrorModel is a bubbletea model that carries a terminal error out of the
// program.
type ErrorModel interface {
	tea.Model
	Err() error
}

// RunProgram runs a bubbletea program and surfaces the final model's error.
func RunProgram(model ErrorModel) (resultModel tea.Model, err error) {
	resultModel, teaErr := tea.NewProgram(model).Run()
	if errorModel, ok := resultModel.(ErrorModel); ok {
		err = errorModel.Err()
	}

	// Bubble Tea errors override model errors
	if teaErr != nil {
		err = teaErr
	}

	return
}

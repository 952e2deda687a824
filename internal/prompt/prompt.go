package prompt

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts a question with Ctrl+C.
var ErrAborted = errors.New("aborted by user")

// Prompter asks yes/no and free-text questions.
type Prompter interface {
	// Confirm asks a yes/no question with def preselected.
	Confirm(message string, def bool) (bool, error)
	// Input asks for a line of text with def prefilled.
	Input(message, def string) (string, error)
}

// Survey asks on the controlling terminal.
type Survey struct{}

// NewSurvey returns a terminal prompter.
func NewSurvey() *Survey {
	return &Survey{}
}

// Confirm implements Prompter.
func (*Survey) Confirm(message string, def bool) (bool, error) {
	var result bool

	err := survey.AskOne(&survey.Confirm{
		Message: message,
		Default: def,
	}, &result)

	return result, wrap(err)
}

// Input implements Prompter.
func (*Survey) Input(message, def string) (string, error) {
	var result string

	err := survey.AskOne(&survey.Input{
		Message: message,
		Default: def,
	}, &result, survey.WithValidator(survey.Required))

	return result, wrap(err)
}

func wrap(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}

	return fmt.Errorf("prompt: %w", err)
}

package prompt

import (
	"errors"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Parallel()

	require.NoError(t, wrap(nil))
	require.ErrorIs(t, wrap(terminal.InterruptErr), ErrAborted)

	other := errors.New("no tty")
	err := wrap(other)
	require.ErrorIs(t, err, other)
	require.NotErrorIs(t, err, ErrAborted)
}

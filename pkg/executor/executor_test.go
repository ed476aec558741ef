//go:build unix

package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/manafest/pkg/core"
)

func newQuiet() *Exec {
	logger, _ := test.NewNullLogger()
	return New(logger)
}

func TestRun_CapturesOutputAndExitCode(t *testing.T) {
	res, err := newQuiet().Run(context.Background(), Command{
		Argv: []string{"sh", "-c", "echo out; echo err 1>&2; exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.False(t, res.Success())
}

func TestRun_ZeroExit(t *testing.T) {
	res, err := newQuiet().Run(context.Background(), Command{Argv: []string{"true"}})
	require.NoError(t, err)
	assert.True(t, res.Success())
}

func TestRun_MissingBinary(t *testing.T) {
	_, err := newQuiet().Run(context.Background(), Command{
		Argv: []string{"manafest-definitely-not-a-real-binary"},
	})
	require.Error(t, err)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "manafest-definitely-not-a-real-binary", nf.Name)
	assert.ErrorIs(t, err, core.ErrToolUnavailable)
	assert.NotErrorIs(t, err, core.ErrExternalCall)
}

func TestRun_Timeout(t *testing.T) {
	start := time.Now()
	_, err := newQuiet().Run(context.Background(), Command{
		Argv:    []string{"sh", "-c", "sleep 5; sleep 5"},
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 100*time.Millisecond, te.Timeout)
	assert.ErrorIs(t, err, core.ErrExternalCall)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRun_EmptyArgv(t *testing.T) {
	_, err := newQuiet().Run(context.Background(), Command{})
	assert.ErrorIs(t, err, core.ErrInvalidTarget)
}

func TestRun_Env(t *testing.T) {
	res, err := newQuiet().Run(context.Background(), Command{
		Argv: []string{"sh", "-c", "printf %s \"$MANAFEST_PROBE\""},
		Env:  []string{"MANAFEST_PROBE=hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(res.Stdout))
}

func TestRun_LogsArgv(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	_, err := New(logger).Run(context.Background(), Command{Argv: []string{"true"}})
	require.NoError(t, err)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, 0, last.Data["exit_code"])
	assert.Equal(t, []string{"true"}, last.Data["argv"])
}

func TestCheck(t *testing.T) {
	fake := RunnerFunc(func(ctx context.Context, cmd Command) (*Result, error) {
		return &Result{ExitCode: 1, Stderr: []byte("warning: something\nerror: target not found: foo\n")}, nil
	})

	_, err := Check(context.Background(), fake, Command{Argv: []string{"pacman", "-S", "foo"}})
	require.Error(t, err)

	var ee *ExitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 1, ee.ExitCode)
	assert.Equal(t, "error: target not found: foo", ee.Stderr)
	assert.ErrorIs(t, err, core.ErrExternalCall)
	assert.Contains(t, err.Error(), "pacman -S foo: exit status 1")
}

func TestCheck_PassesThroughRunError(t *testing.T) {
	fake := RunnerFunc(func(ctx context.Context, cmd Command) (*Result, error) {
		return nil, &NotFoundError{Name: "yay"}
	})

	_, err := Check(context.Background(), fake, Command{Argv: []string{"yay"}})
	assert.ErrorIs(t, err, core.ErrToolUnavailable)
}

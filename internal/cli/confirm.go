package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/orchestrator"
)

// promptConfirmer shows the preview panel and asks on the terminal
type promptConfirmer struct {
	out io.Writer
	yes bool
}

func (c *promptConfirmer) Confirm(ctx context.Context, p orchestrator.Preview) (bool, error) {
	fmt.Fprintln(c.out, renderPreview(p))
	if c.yes {
		return true, nil
	}

	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("%s %s with %s?", verb(p), p.Package, p.Backend)).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func verb(p orchestrator.Preview) string {
	switch p.Action {
	case core.ActionInstall:
		return "Install"
	case core.ActionRemove:
		return "Remove"
	}
	return string(p.Action)
}

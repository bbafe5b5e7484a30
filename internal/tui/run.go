package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/the-tax-must-flow/internal/assembler"
)

// Run browses ret in the alternate screen until the user quits or ctx ends.
func Run(ctx context.Context, ret *assembler.ComputedReturn, opts ...Option) error {
	if ret == nil {
		return fmt.Errorf("tui: no return to browse")
	}

	p := tea.NewProgram(New(ret, opts...),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

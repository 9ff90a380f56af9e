package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/stall-keeper/internal/orders"
)

// Run shows the browser until the user quits and returns the rows with their
// final lock state.
func Run(ctx context.Context, cfg Config) ([]orders.Row, error) {
	program := tea.NewProgram(NewModel(cfg), tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("orders browser failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", final)
	}
	return m.Rows(), nil
}

// Package tui is the interactive buy-order browser.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/stall-keeper/internal/cli"
	"github.com/Veraticus/stall-keeper/internal/orders"
)

const (
	lockedMark  = cli.LockIcon
	lockTimeout = 10 * time.Second
	// rows taken by the title, status line and help.
	chromeHeight = 5
)

// ToggleFunc flips the lock on row and returns the new state.
type ToggleFunc func(ctx context.Context, row orders.Row) (bool, error)

// Config holds what the browser shows and how it persists locks.
type Config struct {
	Toggle ToggleFunc
	Now    func() time.Time
	Rows   []orders.Row
	Height int
}

type lockToggledMsg struct {
	err    error
	index  int
	locked bool
}

// Model is the bubbletea model of the browser.
type Model struct {
	now    time.Time
	err    error
	toggle ToggleFunc
	keys   KeyMap
	status string
	help   help.Model
	rows   []orders.Row
	table  table.Model
}

// NewModel builds the browser for cfg.Rows.
func NewModel(cfg Config) Model {
	now := time.Now()
	if cfg.Now != nil {
		now = cfg.Now()
	}

	height := cfg.Height
	if height <= 0 {
		height = 20
	}

	t := table.New(
		table.WithColumns(columns()),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(cli.PrimaryColor)
	t.SetStyles(styles)

	m := Model{
		now:    now,
		toggle: cfg.Toggle,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		rows:   append([]orders.Row(nil), cfg.Rows...),
		table:  t,
	}
	m.table.SetRows(m.tableRows())
	return m
}

func columns() []table.Column {
	return []table.Column{
		{Title: "", Width: 2},
		{Title: "Order", Width: 60},
		{Title: "Qty", Width: 4},
		{Title: "Price", Width: 11},
		{Title: "Age", Width: 8},
		{Title: "ID", Width: 20},
		{Title: "Account", Width: 12},
	}
}

func (m Model) tableRows() []table.Row {
	rows := make([]table.Row, len(m.rows))
	for i, r := range m.rows {
		mark := ""
		if r.Locked {
			mark = lockedMark
		}
		rows[i] = table.Row{
			mark,
			cli.LabelText(r.Label),
			fmt.Sprint(r.Order.Quantity()),
			r.Price(),
			r.Age(m.now),
			r.ID(),
			r.Account,
		}
	}
	return rows
}

// Rows returns the rows with their current lock state.
func (m Model) Rows() []orders.Row {
	return append([]orders.Row(nil), m.rows...)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.ToggleLock):
			return m, m.toggleSelected()
		}

	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		m.help.Width = msg.Width
		return m, nil

	case lockToggledMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.rows[msg.index].Locked = msg.locked
		m.table.SetRows(m.tableRows())
		verb := "Unlocked"
		if msg.locked {
			verb = "Locked"
		}
		m.status = fmt.Sprintf("%s %s", verb, m.rows[msg.index].ID())
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) toggleSelected() tea.Cmd {
	index := m.table.Cursor()
	if m.toggle == nil || index < 0 || index >= len(m.rows) {
		return nil
	}

	row := m.rows[index]
	toggle := m.toggle
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
		defer cancel()

		locked, err := toggle(ctx, row)
		return lockToggledMsg{index: index, locked: locked, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	title := cli.TitleStyle.UnsetMargins().Render(fmt.Sprintf("%s Buy Orders (%d)", cli.StallIcon, len(m.rows)))

	status := cli.SubtleStyle.Render(m.status)
	if m.err != nil {
		status = cli.FormatError(m.err.Error())
	} else if len(m.rows) > 0 {
		if r := m.rows[m.table.Cursor()]; r.Label.Contradiction {
			status = cli.FormatWarning(r.Label.Tooltip)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.table.View(),
		status,
		m.help.View(m.keys),
	)
}

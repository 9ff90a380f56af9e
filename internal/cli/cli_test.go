package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/stall-keeper/internal/expression"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full word", input: "YES\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty answer declines", input: "\n", want: false},
		{name: "end of input declines", input: "", want: false},
		{name: "anything else declines", input: "sure\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm(context.Background(), "2x AK-47 | Redline for 12.00$", "Continue?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "2x AK-47 | Redline for 12.00$")
			assert.Contains(t, out.String(), "Continue? [y/N]")
		})
	}
}

func TestConfirmCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrompter(strings.NewReader("y\n"), &bytes.Buffer{})
	_, err := p.Confirm(ctx, "", "Continue?")
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestLabelText(t *testing.T) {
	plain := expression.Label{Text: "[AK-47 | Redline]"}
	flagged := expression.Label{
		Text:          "[StatTrak][Souvenir thing]",
		Contradiction: true,
		Tooltip:       expression.ContradictionTooltip,
	}

	assert.Equal(t, "[AK-47 | Redline]", LabelText(plain))
	assert.Equal(t, "[AK-47 | Redline]", RenderLabel(plain))
	assert.Equal(t, WarningIcon+" [StatTrak][Souvenir thing]", LabelText(flagged))
	assert.Contains(t, RenderLabel(flagged), "[StatTrak][Souvenir thing]")
}

func TestWriteTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteTable(&out, []string{"ID", "Price"}, [][]string{
		{"O1", "12.00$"},
		{"O22", "3.50$"},
	}))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "O1")
	assert.Contains(t, lines[3], "3.50$")
}

func TestAdvanceNilBar(t *testing.T) {
	assert.NotPanics(t, func() { Advance(nil) })

	var out bytes.Buffer
	bar := NewProgressBar(&out, 2, "Selling")
	Advance(bar)
	Advance(bar)
	assert.True(t, bar.IsFinished())
}

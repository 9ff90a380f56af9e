package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/stall-keeper/internal/model"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{
			name: "boolean keywords",
			expr: "StatTrak == true and (Souvenir == false or Rarity == 5)",
			want: "StatTrak == true && (Souvenir == false || Rarity == 5)",
		},
		{
			name: "keywords inside strings untouched",
			expr: `Item == "Sand and Storm or not" and Rarity == 3`,
			want: `Item == "Sand and Storm or not" && Rarity == 3`,
		},
		{
			name: "integral float literal",
			expr: "FloatValue < 1",
			want: "FloatValue < 1.0",
		},
		{
			name: "sticker any slot",
			expr: "HasSticker(76, -1, 2)",
			want: "(Stickers.filter(s, s.id == 76).size() >= 2)",
		},
		{
			name: "sticker fixed slot",
			expr: "HasSticker(76, 3, 1)",
			want: "(Stickers.filter(s, s.id == 76 && s.slot == 3).size() >= 1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := translate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateUnterminatedString(t *testing.T) {
	_, err := translate(`Item == "AK-47`)
	require.ErrorIs(t, err, ErrMalformedExpression)
}

func TestMatcher(t *testing.T) {
	redline := model.InventoryItem{
		MarketHashName: "StatTrak™ AK-47 | Redline (Field-Tested)",
		FloatValue:     0.21,
		DefIndex:       7,
		PaintIndex:     282,
		PaintSeed:      661,
		Rarity:         model.RarityClassified,
		IsStatTrak:     true,
		Stickers: []model.AppliedSticker{
			{StickerID: 76, Slot: 0},
			{StickerID: 76, Slot: 1},
			{StickerID: 180, Slot: 3},
		},
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"float window", "FloatValue >= 0.15 and FloatValue < 0.38", true},
		{"float window miss", "FloatValue < 0.15", false},
		{"integral bound", "FloatValue < 1", true},
		{"identity pair", "(DefIndex == 7 and PaintIndex == 282)", true},
		{"identity alternatives", "(DefIndex == 9 and PaintIndex == 344) or (DefIndex == 7 and PaintIndex == 282)", true},
		{"identity miss", "(DefIndex == 7 and PaintIndex == 12)", false},
		{"item name", `Item == "StatTrak™ AK-47 | Redline (Field-Tested)"`, true},
		{"stattrak", "StatTrak == true and Souvenir == false", true},
		{"souvenir required", "Souvenir == true", false},
		{"seed", "PaintSeed == 661 and Rarity == 4", true},
		{"sticker quantity", "HasSticker(76, -1, 2)", true},
		{"sticker quantity too high", "HasSticker(76, -1, 3)", false},
		{"sticker slot", "HasSticker(180, 3, 1)", true},
		{"sticker wrong slot", "HasSticker(180, 0, 1)", false},
	}

	e, err := NewEvaluator()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := e.Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, m.Source())

			got, err := m.Matches(redline)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name string
		expr string
	}{
		{"empty", "   "},
		{"unknown attribute", "Color == 3"},
		{"dangling operator", "FloatValue < 0.5 and"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Compile(tt.expr)
			require.ErrorIs(t, err, ErrMalformedExpression)
		})
	}
}

func TestMatcherNonBoolean(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)

	m, err := e.Compile("PaintSeed + 1")
	require.NoError(t, err)

	_, err = m.Matches(model.InventoryItem{})
	require.ErrorIs(t, err, ErrNotBoolean)
}

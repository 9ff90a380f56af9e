// Package refdata loads the static skin and sticker lookup tables.
//
// Tables are loaded once at startup and are read-only afterwards, so a *Tables
// can be shared between goroutines without locking.
package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/stall-keeper/internal/model"
)

// ErrReferenceDataUnavailable is reported when a table cannot be read. Callers
// continue with an empty table; every lookup then misses.
var ErrReferenceDataUnavailable = errors.New("reference data unavailable")

type skinKey struct {
	def   int
	paint int
}

// Tables holds the skin and sticker reference rows.
type Tables struct {
	skins      map[skinKey]string
	skinsByDef map[int]string
	stickers   map[int]model.Sticker
}

// Empty returns tables with no rows.
func Empty() *Tables {
	return &Tables{
		skins:      make(map[skinKey]string),
		skinsByDef: make(map[int]string),
		stickers:   make(map[int]model.Sticker),
	}
}

// Load reads both tables from disk. A table that fails to load is logged and
// left empty.
func Load(skinsPath, stickersPath string) *Tables {
	t := Empty()

	if err := loadFile(skinsPath, t.addSkins); err != nil {
		slog.Warn("Skin table not loaded, names will not resolve",
			"path", skinsPath,
			"error", err)
	}

	if err := loadFile(stickersPath, t.addStickers); err != nil {
		slog.Warn("Sticker table not loaded, stickers will not resolve",
			"path", stickersPath,
			"error", err)
	}

	slog.Debug("Loaded reference data",
		"skins", len(t.skins),
		"stickers", len(t.stickers))

	return t
}

func loadFile(path string, add func(io.Reader) error) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from user configuration
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReferenceDataUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	if err := add(f); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReferenceDataUnavailable, path, err)
	}
	return nil
}

// LoadSkins builds tables holding only the skins read from r.
func LoadSkins(r io.Reader) (*Tables, error) {
	t := Empty()
	if err := t.addSkins(r); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadStickers adds the stickers read from r to the tables.
func (t *Tables) LoadStickers(r io.Reader) error {
	return t.addStickers(r)
}

func (t *Tables) addSkins(r io.Reader) error {
	skins := make(map[skinKey]string)
	byDef := make(map[int]string)

	err := readRows(r, []string{"DefIndex", "PaintIndex", "Name"}, func(line int, cols []string) error {
		def, err := strconv.Atoi(strings.TrimSpace(cols[0]))
		if err != nil {
			return fmt.Errorf("line %d: DefIndex: %w", line, err)
		}
		paint, err := strconv.Atoi(strings.TrimSpace(cols[1]))
		if err != nil {
			return fmt.Errorf("line %d: PaintIndex: %w", line, err)
		}

		key := skinKey{def: def, paint: paint}
		if _, exists := skins[key]; !exists {
			skins[key] = cols[2]
		}
		if _, exists := byDef[def]; !exists {
			byDef[def] = cols[2]
		}
		return nil
	})
	if err != nil {
		return err
	}

	t.skins = skins
	t.skinsByDef = byDef
	return nil
}

func (t *Tables) addStickers(r io.Reader) error {
	stickers := make(map[int]model.Sticker)

	err := readRows(r, []string{"id", "name", "image"}, func(line int, cols []string) error {
		id, err := strconv.Atoi(strings.TrimSpace(cols[0]))
		if err != nil {
			return fmt.Errorf("line %d: id: %w", line, err)
		}
		if _, exists := stickers[id]; !exists {
			stickers[id] = model.Sticker{ID: id, Name: cols[1], Image: cols[2]}
		}
		return nil
	})
	if err != nil {
		return err
	}

	t.stickers = stickers
	return nil
}

// readRows reads a CSV with a header row and calls fn with the requested
// columns, in the order given, for every data row.
func readRows(r io.Reader, columns []string, fn func(line int, cols []string) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	positions := make([]int, len(columns))
	for i, want := range columns {
		positions[i] = -1
		for j, got := range header {
			if strings.TrimSpace(strings.TrimPrefix(got, "\ufeff")) == want {
				positions[i] = j
				break
			}
		}
		if positions[i] < 0 {
			return fmt.Errorf("missing column %q", want)
		}
	}

	line := 1
	cols := make([]string, len(columns))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		for i, pos := range positions {
			if pos >= len(record) {
				return fmt.Errorf("line %d: short row", line)
			}
			cols[i] = record[pos]
		}
		if err := fn(line, cols); err != nil {
			return err
		}
	}
}

// SkinName looks up the display name for an exact (defIndex, paintIndex) pair.
func (t *Tables) SkinName(defIndex, paintIndex int) (string, bool) {
	name, ok := t.skins[skinKey{def: defIndex, paint: paintIndex}]
	return name, ok && name != ""
}

// SkinNameByDefIndex returns the first skin row with the given definition index.
func (t *Tables) SkinNameByDefIndex(defIndex int) (string, bool) {
	name, ok := t.skinsByDef[defIndex]
	return name, ok && name != ""
}

// Sticker looks up a sticker by id.
func (t *Tables) Sticker(id int) (model.Sticker, bool) {
	s, ok := t.stickers[id]
	return s, ok
}

// StickerName looks up a sticker's name by id.
func (t *Tables) StickerName(id int) (string, bool) {
	s, ok := t.stickers[id]
	return s.Name, ok && s.Name != ""
}

// Len returns the number of skin and sticker rows.
func (t *Tables) Len() (skins, stickers int) {
	return len(t.skins), len(t.stickers)
}

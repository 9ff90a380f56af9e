package expression

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/Veraticus/stall-keeper/internal/model"
)

// ErrMalformedExpression is returned when a predicate matches but one of its
// numeric literals cannot be parsed.
var ErrMalformedExpression = errors.New("malformed expression")

// Lookup resolves identities referenced by an expression.
type Lookup interface {
	SkinName(defIndex, paintIndex int) (string, bool)
	StickerName(id int) (string, bool)
}

var (
	floatPattern    = regexp.MustCompile(`FloatValue\s*(<=?|>=?)\s*([\d.]+)`)
	itemPattern     = regexp.MustCompile(`Item\s*==\s*"([^"]+)"`)
	pairPattern     = regexp.MustCompile(`\(DefIndex\s*==\s*(\d+)\s+and\s+PaintIndex\s*==\s*(\d+)\)`)
	stickerPattern  = regexp.MustCompile(`HasSticker\((\d+),\s*(-?\d+),\s*(\d+)\)`)
	seedPattern     = regexp.MustCompile(`PaintSeed\s*==\s*(\d+)`)
	statTrakPattern = regexp.MustCompile(`StatTrak\s*==\s*true`)
	souvenirPattern = regexp.MustCompile(`Souvenir\s*==\s*true`)
	rarityPattern   = regexp.MustCompile(`Rarity\s*==\s*(\d+)`)
)

// FloatRange is the tightest wear-float window named by an expression.
// A nil bound means the expression does not constrain that side.
type FloatRange struct {
	Min *float64
	Max *float64
}

// SkinPair is a (definition index, paint index) identity predicate.
type SkinPair struct {
	DefIndex   int
	PaintIndex int
}

// StickerCondition is one HasSticker predicate. Slot keeps its source text so
// "-1" (any slot) is recognized exactly as written.
type StickerCondition struct {
	Slot      string
	rawQty    string
	StickerID int
	Quantity  int
}

// Descriptor is the decoded form of an expression.
type Descriptor struct {
	FloatRange    *FloatRange
	PaintSeed     *int
	Rarity        *int
	ItemNames     []string
	StickerLabels []string
	Pairs         []SkinPair
	Stickers      []StickerCondition

	StatTrak         bool
	Souvenir         bool
	HasContradiction bool
}

// Parse extracts every recognized predicate from expr and resolves item and
// sticker identities through tables. Identities that do not resolve are
// dropped; they are not errors.
func Parse(expr string, tables Lookup) (*Descriptor, error) {
	d := &Descriptor{}

	if err := d.extractFloatRange(expr); err != nil {
		return nil, err
	}

	for _, m := range itemPattern.FindAllStringSubmatch(expr, -1) {
		d.ItemNames = append(d.ItemNames, m[1])
	}

	for _, m := range pairPattern.FindAllStringSubmatch(expr, -1) {
		def, err := parseInt(m[1])
		if err != nil {
			return nil, err
		}
		paint, err := parseInt(m[2])
		if err != nil {
			return nil, err
		}
		d.Pairs = append(d.Pairs, SkinPair{DefIndex: def, PaintIndex: paint})
		if name, ok := tables.SkinName(def, paint); ok {
			d.ItemNames = append(d.ItemNames, name)
		}
	}

	for _, m := range stickerPattern.FindAllStringSubmatch(expr, -1) {
		id, err := parseInt(m[1])
		if err != nil {
			return nil, err
		}
		qty, err := parseInt(m[3])
		if err != nil {
			return nil, err
		}
		cond := StickerCondition{StickerID: id, Slot: m[2], Quantity: qty, rawQty: m[3]}
		d.Stickers = append(d.Stickers, cond)

		name, ok := tables.StickerName(id)
		if !ok {
			continue
		}
		d.StickerLabels = append(d.StickerLabels, stickerLabel(name, cond))
	}

	if m := seedPattern.FindStringSubmatch(expr); m != nil {
		seed, err := parseInt(m[1])
		if err != nil {
			return nil, err
		}
		d.PaintSeed = &seed
	}

	d.StatTrak = statTrakPattern.MatchString(expr)
	d.Souvenir = souvenirPattern.MatchString(expr)

	if m := rarityPattern.FindStringSubmatch(expr); m != nil {
		rarity, err := parseInt(m[1])
		if err != nil {
			return nil, err
		}
		d.Rarity = &rarity
	}

	d.HasContradiction = contradicts(d.StatTrak, d.Souvenir, d.Rarity)

	return d, nil
}

// extractFloatRange keeps the largest lower bound and the smallest upper bound.
func (d *Descriptor) extractFloatRange(expr string) error {
	matches := floatPattern.FindAllStringSubmatch(expr, -1)
	if len(matches) == 0 {
		return nil
	}

	r := &FloatRange{}
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return fmt.Errorf("%w: float literal %q", ErrMalformedExpression, m[2])
		}

		switch m[1] {
		case "<", "<=":
			if r.Max == nil || v < *r.Max {
				r.Max = &v
			}
		case ">", ">=":
			if r.Min == nil || v > *r.Min {
				r.Min = &v
			}
		}
	}

	d.FloatRange = r
	return nil
}

// contradicts flags orders no real item can fill: StatTrak together with
// Souvenir, or StatTrak on a rarity tier that never carries it.
func contradicts(statTrak, souvenir bool, rarity *int) bool {
	if statTrak && souvenir {
		return true
	}
	return statTrak && rarity != nil && !model.Rarity(*rarity).CanBeStatTrak()
}

func stickerLabel(name string, cond StickerCondition) string {
	label := name
	if cond.Slot != "-1" {
		label += " Slot: " + cond.Slot
	}
	if cond.Quantity > 1 {
		qty := cond.rawQty
		if qty == "" {
			qty = strconv.Itoa(cond.Quantity)
		}
		label += " x " + qty
	}
	return label
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: integer literal %q", ErrMalformedExpression, s)
	}
	return v, nil
}

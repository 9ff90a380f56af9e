package expression

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/stall-keeper/internal/model"
)

// Fixed label texts.
const (
	UnknownOrder         = "Unknown Order"
	ContradictionTooltip = "Order has conflicting attributes."
)

// Label is the rendered description of a buy order. Contradiction marks
// orders whose attributes cannot all hold at once; Text is the same either way
// and the presentation layer decides how to distinguish flagged labels.
type Label struct {
	Text          string
	Tooltip       string
	Contradiction bool
}

func (l Label) String() string {
	return l.Text
}

// Render composes the label for a decoded expression:
//
//	[Float min - max] + [StatTrak][name / name] + [sticker + sticker]
//
// Segments with nothing to show are omitted.
func (d *Descriptor) Render() Label {
	var parts []string

	if d.FloatRange != nil {
		parts = append(parts, "[Float "+d.FloatRange.minText()+" - "+d.FloatRange.maxText()+"]")
	}

	if len(d.ItemNames) > 0 {
		prefix := ""
		if d.StatTrak {
			prefix = "[StatTrak]"
		}
		parts = append(parts, prefix+"["+strings.Join(d.ItemNames, " / ")+"]")
	}

	if len(d.StickerLabels) > 0 {
		parts = append(parts, "["+strings.Join(d.StickerLabels, " + ")+"]")
	}

	label := Label{
		Text:          strings.Join(parts, " + "),
		Contradiction: d.HasContradiction,
	}
	if label.Contradiction {
		label.Tooltip = ContradictionTooltip
	}
	return label
}

// minText and maxText print the bounds the way the marketplace client always
// has: an absent or zero bound shows the 0 / 1 display default.
func (r *FloatRange) minText() string {
	if r.Min == nil || *r.Min == 0 {
		return "0"
	}
	return formatFloat(*r.Min)
}

func (r *FloatRange) maxText() string {
	if r.Max == nil || *r.Max == 0 {
		return "1"
	}
	return formatFloat(*r.Max)
}

// formatFloat prints the shortest representation that round-trips, always
// with a decimal point or exponent ("0.07", "1.0", "1e-05").
func formatFloat(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Describe renders the label for a buy order record. Orders without an
// expression, or whose expression is malformed or describes nothing
// displayable, fall back to "[market_hash_name]" and finally to UnknownOrder.
func Describe(order model.BuyOrder, tables Lookup) Label {
	if strings.TrimSpace(order.Expression) == "" {
		return Label{Text: nameLabel(order)}
	}

	d, err := Parse(order.Expression, tables)
	if err != nil {
		slog.Warn("Falling back to name label for buy order",
			"order_id", order.ID,
			"error", err)
		return Label{Text: nameLabel(order)}
	}

	label := d.Render()
	if label.Text == "" {
		label.Text = nameLabel(order)
	}
	return label
}

func nameLabel(order model.BuyOrder) string {
	if order.MarketHashName != "" {
		return "[" + order.MarketHashName + "]"
	}
	return UnknownOrder
}

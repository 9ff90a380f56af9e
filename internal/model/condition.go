package model

import (
	"fmt"
	"strings"
)

// WearCondition is the exterior bucket derived from an item's float value.
type WearCondition string

// Wear conditions, best to worst.
const (
	FactoryNew    WearCondition = "FN"
	MinimalWear   WearCondition = "MW"
	FieldTested   WearCondition = "FT"
	WellWorn      WearCondition = "WW"
	BattleScarred WearCondition = "BS"
)

// AllConditions lists every wear condition in ascending float order.
var AllConditions = []WearCondition{FactoryNew, MinimalWear, FieldTested, WellWorn, BattleScarred}

// ConditionForFloat maps a 0..1 float to its exterior bucket.
func ConditionForFloat(f float64) WearCondition {
	switch {
	case f < 0.07:
		return FactoryNew
	case f < 0.15:
		return MinimalWear
	case f < 0.38:
		return FieldTested
	case f < 0.45:
		return WellWorn
	default:
		return BattleScarred
	}
}

// ParseCondition accepts an abbreviation ("FT") or full name ("Field-Tested").
func ParseCondition(s string) (WearCondition, error) {
	norm := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(s))
	switch norm {
	case "FN", "FACTORYNEW":
		return FactoryNew, nil
	case "MW", "MINIMALWEAR":
		return MinimalWear, nil
	case "FT", "FIELDTESTED":
		return FieldTested, nil
	case "WW", "WELLWORN":
		return WellWorn, nil
	case "BS", "BATTLESCARRED":
		return BattleScarred, nil
	}
	return "", fmt.Errorf("unknown wear condition %q", s)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

package model

import "fmt"

// Rarity is the marketplace's integer item grade.
type Rarity int

// Rarity tiers.
const (
	RarityConsumer Rarity = iota
	RarityIndustrial
	RarityMilSpec
	RarityRestricted
	RarityClassified
	RarityCovert
	RarityContraband
	RarityExtraordinary
	RarityMaster
)

var rarityNames = map[Rarity]string{
	RarityConsumer:      "Consumer",
	RarityIndustrial:    "Industrial",
	RarityMilSpec:       "Mil-Spec",
	RarityRestricted:    "Restricted",
	RarityClassified:    "Classified",
	RarityCovert:        "Covert",
	RarityContraband:    "Contraband",
	RarityExtraordinary: "Extraordinary",
	RarityMaster:        "Master",
}

// rarityColors are the in-game grade colors.
var rarityColors = map[Rarity]string{
	RarityConsumer:      "#B0C3D9",
	RarityIndustrial:    "#5E98D9",
	RarityMilSpec:       "#4B69FF",
	RarityRestricted:    "#8847FF",
	RarityClassified:    "#D32CE6",
	RarityCovert:        "#EB4B4B",
	RarityContraband:    "#E4AE39",
	RarityExtraordinary: "#EB4B4B",
	RarityMaster:        "#EB4B4B",
}

func (r Rarity) String() string {
	if name, ok := rarityNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rarity(%d)", int(r))
}

// Color returns the hex display color for the tier.
func (r Rarity) Color() string {
	if c, ok := rarityColors[r]; ok {
		return c
	}
	return "#FFFFFF"
}

// CanBeStatTrak reports whether items of this tier can carry a StatTrak variant.
func (r Rarity) CanBeStatTrak() bool {
	return r != RarityConsumer && r != RarityIndustrial
}

// ParseRarity accepts a tier name (case-insensitive) or its integer code.
func ParseRarity(s string) (Rarity, error) {
	for r, name := range rarityNames {
		if equalFold(name, s) {
			return r, nil
		}
	}
	var code int
	if _, err := fmt.Sscanf(s, "%d", &code); err == nil {
		return Rarity(code), nil
	}
	return 0, fmt.Errorf("unknown rarity %q", s)
}

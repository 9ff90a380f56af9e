// Package model defines the core data structures for the stall application.
package model

import (
	"strings"
	"time"
)

// AppliedSticker is a sticker placed on a specific item.
type AppliedSticker struct {
	Name      string  `json:"name,omitempty"`
	StickerID int     `json:"stickerId"`
	Slot      int     `json:"slot"`
	Wear      float64 `json:"wear,omitempty"`
}

// InventoryItem is a single skin instance owned by the account.
type InventoryItem struct {
	AssetID        string           `json:"asset_id"`
	MarketHashName string           `json:"market_hash_name"`
	ItemName       string           `json:"item_name,omitempty"`
	WearName       string           `json:"wear_name,omitempty"`
	IconURL        string           `json:"icon_url,omitempty"`
	Collection     string           `json:"collection,omitempty"`
	Stickers       []AppliedSticker `json:"stickers,omitempty"`
	FloatValue     float64          `json:"float_value"`
	PaintSeed      int              `json:"paint_seed"`
	PaintIndex     int              `json:"paint_index"`
	DefIndex       int              `json:"def_index"`
	Rarity         Rarity           `json:"rarity"`
	IsStatTrak     bool             `json:"is_stattrak"`
	IsSouvenir     bool             `json:"is_souvenir"`
}

// Condition returns the item's exterior. The marketplace's wear name wins,
// then the "(Field-Tested)" suffix of the hash name, then the float bucket.
// Items without any of these (stickers, cases) have no condition.
func (i InventoryItem) Condition() WearCondition {
	if c, err := ParseCondition(i.WearName); err == nil {
		return c
	}

	if open := strings.LastIndex(i.MarketHashName, "("); open >= 0 {
		if end := strings.Index(i.MarketHashName[open:], ")"); end > 0 {
			if c, err := ParseCondition(i.MarketHashName[open+1 : open+end]); err == nil {
				return c
			}
		}
	}

	if i.FloatValue > 0 {
		return ConditionForFloat(i.FloatValue)
	}
	return ""
}

// Listing is an item currently offered for sale in the account's stall.
type Listing struct {
	CreatedAt time.Time     `json:"created_at"`
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	State     string        `json:"state,omitempty"`
	Item      InventoryItem `json:"item"`
	Price     int           `json:"price"`
}

// User is the account owner as reported by the marketplace.
type User struct {
	SteamID  string `json:"steam_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Balance  int    `json:"balance"`
	Pending  int    `json:"pending_balance,omitempty"`
}

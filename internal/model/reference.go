package model

// Sticker is a reference row for a sticker id.
type Sticker struct {
	Name  string
	Image string
	ID    int
}

package entity

// Player occupies one symbol slot in a room.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

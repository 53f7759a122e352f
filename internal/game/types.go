// internal/game/types.go
//
// Core type definitions for cube games.
// Defines:
//   - Color: one of the three cube colors (red/green/blue).
//   - Cubes: a single (count, color) observation.
//   - Pull:  one draw from the bag, an ordered list of Cubes.
//   - Game:  an identifier plus the ordered pulls of one input line.
//   - Limits: per-color bag contents a game is checked against.

package game

import "fmt"

// Color identifies a cube color. The zero value is not a valid color.
type Color uint8

const (
	Red Color = iota + 1
	Green
	Blue
)

// colorKeywords lists the literal spelling of each color in match order.
// None of the keywords is a prefix of another, so order does not affect results.
var colorKeywords = [...]struct {
	word  string
	color Color
}{
	{"red", Red},
	{"green", Green},
	{"blue", Blue},
}

// String returns the lowercase keyword used in game lines.
func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return fmt.Sprintf("Color(%d)", uint8(c))
}

// MarshalText encodes the color as its keyword (used by encoding/json).
func (c Color) MarshalText() ([]byte, error) {
	switch c {
	case Red, Green, Blue:
		return []byte(c.String()), nil
	}
	return nil, fmt.Errorf("invalid color %d", uint8(c))
}

// UnmarshalText accepts exactly the keywords produced by MarshalText.
func (c *Color) UnmarshalText(b []byte) error {
	for _, kw := range colorKeywords {
		if string(b) == kw.word {
			*c = kw.color
			return nil
		}
	}
	return fmt.Errorf("unknown color %q", string(b))
}

// Cubes is one "count color" observation inside a pull.
type Cubes struct {
	Count uint32 `json:"count"`
	Color Color  `json:"color"`
}

// Pull is a single draw. Order follows the input; a color may repeat.
type Pull []Cubes

// Game is the parsed form of one input line.
type Game struct {
	ID    uint32 `json:"id"`    // Number after "Game ".
	Pulls []Pull `json:"pulls"` // Successive draws, in input order. Never empty after Parse.
}

// Limits holds one count per color: the bag contents a game is checked against.
type Limits struct {
	Red   uint32 `json:"red"`
	Green uint32 `json:"green"`
	Blue  uint32 `json:"blue"`
}

// DefaultLimits returns the bag used by the puzzle: 12 red, 13 green, 14 blue.
func DefaultLimits() Limits {
	return Limits{Red: 12, Green: 13, Blue: 14}
}

// Of returns the count stored for color c.
func (l Limits) Of(c Color) uint32 {
	switch c {
	case Red:
		return l.Red
	case Green:
		return l.Green
	case Blue:
		return l.Blue
	}
	return 0
}

// internal/game/rules.go
//
// Puzzle rules evaluated on parsed games.
//   - Possible:   could the game have been played with a given bag?
//   - MinimumSet: the smallest bag that makes the game possible.
//   - Power:      product of the three counts of a CubeSet.
//
// Within one pull, repeated colors are summed before comparison.

package game

import "math/big"

// totals sums the counts per color within one pull. uint64 so that
// repeated colors cannot wrap.
func (p Pull) totals() (red, green, blue uint64) {
	for _, c := range p {
		switch c.Color {
		case Red:
			red += uint64(c.Count)
		case Green:
			green += uint64(c.Count)
		case Blue:
			blue += uint64(c.Count)
		}
	}
	return red, green, blue
}

// Possible reports whether every pull fits in a bag holding l.
func (g Game) Possible(l Limits) bool {
	for _, p := range g.Pulls {
		r, gr, b := p.totals()
		if r > uint64(l.Red) || gr > uint64(l.Green) || b > uint64(l.Blue) {
			return false
		}
	}
	return true
}

// CubeSet counts cubes per color. Counts are 64-bit because repeated
// colors in one pull can sum past math.MaxUint32.
type CubeSet struct {
	Red   uint64 `json:"red"`
	Green uint64 `json:"green"`
	Blue  uint64 `json:"blue"`
}

// MinimumSet returns the fewest cubes of each color the game requires.
func (g Game) MinimumSet() CubeSet {
	var m CubeSet
	for _, p := range g.Pulls {
		r, gr, b := p.totals()
		m.Red, m.Green, m.Blue = max(m.Red, r), max(m.Green, gr), max(m.Blue, b)
	}
	return m
}

// Power is red*green*blue, computed without overflow.
func (m CubeSet) Power() *big.Int {
	p := new(big.Int).SetUint64(m.Red)
	p.Mul(p, new(big.Int).SetUint64(m.Green))
	return p.Mul(p, new(big.Int).SetUint64(m.Blue))
}

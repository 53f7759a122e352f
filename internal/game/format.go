package game

import (
	"strconv"
	"strings"
)

// String renders the game in canonical line form, e.g.
// "Game 1: 3 red, 4 blue; 2 green". Parse(g.String()) yields an equal Game.
func (g Game) String() string {
	var b strings.Builder
	b.WriteString("Game ")
	b.WriteString(strconv.FormatUint(uint64(g.ID), 10))
	b.WriteString(": ")
	for i, pull := range g.Pulls {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(pull.String())
	}
	return b.String()
}

// String renders the pull as comma separated "count color" pairs.
func (p Pull) String() string {
	var b strings.Builder
	for i, c := range p {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.String())
	}
	return b.String()
}

func (c Cubes) String() string {
	return strconv.FormatUint(uint64(c.Count), 10) + " " + c.Color.String()
}

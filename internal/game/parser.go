// internal/game/parser.go
//
// Recursive-descent parser for game lines.
//
// Grammar (all separators are exact literals, no other whitespace is allowed):
//
//	line   = "Game " int ": " pulls EOF
//	pulls  = pull { "; " pull }
//	pull   = pair { ", " pair }
//	pair   = int " " color
//	color  = "red" | "green" | "blue"
//	int    = digit { digit }            (fits in uint32)
//
// Every rule is a method on a cursor. A rule either advances the cursor and
// returns its value or returns a *ParseError pointing at the byte where it
// gave up. Errors are never recovered from; the first failure ends the parse.

package game

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrorKind classifies a parse failure. ErrorKind values satisfy the error
// interface so callers can write errors.Is(err, game.UnknownColor).
type ErrorKind uint8

const (
	MalformedInteger ErrorKind = iota + 1 // no digit where an integer was expected
	IntegerOverflow                       // digit run does not fit in uint32
	UnknownColor                          // none of red/green/blue at the cursor
	MalformedPair                         // count not followed by a single space
	EmptyPull                             // pull without any count-color pair
	TrailingInput                         // bytes left after a complete game
	MalformedHeader                       // "Game " or ": " literal missing
)

var kindNames = map[ErrorKind]string{
	MalformedInteger: "malformed integer",
	IntegerOverflow:  "integer overflow",
	UnknownColor:     "unknown color",
	MalformedPair:    "malformed pair",
	EmptyPull:        "empty pull",
	TrailingInput:    "trailing input",
	MalformedHeader:  "malformed header",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
}

func (k ErrorKind) Error() string { return k.String() }

// ParseError reports where and why a line failed to parse.
type ParseError struct {
	Kind   ErrorKind // failure class
	Offset int       // byte index into Input where the failure was detected
	Input  string    // the full line given to Parse
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse game: %s at offset %d in %q", e.Kind, e.Offset, e.Input)
}

// Is matches an ErrorKind target against the error's kind.
func (e *ParseError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// Parse converts a single game line into a Game.
// On failure the returned error is always a *ParseError and the Game is zero.
func Parse(line string) (Game, error) {
	p := &cursor{src: line}
	g, err := p.game()
	if err != nil {
		return Game{}, err
	}
	return g, nil
}

// cursor tracks the read position in the line being parsed.
type cursor struct {
	src string
	pos int
}

func (p *cursor) fail(kind ErrorKind) *ParseError {
	return &ParseError{Kind: kind, Offset: p.pos, Input: p.src}
}

// literal consumes s if the remaining input starts with it.
func (p *cursor) literal(s string) bool {
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

// atDigit reports whether the next byte is an ASCII digit.
func (p *cursor) atDigit() bool {
	return p.pos < len(p.src) && isDigit(p.src[p.pos])
}

func (p *cursor) game() (Game, error) {
	if !p.literal("Game ") {
		return Game{}, p.fail(MalformedHeader)
	}
	id, err := p.integer()
	if err != nil {
		return Game{}, err
	}
	if !p.literal(": ") {
		return Game{}, p.fail(MalformedHeader)
	}
	pulls, err := p.pulls()
	if err != nil {
		return Game{}, err
	}
	if p.pos != len(p.src) {
		return Game{}, p.fail(TrailingInput)
	}
	return Game{ID: id, Pulls: pulls}, nil
}

func (p *cursor) pulls() ([]Pull, error) {
	var out []Pull
	for {
		pull, err := p.pull()
		if err != nil {
			return nil, err
		}
		out = append(out, pull)
		if !p.literal("; ") {
			return out, nil
		}
	}
}

func (p *cursor) pull() (Pull, error) {
	if !p.atDigit() {
		return nil, p.fail(EmptyPull)
	}
	var out Pull
	for {
		c, err := p.pair()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if !p.literal(", ") {
			return out, nil
		}
	}
}

func (p *cursor) pair() (Cubes, error) {
	n, err := p.integer()
	if err != nil {
		return Cubes{}, err
	}
	if !p.literal(" ") {
		return Cubes{}, p.fail(MalformedPair)
	}
	c, err := p.color()
	if err != nil {
		return Cubes{}, err
	}
	return Cubes{Count: n, Color: c}, nil
}

func (p *cursor) color() (Color, error) {
	for _, kw := range colorKeywords {
		if p.literal(kw.word) {
			return kw.color, nil
		}
	}
	return 0, p.fail(UnknownColor)
}

// integer reads a run of ASCII digits. Overflow is reported at the first digit.
func (p *cursor) integer() (uint32, error) {
	start := p.pos
	for p.atDigit() {
		p.pos++
	}
	if p.pos == start {
		return 0, p.fail(MalformedInteger)
	}
	v, err := strconv.ParseUint(p.src[start:p.pos], 10, 32)
	if err != nil {
		// Only ErrRange is possible here since every byte is a digit.
		return 0, &ParseError{Kind: IntegerOverflow, Offset: start, Input: p.src}
	}
	return uint32(v), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

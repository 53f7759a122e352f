// internal/solver/solver.go
//
// Batch evaluation of game lines.
// Responsibilities:
//   - Read input line by line (LF or CRLF), skipping blank lines.
//   - Parse every line with game.Parse.
//   - Apply the failure policy: abort on the first bad line, or record it and go on.
//   - Accumulate the id sum of possible games and the total power of minimum sets.
//
// Each game's verdict is logged at debug level.

package solver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cubes/internal/game"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// Options controls a Run.
type Options struct {
	Limits      game.Limits // bag the games are checked against
	SkipInvalid bool        // record unparsable lines instead of aborting
}

// Failure is a line that could not be parsed while SkipInvalid was set.
type Failure struct {
	Line   int              `json:"line"` // 1-based line number
	Kind   string           `json:"kind"`
	Offset int              `json:"offset"`
	Err    *game.ParseError `json:"-"`
}

// Report is the outcome of a Run.
type Report struct {
	Limits   game.Limits `json:"limits"`
	Lines    int         `json:"lines"`    // non-blank lines read
	Games    int         `json:"games"`    // lines that parsed
	Possible int         `json:"possible"` // games that fit Limits
	IDSum    uint64      `json:"idSum"`    // sum of ids of possible games
	PowerSum *big.Int    `json:"powerSum"` // sum of MinimumSet().Power()
	Failures []Failure   `json:"failures"`
}

// LineError wraps a parse failure with the line it occurred on.
type LineError struct {
	Line int
	Err  *game.ParseError
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *LineError) Unwrap() error { return e.Err }

// TooLongError reports a line longer than the reader accepts.
type TooLongError struct {
	Line  int // 1-based line number
	Limit int // bytes
}

func (e *TooLongError) Error() string {
	return fmt.Sprintf("line %d: longer than %d bytes", e.Line, e.Limit)
}
func (e *TooLongError) Unwrap() error { return bufio.ErrTooLong }

// Run evaluates every game line read from r.
// Without SkipInvalid the first unparsable line ends the run with a *LineError.
func Run(ctx context.Context, r io.Reader, opts Options) (*Report, error) {
	rep := &Report{Limits: opts.Limits, PowerSum: new(big.Int), Failures: []Failure{}}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rep.Lines++

		g, err := game.Parse(line)
		if err != nil {
			var pe *game.ParseError
			if !errors.As(err, &pe) {
				return nil, err
			}
			if !opts.SkipInvalid {
				return nil, &LineError{Line: lineNo, Err: pe}
			}
			log.Warn().Int("line", lineNo).Str("kind", pe.Kind.String()).Int("offset", pe.Offset).Msg("skipping unparsable line")
			rep.Failures = append(rep.Failures, Failure{Line: lineNo, Kind: pe.Kind.String(), Offset: pe.Offset, Err: pe})
			continue
		}
		rep.add(g)
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &TooLongError{Line: lineNo + 1, Limit: maxLineBytes}
		}
		return nil, fmt.Errorf("read input: %w", err)
	}
	return rep, nil
}

func (rep *Report) add(g game.Game) {
	rep.Games++
	minimum := g.MinimumSet()
	possible := g.Possible(rep.Limits)
	if possible {
		rep.Possible++
		rep.IDSum += uint64(g.ID)
	}
	rep.PowerSum.Add(rep.PowerSum, minimum.Power())

	log.Debug().
		Uint32("game", g.ID).
		Bool("possible", possible).
		Interface("minimum", minimum).
		Msg("evaluated game")
}

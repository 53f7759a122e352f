package solver

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cubes/assets"
	"github.com/robalobadob/cubes/internal/game"
)

func TestRun_Example(t *testing.T) {
	in, err := assets.Example()
	require.NoError(t, err)

	rep, err := Run(context.Background(), strings.NewReader(in), Options{Limits: game.DefaultLimits()})
	require.NoError(t, err)

	assert.Equal(t, 5, rep.Lines)
	assert.Equal(t, 5, rep.Games)
	assert.Equal(t, 3, rep.Possible)
	assert.EqualValues(t, 8, rep.IDSum)
	assert.Equal(t, "2286", rep.PowerSum.String())
	assert.Empty(t, rep.Failures)
}

func TestRun_CRLFAndBlankLines(t *testing.T) {
	in := "Game 1: 1 red\r\n\r\n   \nGame 2: 20 red\r\n"
	rep, err := Run(context.Background(), strings.NewReader(in), Options{Limits: game.DefaultLimits()})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Lines)
	assert.Equal(t, 1, rep.Possible)
	assert.EqualValues(t, 1, rep.IDSum)
}

func TestRun_AbortsOnBadLine(t *testing.T) {
	in := "Game 1: 1 red\nGame 2: 1 purple\nGame 3: 1 blue\n"
	rep, err := Run(context.Background(), strings.NewReader(in), Options{Limits: game.DefaultLimits()})
	require.Error(t, err)
	assert.Nil(t, rep)

	var le *LineError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 2, le.Line)
	assert.ErrorIs(t, err, game.UnknownColor)
	assert.Contains(t, err.Error(), "line 2: parse game: unknown color at offset 10")
}

func TestRun_SkipInvalid(t *testing.T) {
	in := "Game 1: 1 red\nGame 2: 1 purple\nGame 3: 1 blue; \n"
	rep, err := Run(context.Background(), strings.NewReader(in), Options{Limits: game.DefaultLimits(), SkipInvalid: true})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Lines)
	assert.Equal(t, 1, rep.Games)
	require.Len(t, rep.Failures, 2)
	assert.Equal(t, Failure{Line: 2, Kind: "unknown color", Offset: 10, Err: rep.Failures[0].Err}, rep.Failures[0])
	assert.Equal(t, 3, rep.Failures[1].Line)
	assert.Equal(t, game.EmptyPull, rep.Failures[1].Err.Kind)
}

func TestRun_CustomLimits(t *testing.T) {
	in, err := assets.Example()
	require.NoError(t, err)

	rep, err := Run(context.Background(), strings.NewReader(in), Options{Limits: game.Limits{Red: 20, Green: 13, Blue: 15}})
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Possible)
	assert.EqualValues(t, 15, rep.IDSum)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, strings.NewReader("Game 1: 1 red\n"), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_LineTooLong(t *testing.T) {
	in := "Game 1: 1 red\nGame 2: " + strings.Repeat("1 red, ", maxLineBytes/7+1) + "1 red\n"
	_, err := Run(context.Background(), strings.NewReader(in), Options{})
	require.Error(t, err)

	var tl *TooLongError
	require.True(t, errors.As(err, &tl))
	assert.Equal(t, 2, tl.Line)
	assert.Equal(t, maxLineBytes, tl.Limit)
	assert.ErrorIs(t, err, bufio.ErrTooLong)
}

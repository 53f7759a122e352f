// commands.go
//
// Command line entry points:
//   - solve: evaluate game lines from stdin (or the bundled sample) and print the answer.
//   - serve: run the HTTP API.
//   - token: mint a bearer token accepted by POST /runs.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/cubes/assets"
	"github.com/robalobadob/cubes/internal/config"
	"github.com/robalobadob/cubes/internal/httpserver"
	"github.com/robalobadob/cubes/internal/runs"
	"github.com/robalobadob/cubes/internal/solver"
	"github.com/robalobadob/cubes/internal/store"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "cubes",
	Short:         "Cube game solver",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		zerolog.SetGlobalLevel(cfg.LogLevel)
		return nil
	},
}

var solveOpts struct {
	part        int
	skipInvalid bool
	example     bool
	record      bool
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Read game lines from stdin and print the answer",
	Long: `Reads one game per line, e.g.

  Game 1: 3 blue, 4 red; 1 red, 2 green, 6 blue; 2 green

Part 1 prints the sum of the ids of games possible with the configured bag
(CUBES_MAX_RED/GREEN/BLUE, default 12/13/14). Part 2 prints the sum of the
powers of each game's minimum set. Part 0 prints both.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSolve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := runs.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open run history %s: %w", cfg.DBPath, err)
		}
		defer rs.Close()

		if cfg.InsecureSecret() {
			log.Warn().Msg("JWT_SECRET not set, using development secret")
		}
		srv := httpserver.New(store.NewMemoryStore(), rs, cfg)
		log.Info().Str("port", cfg.Port).Msg("starting cubes server")
		return srv.Start(":" + cfg.Port)
	},
}

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for POST /runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, exp, err := httpserver.SignToken(cfg.JWTSecret, tokenSubject, cfg.TokenTTL)
		if err != nil {
			return err
		}
		log.Info().Str("subject", tokenSubject).Time("expires", exp).Msg("token issued")
		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}

func init() {
	solveCmd.Flags().IntVar(&solveOpts.part, "part", 1, "answer to print: 1, 2, or 0 for both")
	solveCmd.Flags().BoolVar(&solveOpts.skipInvalid, "skip-invalid", false, "skip unparsable lines instead of aborting")
	solveCmd.Flags().BoolVar(&solveOpts.example, "example", false, "use the bundled sample input instead of stdin")
	solveCmd.Flags().BoolVar(&solveOpts.record, "record", false, "store the report in the run history (DB_PATH)")

	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token owner")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(solveCmd, serveCmd, tokenCmd)
}

func runSolve(ctx context.Context, stdin io.Reader, out io.Writer) error {
	if solveOpts.part < 0 || solveOpts.part > 2 {
		return fmt.Errorf("--part must be 0, 1 or 2, got %d", solveOpts.part)
	}

	in, source := stdin, "stdin"
	if solveOpts.example {
		s, err := assets.Example()
		if err != nil {
			return err
		}
		in, source = strings.NewReader(s), "example"
	}

	rep, err := solver.Run(ctx, in, solver.Options{Limits: cfg.Limits, SkipInvalid: solveOpts.skipInvalid})
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}

	if solveOpts.record {
		rs, err := runs.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer rs.Close()
		id, err := rs.Insert(ctx, runs.NewRecord("cli", source, rep))
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		log.Info().Int64("run", id).Msg("run recorded")
	}

	if solveOpts.part != 2 {
		fmt.Fprintln(out, rep.IDSum)
	}
	if solveOpts.part != 1 {
		fmt.Fprintln(out, rep.PowerSum)
	}
	return nil
}

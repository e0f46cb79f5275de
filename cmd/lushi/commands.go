package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/lushi/pkg/compose"
	"github.com/japaniel/lushi/pkg/config"
	"github.com/japaniel/lushi/pkg/db"
	"github.com/japaniel/lushi/pkg/dictionary"
	"github.com/japaniel/lushi/pkg/lexicon"
	"github.com/japaniel/lushi/pkg/phonetic"
	"github.com/japaniel/lushi/pkg/poem"
	"github.com/japaniel/lushi/pkg/rank"
)

const importBatchSize = 200

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <lexicon.json|glob>...",
		Short: "Load JSON lexicon documents into the database",
		Long: `Load one or more JSON lexicon documents into the database. Arguments may
be doublestar patterns such as "data/**/*.json".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			conn, err := db.Open(a.cfg.Lexicon.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer conn.Close()

			var words, skipped int
			for _, path := range paths {
				b, err := dictionary.Load(path, a.logger)
				if err != nil {
					return fmt.Errorf("failed to load lexicon %s: %w", path, err)
				}
				if err := db.SaveBatch(conn, b.Words, b.Padding, importBatchSize, a.logger); err != nil {
					return fmt.Errorf("failed to store lexicon %s: %w", path, err)
				}
				a.logger.Info("lexicon imported", zap.String("path", path), zap.Int("words", len(b.Words)), zap.Int("skipped", b.Skipped))
				words += len(b.Words)
				skipped += b.Skipped
			}
			n, err := db.CountWords(conn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d words (%d skipped) from %d files, %d stored in %s\n",
				words, skipped, len(paths), n, a.cfg.Lexicon.Database)
			return nil
		},
	}
}

// expandPaths resolves doublestar patterns; plain paths pass through.
func expandPaths(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no lexicon documents match %q", arg)
		}
		out = append(out, matches...)
	}
	return out, nil
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <lexicon.json>",
		Short: "Write the database lexicon to a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(a.cfg.Lexicon.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer conn.Close()

			words, err := db.LoadWords(conn, a.logger)
			if err != nil {
				return err
			}
			padding, err := db.LoadPadding(conn, a.logger)
			if err != nil {
				return err
			}
			if err := dictionary.SaveDocument(args[0], dictionary.NewDocument(words, padding)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d words to %s\n", len(words), args[0])
			return nil
		},
	}
}

type generateOptions struct {
	topic      string
	rows, cols int
	candidates int
	keep       int
	save       bool
}

func newGenerateCmd(a *app) *cobra.Command {
	var o generateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate random poems and print the best ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd, o)
		},
	}
	cmd.Flags().StringVar(&o.topic, "topic", "", "topic word (overrides config)")
	cmd.Flags().IntVar(&o.rows, "rows", 0, "lines per poem, 4 or 8")
	cmd.Flags().IntVar(&o.cols, "cols", 0, "characters per line, 5 or 7")
	cmd.Flags().IntVarP(&o.candidates, "candidates", "n", 0, "number of random poems to score")
	cmd.Flags().IntVar(&o.keep, "keep", 0, "number of poems to print")
	cmd.Flags().BoolVar(&o.save, "save", false, "store the printed poems in the database")
	return cmd
}

func (a *app) generate(cmd *cobra.Command, o generateOptions) error {
	ctx := cmd.Context()
	cfg := a.cfg
	cfg.Merge(&config.Config{
		Poem:    config.PoemConfig{Rows: o.rows, Cols: o.cols, Candidates: o.candidates, Keep: o.keep},
		Lexicon: config.LexiconConfig{Topic: o.topic},
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	repo, err := a.repository(ctx)
	if err != nil {
		return err
	}
	a.logger.Debug("lexicon ready", zap.String("summary", repo.String()))

	maker, err := compose.New(repo, cfg.Poem.Cols, compose.WithLogger(a.logger))
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := a.logger.With(zap.String("run", runID))
	poems, err := rank.Generate(ctx, cfg.Poem.Candidates, cfg.Poem.Workers,
		rank.RandomPoem(cfg.Poem.Rows, cfg.Poem.Cols, maker, poem.WithLogger(logger)))
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	logger.Info("candidates generated", zap.Int("poems", len(poems)))

	best, err := rank.Ranker{Workers: cfg.Poem.Workers, Logger: logger}.Best(ctx, poems, cfg.Poem.Keep)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, p := range best {
		fmt.Fprintf(out, "#%d  %d\n%s%s\n\n", i+1, p.Fitness(), p, p.Report())
	}
	if o.save {
		return a.savePoems(best, runID)
	}
	return nil
}

// repository builds the lexicon: the topic is transcribed first, then words
// come from the JSON document if one is configured, else from the database.
func (a *app) repository(ctx context.Context) (*lexicon.Repository, error) {
	cfg := a.cfg
	lookup, err := a.phoneticLookup()
	if err != nil {
		return nil, err
	}
	repo, err := lexicon.New(ctx, cfg.Lexicon.Topic, cfg.TopicCategories(), lookup, lexicon.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	if cfg.Lexicon.Dictionary != "" {
		if err := dictionary.EnsureDictionary(ctx, cfg.Lexicon.Dictionary, cfg.Lexicon.SourceURL, a.logger); err != nil {
			return nil, err
		}
		b, err := dictionary.Load(cfg.Lexicon.Dictionary, a.logger)
		if err != nil {
			return nil, err
		}
		b.ApplyTo(repo)
		return repo, nil
	}

	conn, err := db.Open(cfg.Lexicon.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer conn.Close()
	words, err := db.LoadWords(conn, a.logger)
	if err != nil {
		return nil, err
	}
	padding, err := db.LoadPadding(conn, a.logger)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, errors.New("the database holds no words; run lushi import first")
	}
	repo.AddWords(words)
	repo.SetPaddingWords(padding)
	return repo, nil
}

func (a *app) phoneticLookup() (phonetic.Lookup, error) {
	cfg := a.cfg.Phonetic
	var chain phonetic.Chain
	if len(cfg.Static) > 0 {
		table, err := phonetic.ParseTable(cfg.Static)
		if err != nil {
			return nil, fmt.Errorf("phonetic.static: %w", err)
		}
		chain = append(chain, table)
	}
	if cfg.Endpoint != "" {
		web := phonetic.NewWebLookup(cfg.Endpoint, cfg.Timeout, a.logger)
		if cfg.UserAgent != "" {
			web.UserAgent = cfg.UserAgent
		}
		chain = append(chain, web)
	}
	return chain, nil
}

func (a *app) savePoems(poems []*poem.Poem, runID string) error {
	conn, err := db.Open(a.cfg.Lexicon.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer conn.Close()
	for _, p := range poems {
		id, err := db.SavePoem(conn, p, runID)
		if err != nil {
			return err
		}
		a.logger.Info("poem saved", zap.Int64("id", id), zap.String("run", runID), zap.Int("fitness", p.Fitness()))
	}
	return nil
}

func newScoreCmd(a *app) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "score <poem.json>",
		Short: "Score a poem document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := dictionary.LoadPoem(args[0], poem.WithLogger(a.logger))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n總分: %d\n", p, p.Report(), p.Fitness())
			if save {
				return a.savePoems([]*poem.Poem{p}, uuid.NewString())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store the poem in the database")
	return cmd
}

func newTopCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "List the best stored poems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(a.cfg.Lexicon.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer conn.Close()
			rows, err := db.TopPoems(conn, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range rows {
				fmt.Fprintf(out, "#%d  %d [%s] (押韻 %d, 平仄 %d, 對偶 %d, 多樣性 %d)\n%s\n\n",
					r.ID, r.Total, r.RunID, r.Rhyme, r.Tone, r.Antithesis, r.Diversity, r.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "number of poems to list")
	return cmd
}

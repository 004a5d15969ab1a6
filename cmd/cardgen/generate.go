package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/wondercards-api/internal/config"
	"github.com/phrazzld/wondercards-api/internal/content"
	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/phrazzld/wondercards-api/internal/generation"
	"github.com/phrazzld/wondercards-api/internal/platform/llm"
	"github.com/phrazzld/wondercards-api/internal/platform/logger"
)

var generateCmd = &cobra.Command{
	Use:   "generate TOPIC [TOPIC...]",
	Short: "Generate a card set for each topic",
	Long: "Generate a card set for each topic and print the results as a JSON array. " +
		"Topics are generated concurrently; a topic whose generation fails outright still " +
		"receives placeholder cards with source \"fallback\".",
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var (
	genAgeGroup     string
	genCourseLength string
	genOutputFile   string
	genConcurrency  int
	genHTML         bool
	genEnvFile      string
)

func init() {
	generateCmd.Flags().StringVarP(&genAgeGroup, "age", "a", string(domain.AgeGroup8To10), "Age group: 5-7, 8-10 or 11-12")
	generateCmd.Flags().StringVarP(&genCourseLength, "length", "l", string(domain.CourseLengthQuick), "Course length: quick, standard or deep")
	generateCmd.Flags().StringVarP(&genOutputFile, "out", "o", "", "Write JSON to this file instead of stdout")
	generateCmd.Flags().IntVarP(&genConcurrency, "concurrency", "c", 2, "Maximum topics generated at once")
	generateCmd.Flags().BoolVar(&genHTML, "html", false, "Render card text from Markdown to HTML")
	generateCmd.Flags().StringVar(&genEnvFile, "env-file", "", "Load environment variables from this file")

	rootCmd.AddCommand(generateCmd)
}

// topicResult is one entry of the generate command's JSON output.
type topicResult struct {
	Topic    string        `json:"topic"`
	Source   string        `json:"source"`
	Attempts int           `json:"attempts"`
	Cards    []domain.Card `json:"cards"`
}

func runGenerate(cmd *cobra.Command, topics []string) error {
	ageGroup, err := domain.ParseAgeGroup(genAgeGroup)
	if err != nil {
		return err
	}
	length, err := domain.ParseCourseLength(genCourseLength)
	if err != nil {
		return err
	}

	reqs := make([]domain.GenerationRequest, len(topics))
	for i, topic := range topics {
		reqs[i], err = domain.NewGenerationRequest(topic, ageGroup, length)
		if err != nil {
			return fmt.Errorf("topic %q: %w", topic, err)
		}
	}

	cfg, err := loadConfig(genEnvFile)
	if err != nil {
		return err
	}
	l, err := logger.SetupWithWriter(cfg.Server, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, _, err := llm.FromConfig(ctx, cfg, l)
	if err != nil {
		return err
	}

	var renderer *content.Renderer
	if genHTML {
		renderer = content.NewRenderer()
	}

	results, err := generateAll(ctx, pipeline, renderer, reqs, genConcurrency)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if genOutputFile != "" {
		f, err := os.Create(genOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return writeResults(out, results)
}

// cardGenerator is the part of *generation.Pipeline the command uses.
type cardGenerator interface {
	GenerateCards(ctx context.Context, req domain.GenerationRequest) (*generation.Result, error)
}

// generateAll runs gen for each request with at most limit in flight.
// Results keep the order of reqs.
func generateAll(
	ctx context.Context,
	gen cardGenerator,
	renderer *content.Renderer,
	reqs []domain.GenerationRequest,
	limit int,
) ([]topicResult, error) {
	if limit < 1 {
		limit = 1
	}

	results := make([]topicResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, req := range reqs {
		g.Go(func() error {
			res, err := gen.GenerateCards(gctx, req)
			if err != nil {
				return fmt.Errorf("topic %q: %w", req.Topic, err)
			}
			cards := res.Cards
			if renderer != nil {
				if cards, err = renderer.RenderCards(cards); err != nil {
					return fmt.Errorf("topic %q: %w", req.Topic, err)
				}
			}
			results[i] = topicResult{
				Topic:    req.Topic,
				Source:   string(res.Source),
				Attempts: res.Attempts,
				Cards:    cards,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeResults(w io.Writer, results []topicResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

func loadConfig(envFile string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if envFile != "" {
		cfg, err = config.Load(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

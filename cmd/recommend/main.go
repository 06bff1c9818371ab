package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"github.com/aaronds650/MovieMeV2/internal/ai"
	"github.com/aaronds650/MovieMeV2/internal/config"
	"github.com/aaronds650/MovieMeV2/internal/logging"
	"github.com/aaronds650/MovieMeV2/internal/recommendation"
	"github.com/aaronds650/MovieMeV2/internal/search"
)

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func eraTags() string {
	tags := []string{recommendation.EraAny}
	for _, e := range recommendation.Eras() {
		tags = append(tags, e.Tag)
	}
	return strings.Join(tags, ", ")
}

func main() {
	var (
		genres    = flag.String("genres", "", "Comma-separated genres")
		subgenres = flag.String("subgenres", "", "Comma-separated subgenres")
		moods     = flag.String("moods", "", "Comma-separated moods (replaces genres in the prompt)")
		favorites = flag.String("favorites", "", "Comma-separated favorite movies")
		eras      = flag.String("eras", recommendation.EraAny, "Comma-separated eras: "+eraTags())
		exclude   = flag.String("exclude", "", "Comma-separated titles to exclude")
		acclaimed = flag.Bool("acclaimed", false, "Prioritize critically acclaimed films")
		more      = flag.Int("more", 0, "Number of load-more batches after the first")
	)
	flag.Parse()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console"})

	client := ai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
	if !client.HasCredential() {
		fmt.Println("⚠️  OPENAI_API_KEY is not set")
		os.Exit(1)
	}
	gateway := ai.NewGateway(client, ai.Config{
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
	})

	var catalog recommendation.Catalog
	if cfg.TMDb.APIKey != "" {
		catalog = search.NewTMDbClient(search.TMDbConfig{
			APIKey:            cfg.TMDb.APIKey,
			BaseURL:           cfg.TMDb.BaseURL,
			Timeout:           cfg.TMDb.Timeout,
			RequestsPerSecond: cfg.TMDb.RequestsPerSecond,
			Burst:             cfg.TMDb.Burst,
		})
	}

	service := recommendation.NewService(gateway, nil, catalog, nil, recommendation.Config{
		BatchSize:  cfg.Recommend.BatchSize,
		MaxRetries: cfg.Recommend.MaxRetries,
		SessionCap: cfg.Recommend.SessionCap,
		SessionTTL: cfg.Recommend.SessionTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())

	session, batch, err := service.StartSession(ctx, recommendation.StartRequest{
		Identity: "cli",
		Profile: recommendation.TasteProfile{
			Genres:    splitList(*genres),
			Subgenres: splitList(*subgenres),
			Moods:     splitList(*moods),
			Favorites: splitList(*favorites),
			Acclaimed: *acclaimed,
			Eras:      splitList(*eras),
		},
		Exclude: splitList(*exclude),
	})
	if err != nil {
		fail(err)
	}

	fmt.Printf("🎬 Session %s\n", session.ID)
	printBatch(1, batch)

	for i := 0; i < *more; i++ {
		_, batch, err := service.LoadMore(ctx, session.ID, "cli")
		if errors.Is(err, recommendation.ErrSessionCapReached) || errors.Is(err, recommendation.ErrSessionExhausted) {
			fmt.Printf("\n%v\n", err)
			break
		}
		if err != nil {
			fail(err)
		}
		printBatch(i+2, batch)
	}

	view := session.Snapshot()
	fmt.Printf("\nTotal: %d/%d (exhausted: %v)\n", view.Total, view.Cap, view.Exhausted)
}

func printBatch(n int, batch []recommendation.CandidateMovie) {
	fmt.Printf("\nBatch %d\n", n)
	fmt.Println("========")
	for _, m := range batch {
		fmt.Printf("%5.1f  %s (%d) - %s\n", m.MatchScore, m.Title, m.Year, m.Director)
		fmt.Printf("       %s\n", m.MatchReason)
		fmt.Printf("       %s\n", m.PosterURL)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "❌ %s (%s)\n", ai.PublicMessage(ai.KindOf(err)), ai.KindOf(err))
	logging.Error().Err(err).Msg("recommendation failed")
	os.Exit(1)
}

// Command baingctl asks a bAIng server for recommendations and rates them
// into the liked, disliked and skipped collections from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/baing/baing/internal/client"
	"github.com/baing/baing/internal/logger"
	"github.com/baing/baing/internal/media"
)

func main() {
	server := flag.String("server", envOr("BAING_SERVER", "http://localhost:8000"), "bAIng server URL")
	email := flag.String("email", os.Getenv("BAING_EMAIL"), "Account email")
	kinds := flag.String("kinds", "", "Comma-separated kinds (movies,tv-shows,yt-channels,online-content); empty uses the server default")
	count := flag.Int("count", 10, "Number of recommendations")
	query := flag.String("query", "", "Free-text guidance for the recommendations")
	enrich := flag.Bool("enrich", true, "Fetch posters and descriptions before rating")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level})
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	parsed, err := parseKinds(*kinds)
	if err != nil {
		fatal(err)
	}

	password := os.Getenv("BAING_PASSWORD")
	if *email == "" || password == "" {
		fatal(fmt.Errorf("set -email (or BAING_EMAIL) and BAING_PASSWORD"))
	}

	c := client.New(*server, 3*time.Minute, log.Logger)
	if err := c.Login(ctx, *email, password); err != nil {
		fatal(fmt.Errorf("login: %w", err))
	}

	s := &session{
		api:    c,
		in:     os.Stdin,
		out:    os.Stdout,
		enrich: *enrich,
		logger: log.Logger,
	}
	if err := s.run(ctx, parsed, *count, *query); err != nil {
		fatal(err)
	}
}

func parseKinds(raw string) ([]media.Kind, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var kinds []media.Kind
	for _, slug := range strings.Split(raw, ",") {
		k, err := media.KindFromSlug(strings.TrimSpace(slug))
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "baingctl:", err)
	os.Exit(1)
}

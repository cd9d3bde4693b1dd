package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/client"
	"github.com/baing/baing/internal/collections"
	"github.com/baing/baing/internal/media"
	"github.com/baing/baing/internal/rating"
)

// API is the part of the server the terminal session needs.
type API interface {
	rating.CollectionPatcher
	Collections(ctx context.Context) ([]collections.UserCollection, error)
	Discover(ctx context.Context, kinds []media.Kind, count int, query string) (*client.Discovery, error)
	Enrich(ctx context.Context, items []media.Item) ([]media.Item, error)
}

var errQuit = errors.New("quit")

type session struct {
	api    API
	in     io.Reader
	out    io.Writer
	enrich bool
	logger zerolog.Logger
}

type tally map[rating.Action]int

func (s *session) run(ctx context.Context, kinds []media.Kind, count int, query string) error {
	cols, err := s.api.Collections(ctx)
	if err != nil {
		return fmt.Errorf("load collections: %w", err)
	}

	found, err := s.api.Discover(ctx, kinds, count, query)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	for _, w := range found.Warnings {
		fmt.Fprintf(s.out, "warning: %s: %s\n", w.Kind, w.Message)
	}
	if len(found.Items) == 0 {
		fmt.Fprintln(s.out, "No recommendations this time.")
		return nil
	}

	items := found.Items
	if s.enrich {
		enriched, err := s.api.Enrich(ctx, items)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Enrichment failed, showing plain results")
		} else {
			items = enriched
		}
	}

	queue := rating.NewQueue()
	queue.Push(items...)
	reconciler := rating.NewReconciler(s.api, queue, cols, s.logger)

	counts, err := s.rateAll(ctx, queue, reconciler)
	fmt.Fprintf(s.out, "\nLiked %d, disliked %d, skipped %d, %d left unrated.\n",
		counts[rating.ActionLike], counts[rating.ActionDislike], counts[rating.ActionSkip], queue.Len())
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func (s *session) rateAll(ctx context.Context, queue *rating.Queue, r *rating.Reconciler) (tally, error) {
	counts := tally{}
	scanner := bufio.NewScanner(s.in)
	entries := queue.Entries()

	for i, entry := range entries {
		s.show(i+1, len(entries), entry.Item)

		for {
			fmt.Fprint(s.out, "[l]ike  [d]islike  [s]kip  [n]ext  [q]uit > ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return counts, err
				}
				return counts, errQuit
			}

			answer := strings.TrimSpace(scanner.Text())
			switch strings.ToLower(answer) {
			case "n", "next", "":
			case "q", "quit":
				return counts, errQuit
			default:
				action, err := rating.ParseAction(answer)
				if err != nil {
					fmt.Fprintln(s.out, "Unknown answer:", answer)
					continue
				}
				if _, err := r.Rate(ctx, entry.ID, action); err != nil {
					var pe *rating.PreconditionError
					if errors.As(err, &pe) {
						return counts, err
					}
					fmt.Fprintln(s.out, "Could not save rating:", err)
					continue
				}
				counts[action]++
			}
			break
		}
	}
	return counts, nil
}

func (s *session) show(n, total int, it media.Item) {
	fmt.Fprintf(s.out, "\n(%d/%d) %s  %s\n", n, total, it.Kind(), it.Display())
	if meta := it.Meta(); meta != nil && meta.Reason != "" {
		fmt.Fprintf(s.out, "  why: %s\n", meta.Reason)
	}
	if overview := overviewOf(it); overview != "" {
		fmt.Fprintf(s.out, "  %s\n", overview)
	}
}

func overviewOf(it media.Item) string {
	switch m := it.Media.(type) {
	case *media.Movie:
		if m.Details != nil {
			return m.Details.Overview
		}
	case *media.TvShow:
		if m.Details != nil {
			return m.Details.Overview
		}
	case *media.YTChannel:
		return m.Description
	case *media.OnlineContent:
		return m.Description
	}
	return ""
}

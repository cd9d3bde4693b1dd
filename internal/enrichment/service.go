// Package enrichment attaches catalog details to media items: TMDB records
// for movies and TV shows, OpenGraph page data for channels and web content.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/baing/baing/internal/enrichment/page"
	"github.com/baing/baing/internal/enrichment/tmdb"
	"github.com/baing/baing/internal/media"
	"github.com/baing/baing/internal/metrics"
)

// MaxItems bounds one Coalesce call.
const MaxItems = 100

var ErrTooManyItems = errors.New("too many items to enrich")

// KeyResolver returns the user's own TMDB key, or "" to use the server key.
type KeyResolver interface {
	TMDBKey(ctx context.Context, userID int64) (string, error)
}

type Service struct {
	tmdb        *tmdb.Client
	scraper     *page.Scraper
	cache       Cache
	keys        KeyResolver
	concurrency int
	logger      zerolog.Logger
}

func NewService(tmdbClient *tmdb.Client, scraper *page.Scraper, cache Cache, concurrency int, logger zerolog.Logger) *Service {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Service{
		tmdb:        tmdbClient,
		scraper:     scraper,
		cache:       cache,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "enrichment").Logger(),
	}
}

// SetKeyResolver enables per-user TMDB keys.
func (s *Service) SetKeyResolver(r KeyResolver) {
	s.keys = r
}

// Coalesce returns copies of items with details filled in where a lookup
// succeeded. Lookups run concurrently; a failed lookup leaves that item's
// details unset and does not affect the others. Output order matches input.
func (s *Service) Coalesce(ctx context.Context, userID int64, items []media.Item) ([]media.Item, error) {
	if len(items) > MaxItems {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(items), MaxItems)
	}

	client := s.tmdbFor(ctx, userID)
	out := make([]media.Item, len(items))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, it := range items {
		out[i] = it.Clone()
		if out[i].Media == nil || out[i].HasDetails() {
			continue
		}
		g.Go(func() error {
			if err := s.enrich(ctx, client, out[i]); err != nil {
				metrics.EnrichmentLookups.WithLabelValues(out[i].Kind().Slug(), "error").Inc()
				s.logger.Debug().Err(err).Str("kind", out[i].Kind().String()).Str("title", out[i].Title()).Msg("Enrichment lookup failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	return out, nil
}

func (s *Service) tmdbFor(ctx context.Context, userID int64) *tmdb.Client {
	if s.keys == nil || userID == 0 {
		return s.tmdb
	}
	key, err := s.keys.TMDBKey(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("userId", userID).Msg("Falling back to server TMDB key")
		return s.tmdb
	}
	return s.tmdb.WithAPIKey(key)
}

func (s *Service) enrich(ctx context.Context, client *tmdb.Client, it media.Item) error {
	kind := it.Kind().Slug()
	switch m := it.Media.(type) {
	case *media.Movie:
		d, err := lookup(ctx, s, kind, movieKey(m), func() (*media.MovieDetails, error) {
			return client.SearchMovie(ctx, m.Name, m.Year)
		})
		if err != nil {
			return err
		}
		m.Details = d
	case *media.TvShow:
		d, err := lookup(ctx, s, kind, tvKey(m), func() (*media.TvShowDetails, error) {
			return client.SearchTV(ctx, m.Name, yearOf(m.FirstAirDate))
		})
		if err != nil {
			return err
		}
		m.Details = d
	case *media.YTChannel:
		if m.ChannelID == "" {
			return fmt.Errorf("%w: channel id missing", page.ErrInvalidURL)
		}
		u := s.scraper.ChannelURL(m.ChannelID)
		d, err := lookup(ctx, s, kind, "page:"+u, func() (*media.PageDetails, error) {
			return s.scraper.Fetch(ctx, u)
		})
		if err != nil {
			return err
		}
		m.Details = d
	case *media.OnlineContent:
		d, err := lookup(ctx, s, kind, "page:"+m.URL, func() (*media.PageDetails, error) {
			return s.scraper.Fetch(ctx, m.URL)
		})
		if err != nil {
			return err
		}
		m.Details = d
		if m.BgImage == "" {
			m.BgImage = d.ImageURL
		}
	}
	return nil
}

// lookup serves key from the cache or calls fetch and stores its result.
func lookup[T any](ctx context.Context, s *Service, kind, key string, fetch func() (*T, error)) (*T, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				metrics.EnrichmentLookups.WithLabelValues(kind, "hit").Inc()
				return &v, nil
			}
		}
	}

	v, err := fetch()
	if err != nil {
		return nil, err
	}
	metrics.EnrichmentLookups.WithLabelValues(kind, "miss").Inc()

	if s.cache != nil {
		if raw, err := json.Marshal(v); err == nil {
			s.cache.Set(ctx, key, raw)
		}
	}
	return v, nil
}

func movieKey(m *media.Movie) string {
	return fmt.Sprintf("movie:%s:%d", strings.ToLower(m.Name), m.Year)
}

func tvKey(s *media.TvShow) string {
	return fmt.Sprintf("tv:%s:%d", strings.ToLower(s.Name), yearOf(s.FirstAirDate))
}

// yearOf parses the year of a YYYY-MM-DD date, or returns 0.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

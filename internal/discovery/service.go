// Package discovery turns a user's rating history and optional guidance into
// fresh recommendations from the configured language model.
package discovery

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/collections"
	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/logger"
	"github.com/baing/baing/internal/media"
	"github.com/baing/baing/internal/metrics"
)

// EventDiscoveryCompleted is pushed to the user after a successful request.
const EventDiscoveryCompleted = "discovery:completed"

// CollectionLister reads a user's special collections.
type CollectionLister interface {
	ListSpecial(ctx context.Context, ownerID int64) ([]collections.UserCollection, error)
}

// Completer sends an instruction to the active provider.
type Completer interface {
	Complete(ctx context.Context, in llm.Instruction, schema llm.Schema) (*llm.Completion, error)
	ProviderName() string
}

// Broadcaster pushes events to one user's connected clients.
type Broadcaster interface {
	SendToUser(userID int64, msgType string, payload any)
}

// Request asks for up to Count items of one kind.
type Request struct {
	Kind     media.Kind
	Count    int
	Guidance string
}

// Result holds recommendations in delivery order. Len(Items) never exceeds
// the requested count.
type Result struct {
	Items    []media.Item
	Warnings []PartialBatchWarning
}

// CompletedEvent is the payload of EventDiscoveryCompleted.
type CompletedEvent struct {
	Kinds    []media.Kind `json:"kinds"`
	Count    int          `json:"count"`
	Warnings int          `json:"warnings"`
}

type Service struct {
	collections  CollectionLister
	gateway      Completer
	broadcaster  Broadcaster
	maxCount     int
	defaultKinds []media.Kind
	shuffle      func([]media.Item)
	logger       zerolog.Logger
}

func NewService(cols CollectionLister, gateway Completer, cfg config.DiscoveryConfig, log zerolog.Logger) *Service {
	log = log.With().Str("component", "discovery").Logger()

	var kinds []media.Kind
	for _, slug := range cfg.DefaultKinds {
		k, err := media.KindFromSlug(strings.TrimSpace(slug))
		if err != nil {
			log.Warn().Str("kind", slug).Msg("Ignoring unknown default discovery kind")
			continue
		}
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		kinds = media.Kinds()
	}

	maxCount := cfg.MaxCount
	if maxCount <= 0 {
		maxCount = 50
	}

	return &Service{
		collections:  cols,
		gateway:      gateway,
		maxCount:     maxCount,
		defaultKinds: kinds,
		shuffle:      shuffleItems,
		logger:       log,
	}
}

// SetBroadcaster sets the push channel for discovery events.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetShuffle replaces the final shuffle, for deterministic tests.
func (s *Service) SetShuffle(fn func([]media.Item)) {
	s.shuffle = fn
}

// Discover returns up to req.Count new items of req.Kind. Every item
// carries discovery metadata.
func (s *Service) Discover(ctx context.Context, userID int64, req Request) (*Result, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", media.ErrUnknownKind, req.Kind)
	}
	if err := s.checkCount(req.Count); err != nil {
		return nil, err
	}

	cols, err := s.collections.ListSpecial(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load rating history: %w", err)
	}

	items, err := s.discover(ctx, cols, req)
	if err != nil {
		return nil, err
	}

	result := &Result{Items: items}
	s.notify(userID, []media.Kind{req.Kind}, result)
	return result, nil
}

// DiscoverAll spreads count across kinds, asks for every kind concurrently
// and returns the combined items in random order. Kinds that fail are
// reported as warnings when at least one kind succeeds.
func (s *Service) DiscoverAll(ctx context.Context, userID int64, kinds []media.Kind, count int, guidance string) (*Result, error) {
	kinds = uniqueKinds(kinds)
	if len(kinds) == 0 {
		kinds = s.defaultKinds
	}
	for _, k := range kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: %q", media.ErrUnknownKind, k)
		}
	}
	if err := s.checkCount(count); err != nil {
		return nil, err
	}

	cols, err := s.collections.ListSpecial(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load rating history: %w", err)
	}

	split := SplitCount(count, len(kinds))
	outcomes := make([]kindOutcome, len(kinds))

	var wg sync.WaitGroup
	for i, kind := range kinds {
		if split[i] == 0 {
			continue
		}
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			items, err := s.discover(ctx, cols, req)
			outcomes[i] = kindOutcome{attempted: true, items: items, err: err}
		}(i, Request{Kind: kind, Count: split[i], Guidance: guidance})
	}
	wg.Wait()

	result := &Result{}
	var firstErr error
	attempted, failed := 0, 0
	for i, o := range outcomes {
		if !o.attempted {
			continue
		}
		attempted++
		if o.err != nil {
			failed++
			if firstErr == nil {
				firstErr = o.err
			}
			result.Warnings = append(result.Warnings, newPartialBatchWarning(kinds[i], o.err))
			continue
		}
		result.Items = append(result.Items, o.items...)
	}

	if failed == attempted {
		return nil, firstErr
	}
	if failed > 0 {
		s.logger.Warn().Int("failed", failed).Int("attempted", attempted).Msg("Partial discovery batch")
	}

	s.shuffle(result.Items)
	s.notify(userID, kinds, result)
	return result, nil
}

type kindOutcome struct {
	attempted bool
	items     []media.Item
	err       error
}

func (s *Service) discover(ctx context.Context, cols []collections.UserCollection, req Request) ([]media.Item, error) {
	c := contractFor(req.Kind)
	in := BuildInstruction(req.Kind, req.Count, req.Guidance, ExtractHistory(cols, req.Kind))

	start := time.Now()
	completion, err := s.gateway.Complete(ctx, in, c.schema)
	if err != nil {
		metrics.DiscoveryRequests.WithLabelValues(req.Kind.Slug(), "provider_error").Inc()
		return nil, err
	}

	candidates, err := c.decode(completion)
	if err != nil {
		metrics.DiscoveryRequests.WithLabelValues(req.Kind.Slug(), "format_error").Inc()
		s.logger.Warn().
			Err(err).
			Str("kind", req.Kind.String()).
			Str("raw", logger.Truncate(completion.Raw(), rawErrorLimit)).
			Msg("Discarding malformed model response")
		return nil, err
	}

	seen := ratedTitles(cols, req.Kind)
	items := make([]media.Item, 0, min(len(candidates), req.Count))
	for _, it := range candidates {
		key := titleKey(it)
		if _, dup := seen[key]; dup || key == "" {
			continue
		}
		seen[key] = struct{}{}
		ensureMeta(it, req.Guidance)
		items = append(items, it)
		if len(items) == req.Count {
			break
		}
	}

	metrics.DiscoveryRequests.WithLabelValues(req.Kind.Slug(), "success").Inc()
	metrics.DiscoveryItems.WithLabelValues(req.Kind.Slug()).Add(float64(len(items)))
	s.logger.Info().
		Str("kind", req.Kind.String()).
		Str("provider", s.gateway.ProviderName()).
		Int("requested", req.Count).
		Int("returned", len(items)).
		Int("dropped", len(candidates)-len(items)).
		Dur("elapsed", time.Since(start)).
		Msg("Discovery completed")

	return items, nil
}

func (s *Service) checkCount(count int) error {
	if count < 1 || count > s.maxCount {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidCount, count, s.maxCount)
	}
	return nil
}

func (s *Service) notify(userID int64, kinds []media.Kind, r *Result) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.SendToUser(userID, EventDiscoveryCompleted, CompletedEvent{
		Kinds:    kinds,
		Count:    len(r.Items),
		Warnings: len(r.Warnings),
	})
}

// SplitCount divides total into n parts that differ by at most one, larger
// parts first.
func SplitCount(total, n int) []int {
	if n <= 0 {
		return nil
	}
	parts := make([]int, n)
	base, rem := total/n, total%n
	for i := range parts {
		parts[i] = base
		if i < rem {
			parts[i]++
		}
	}
	return parts
}

func ensureMeta(it media.Item, guidance string) {
	meta := it.Meta()
	if meta == nil {
		it.SetMeta(&media.DiscoveryMeta{Query: guidance})
		return
	}
	if meta.Query == "" {
		meta.Query = guidance
	}
}

func uniqueKinds(kinds []media.Kind) []media.Kind {
	var out []media.Kind
	seen := make(map[media.Kind]bool, len(kinds))
	for _, k := range kinds {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func shuffleItems(items []media.Item) {
	rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

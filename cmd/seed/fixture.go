package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/baing/baing/internal/collections"
	"github.com/baing/baing/internal/media"
	"github.com/baing/baing/internal/users"
)

// Fixture is the YAML seed document. Entries use the same tagged shape as
// the API, e.g. `- Movie: {name: Heat, year: 1995}`.
type Fixture struct {
	Users []UserFixture `yaml:"users"`
}

type UserFixture struct {
	Name        string              `yaml:"name"`
	Email       string              `yaml:"email"`
	Password    string              `yaml:"password"`
	TMDBAPIKey  string              `yaml:"tmdb_api_key"`
	Liked       []map[string]any    `yaml:"liked"`
	Disliked    []map[string]any    `yaml:"disliked"`
	Skipped     []map[string]any    `yaml:"skipped"`
	Collections []CollectionFixture `yaml:"collections"`
}

type CollectionFixture struct {
	Name    string           `yaml:"name"`
	Tags    []string         `yaml:"tags"`
	Entries []map[string]any `yaml:"entries"`
}

// ParseFixture decodes a fixture and validates every entry.
func ParseFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	for _, u := range f.Users {
		if u.Email == "" {
			return nil, errors.New("fixture user without email")
		}
		for _, raw := range [][]map[string]any{u.Liked, u.Disliked, u.Skipped} {
			if _, err := toItems(raw); err != nil {
				return nil, fmt.Errorf("user %s: %w", u.Email, err)
			}
		}
		for _, c := range u.Collections {
			if _, err := toItems(c.Entries); err != nil {
				return nil, fmt.Errorf("user %s collection %q: %w", u.Email, c.Name, err)
			}
		}
	}
	return &f, nil
}

// toItems converts YAML maps to tagged items by way of their JSON form.
func toItems(raw []map[string]any) ([]media.Item, error) {
	items := make([]media.Item, 0, len(raw))
	for i, entry := range raw {
		data, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		var it media.Item
		if err := json.Unmarshal(data, &it); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		items = append(items, it)
	}
	return items, nil
}

// Seeder applies fixtures. Running it twice appends entries again; it does
// not deduplicate.
type Seeder struct {
	users       *users.Service
	collections *collections.Service
	logger      zerolog.Logger
}

func (s *Seeder) Apply(ctx context.Context, f *Fixture) error {
	for _, u := range f.Users {
		if err := s.applyUser(ctx, u); err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
	}
	return nil
}

func (s *Seeder) applyUser(ctx context.Context, u UserFixture) error {
	user, err := s.users.Register(ctx, users.RegisterInput{Name: u.Name, Email: u.Email, Password: u.Password})
	if errors.Is(err, users.ErrEmailTaken) {
		user, err = s.users.Authenticate(ctx, u.Email, u.Password)
	}
	if err != nil {
		return err
	}

	if u.TMDBAPIKey != "" {
		key := u.TMDBAPIKey
		if _, err := s.users.Update(ctx, user.ID, users.UpdateInput{TMDBAPIKey: &key}); err != nil {
			return err
		}
	}

	for label, raw := range map[string][]map[string]any{
		collections.SpecialLiked:    u.Liked,
		collections.SpecialDisliked: u.Disliked,
		collections.SpecialSkipped:  u.Skipped,
	} {
		if len(raw) == 0 {
			continue
		}
		col, err := s.collections.Special(ctx, user.ID, label)
		if err != nil {
			return err
		}
		if err := s.appendEntries(ctx, user.ID, *col, raw); err != nil {
			return err
		}
	}

	for _, c := range u.Collections {
		col, err := s.collections.Create(ctx, user.ID, collections.CreateInput{Name: c.Name, Tags: c.Tags})
		if err != nil {
			return err
		}
		if err := s.appendEntries(ctx, user.ID, *col, c.Entries); err != nil {
			return err
		}
	}

	s.logger.Info().Str("email", u.Email).Int64("userId", user.ID).Msg("Seeded user")
	return nil
}

func (s *Seeder) appendEntries(ctx context.Context, ownerID int64, col collections.UserCollection, raw []map[string]any) error {
	items, err := toItems(raw)
	if err != nil {
		return err
	}
	doc := col.Clone()
	doc.Collection.Entries = append(doc.Collection.Entries, items...)
	_, err = s.collections.Replace(ctx, ownerID, col.ID, doc)
	return err
}

// Package settings persists per-guild preferences in redis so they survive
// player teardown and restarts.
package settings

import (
	"context"
	"fmt"

	redislib "github.com/redis/go-redis/v9"
)

// Preferences are the remembered per-guild defaults applied when a new
// player is created.
type Preferences struct {
	Locale   string
	LoopMode string
}

type Store struct {
	client *redislib.Client
}

func NewStore(client *redislib.Client) *Store {
	return &Store{client: client}
}

func key(guildID string) string {
	return fmt.Sprintf("guild:%s:prefs", guildID)
}

// Get loads the guild's preferences. A guild with nothing stored yields
// zero-value preferences, not an error.
func (s *Store) Get(ctx context.Context, guildID string) (Preferences, error) {
	fields, err := s.client.HGetAll(ctx, key(guildID)).Result()
	if err != nil {
		return Preferences{}, fmt.Errorf("load preferences for guild %s: %w", guildID, err)
	}

	return Preferences{
		Locale:   fields["locale"],
		LoopMode: fields["loop_mode"],
	}, nil
}

func (s *Store) SetLocale(ctx context.Context, guildID, locale string) error {
	if err := s.client.HSet(ctx, key(guildID), "locale", locale).Err(); err != nil {
		return fmt.Errorf("store locale for guild %s: %w", guildID, err)
	}
	return nil
}

func (s *Store) SetLoopMode(ctx context.Context, guildID, mode string) error {
	if err := s.client.HSet(ctx, key(guildID), "loop_mode", mode).Err(); err != nil {
		return fmt.Errorf("store loop mode for guild %s: %w", guildID, err)
	}
	return nil
}

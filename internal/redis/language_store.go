package redisclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-booking/internal/i18n"
)

// LanguageStore persists visitors' language choice without expiry.
type LanguageStore struct {
	client *redis.Client
}

func NewLanguageStore(client *redis.Client) *LanguageStore {
	return &LanguageStore{client: client}
}

var _ i18n.PreferenceStore = (*LanguageStore)(nil)

func languageKey(visitorID string) string {
	return i18n.PreferenceKey + ":" + visitorID
}

func (s *LanguageStore) LoadLanguage(ctx context.Context, visitorID string) (i18n.Language, bool, error) {
	v, err := s.client.Get(ctx, languageKey(visitorID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load language: %w", err)
	}
	lang, ok := i18n.ParseLanguage(v)
	return lang, ok, nil
}

func (s *LanguageStore) SaveLanguage(ctx context.Context, visitorID string, lang i18n.Language) error {
	if err := s.client.Set(ctx, languageKey(visitorID), string(lang), 0).Err(); err != nil {
		return fmt.Errorf("save language: %w", err)
	}
	return nil
}

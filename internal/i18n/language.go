package i18n

import (
	"context"
	"strings"
	"sync"
)

type Language string

const (
	Uzbek   Language = "uz"
	Russian Language = "ru"

	// Primary is the default and fallback language; Secondary is the alternate one.
	Primary   = Uzbek
	Secondary = Russian
)

// PreferenceKey is the storage key the language choice is persisted under.
const PreferenceKey = "akfa_language"

// ParseLanguage accepts only the two supported codes.
func ParseLanguage(s string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case Uzbek:
		return Uzbek, true
	case Russian:
		return Russian, true
	}
	return "", false
}

// PreferenceStore persists a visitor's language choice.
// LoadLanguage returns ok=false when nothing valid is stored.
type PreferenceStore interface {
	LoadLanguage(ctx context.Context, visitorID string) (lang Language, ok bool, err error)
	SaveLanguage(ctx context.Context, visitorID string, lang Language) error
}

// MemoryStore keeps preferences for the life of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	prefs map[string]Language
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: make(map[string]Language)}
}

func (m *MemoryStore) LoadLanguage(_ context.Context, visitorID string) (Language, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lang, ok := m.prefs[visitorID]
	return lang, ok, nil
}

func (m *MemoryStore) SaveLanguage(_ context.Context, visitorID string, lang Language) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[visitorID] = lang
	return nil
}

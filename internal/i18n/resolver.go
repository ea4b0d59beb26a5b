package i18n

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/logging"
)

// Translator picks the field for the active language.
type Translator func(primary, secondary string) string

// Resolver holds one visitor's active language. It is handed explicitly to
// every rendering unit; there is no package-level language state.
type Resolver struct {
	mu        sync.RWMutex
	visitorID string
	language  Language
	store     PreferenceStore
	logger    *zap.Logger
	listeners []func(Language)
}

// NewResolver restores the persisted choice for visitorID. A missing store,
// a storage failure, or an unknown stored value all yield the primary language.
func NewResolver(ctx context.Context, store PreferenceStore, visitorID string, logger *zap.Logger) *Resolver {
	r := &Resolver{
		visitorID: visitorID,
		language:  Primary,
		store:     store,
		logger:    logging.OrNop(logger),
	}
	if store == nil || visitorID == "" {
		return r
	}

	lang, ok, err := store.LoadLanguage(ctx, visitorID)
	if err != nil {
		r.logger.Warn("language preference unavailable", zap.String("visitor_id", visitorID), zap.Error(err))
		return r
	}
	if ok {
		if parsed, valid := ParseLanguage(string(lang)); valid {
			r.language = parsed
		}
	}
	return r
}

// Fixed returns a resolver pinned to lang with no persistence.
func Fixed(lang Language) *Resolver {
	if _, ok := ParseLanguage(string(lang)); !ok {
		lang = Primary
	}
	return &Resolver{language: lang, logger: zap.NewNop()}
}

func (r *Resolver) Language() Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.language
}

// Translate returns secondary only when the secondary language is active and
// secondary is non-empty; primary otherwise.
func (r *Resolver) Translate(primary, secondary string) string {
	if r.Language() == Secondary && secondary != "" {
		return secondary
	}
	return primary
}

// T is Translate as a Translator value.
func (r *Resolver) T() Translator {
	return r.Translate
}

// SetLanguage switches the active language, persists it, and notifies every
// subscriber before returning. Unsupported codes are ignored. Persistence
// failures are logged; the switch still takes effect.
func (r *Resolver) SetLanguage(ctx context.Context, lang Language) {
	parsed, ok := ParseLanguage(string(lang))
	if !ok {
		return
	}

	r.mu.Lock()
	r.language = parsed
	listeners := append([]func(Language){}, r.listeners...)
	r.mu.Unlock()

	if r.store != nil && r.visitorID != "" {
		if err := r.store.SaveLanguage(ctx, r.visitorID, parsed); err != nil {
			r.logger.Warn("persist language preference", zap.String("visitor_id", r.visitorID), zap.Error(err))
		}
	}

	for _, fn := range listeners {
		fn(parsed)
	}
}

// Subscribe registers fn to run on every language switch.
func (r *Resolver) Subscribe(fn func(Language)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

package i18n

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) LoadLanguage(context.Context, string) (Language, bool, error) {
	return "", false, errors.New("storage disabled")
}

func (failingStore) SaveLanguage(context.Context, string, Language) error {
	return errors.New("storage disabled")
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name      string
		lang      Language
		primary   string
		secondary string
		want      string
	}{
		{"primary ignores secondary", Primary, "Kardiologiya", "Кардиология", "Kardiologiya"},
		{"primary with empty secondary", Primary, "Kardiologiya", "", "Kardiologiya"},
		{"secondary present", Secondary, "Kardiologiya", "Кардиология", "Кардиология"},
		{"secondary empty falls back", Secondary, "Kardiologiya", "", "Kardiologiya"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fixed(tt.lang).Translate(tt.primary, tt.secondary))
		})
	}
}

func TestNewResolverDefaultsToPrimary(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, Primary, NewResolver(ctx, nil, "v1", nil).Language())
	assert.Equal(t, Primary, NewResolver(ctx, NewMemoryStore(), "v1", nil).Language())
	assert.Equal(t, Primary, NewResolver(ctx, failingStore{}, "v1", nil).Language())

	store := NewMemoryStore()
	require.NoError(t, store.SaveLanguage(ctx, "v1", Language("en")))
	assert.Equal(t, Primary, NewResolver(ctx, store, "v1", nil).Language())
}

func TestSetLanguagePersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewResolver(ctx, store, "v1", nil)

	var seen []Language
	r.Subscribe(func(l Language) { seen = append(seen, l) })

	r.SetLanguage(ctx, Secondary)

	assert.Equal(t, Secondary, r.Language())
	assert.Equal(t, []Language{Secondary}, seen)
	assert.Equal(t, "Кардиология", r.Translate("Kardiologiya", "Кардиология"))

	restored := NewResolver(ctx, store, "v1", nil)
	assert.Equal(t, Secondary, restored.Language())

	other := NewResolver(ctx, store, "v2", nil)
	assert.Equal(t, Primary, other.Language())
}

func TestSetLanguageIgnoresUnknownCode(t *testing.T) {
	r := Fixed(Secondary)
	r.SetLanguage(context.Background(), Language("de"))
	assert.Equal(t, Secondary, r.Language())
}

func TestSetLanguageSurvivesStorageFailure(t *testing.T) {
	r := NewResolver(context.Background(), failingStore{}, "v1", nil)
	r.SetLanguage(context.Background(), Secondary)
	assert.Equal(t, Secondary, r.Language())
}

func TestBookingLabels(t *testing.T) {
	uz := Booking(Fixed(Uzbek).T())
	ru := Booking(Fixed(Russian).T())

	assert.Equal(t, "Yuborish", uz.Submit)
	assert.Equal(t, "Отправить", ru.Submit)
	assert.Equal(t, uz.Placeholder.Phone, ru.Placeholder.Phone)
}

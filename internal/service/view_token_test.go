package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distructnote/api/internal/models"
	appErrors "github.com/distructnote/api/pkg/errors"
)

func TestViewTokenRoundTrip(t *testing.T) {
	svc := NewViewTokenService(ViewTokenConfig{Secret: "token-secret", TTL: time.Minute})

	created := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)
	view := &models.NoteView{
		Content:      "hidden message",
		CurrentViews: 2,
		MaxViews:     3,
		Destroyed:    false,
		CreatedAt:    created,
		ExpiresAt:    created.Add(24 * time.Hour),
	}

	token, err := svc.Issue(view)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	redeemed, err := svc.Redeem(token)
	require.NoError(t, err)
	assert.Equal(t, view.Content, redeemed.Content)
	assert.Equal(t, view.CurrentViews, redeemed.CurrentViews)
	assert.Equal(t, view.MaxViews, redeemed.MaxViews)
	assert.Equal(t, view.Destroyed, redeemed.Destroyed)
	assert.True(t, view.CreatedAt.Equal(redeemed.CreatedAt))
	assert.True(t, view.ExpiresAt.Equal(redeemed.ExpiresAt))
}

func TestViewTokenExpired(t *testing.T) {
	svc := NewViewTokenService(ViewTokenConfig{Secret: "token-secret", TTL: time.Minute})
	svc.ttl = -time.Minute

	token, err := svc.Issue(&models.NoteView{Content: "gone"})
	require.NoError(t, err)

	_, err = svc.Redeem(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestViewTokenTampered(t *testing.T) {
	svc := NewViewTokenService(ViewTokenConfig{Secret: "token-secret", TTL: time.Minute})

	token, err := svc.Issue(&models.NoteView{Content: "intact"})
	require.NoError(t, err)

	_, err = svc.Redeem(token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestViewTokenWrongSecret(t *testing.T) {
	issuer := NewViewTokenService(ViewTokenConfig{Secret: "secret-a", TTL: time.Minute})
	verifier := NewViewTokenService(ViewTokenConfig{Secret: "secret-b", TTL: time.Minute})

	token, err := issuer.Issue(&models.NoteView{Content: "intact"})
	require.NoError(t, err)

	_, err = verifier.Redeem(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestViewTokenGarbage(t *testing.T) {
	svc := NewViewTokenService(ViewTokenConfig{Secret: "token-secret", TTL: time.Minute})

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.Redeem(token)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	}
}

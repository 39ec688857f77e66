package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/distructnote/api/internal/models"
	appErrors "github.com/distructnote/api/pkg/errors"
)

// ViewTokenConfig configures view token signing.
type ViewTokenConfig struct {
	Secret string
	TTL    time.Duration
}

type viewTokenClaims struct {
	Content       string    `json:"content"`
	CurrentViews  int       `json:"current_views"`
	MaxViews      int       `json:"max_views"`
	Destroyed     bool      `json:"destroyed"`
	NoteCreatedAt time.Time `json:"note_created_at"`
	NoteExpiresAt time.Time `json:"note_expires_at"`
	jwt.RegisteredClaims
}

// ViewTokenService issues short-lived signed tokens that carry an
// already-consumed note view by value. The presentation layer
// re-renders from the token after a form re-submit instead of calling
// AccessNote again, so one user action consumes exactly one view.
// Redeeming never touches the store.
type ViewTokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewViewTokenService constructs a ViewTokenService.
func NewViewTokenService(cfg ViewTokenConfig) *ViewTokenService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ViewTokenService{secret: []byte(cfg.Secret), ttl: ttl}
}

// Issue signs a token embedding the given view.
func (s *ViewTokenService) Issue(view *models.NoteView) (string, error) {
	now := time.Now().UTC()
	claims := &viewTokenClaims{
		Content:       view.Content,
		CurrentViews:  view.CurrentViews,
		MaxViews:      view.MaxViews,
		Destroyed:     view.Destroyed,
		NoteCreatedAt: view.CreatedAt,
		NoteExpiresAt: view.ExpiresAt,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign view token: %w", err)
	}
	return signed, nil
}

// Redeem validates the token and returns the embedded view. Expired
// or tampered tokens surface as the uniform not-found error.
func (s *ViewTokenService) Redeem(tokenString string) (*models.NoteView, error) {
	token, err := jwt.ParseWithClaims(tokenString, &viewTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "view token is expired or invalid")
	}

	claims, ok := token.Claims.(*viewTokenClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "view token is expired or invalid")
	}

	return &models.NoteView{
		Content:      claims.Content,
		CurrentViews: claims.CurrentViews,
		MaxViews:     claims.MaxViews,
		Destroyed:    claims.Destroyed,
		CreatedAt:    claims.NoteCreatedAt,
		ExpiresAt:    claims.NoteExpiresAt,
	}, nil
}

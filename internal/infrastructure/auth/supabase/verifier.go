package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kirillkom/visiocar/internal/core/domain"
	"github.com/kirillkom/visiocar/internal/core/ports"
)

const defaultAudience = "authenticated"

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates Supabase access tokens signed with the project JWT secret.
type Verifier struct {
	secret   []byte
	audience string
	leeway   time.Duration
}

func NewVerifier(secret, audience string) *Verifier {
	if strings.TrimSpace(audience) == "" {
		audience = defaultAudience
	}
	return &Verifier{secret: []byte(secret), audience: audience, leeway: 30 * time.Second}
}

func (v *Verifier) Verify(_ context.Context, token string) (string, string, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return "", "", domain.WrapError(domain.ErrForbidden, "verify token", err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", "", domain.WrapError(domain.ErrForbidden, "verify token", errors.New("missing subject"))
	}
	return claims.Subject, claims.Email, nil
}

// Authenticator resolves a bearer token into the acting user and garage.
type Authenticator struct {
	verifier ports.TokenVerifier
	profiles ports.ProfileRepository
}

func NewAuthenticator(verifier ports.TokenVerifier, profiles ports.ProfileRepository) *Authenticator {
	return &Authenticator{verifier: verifier, profiles: profiles}
}

func (a *Authenticator) Authenticate(ctx context.Context, token string) (*domain.Actor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("missing bearer token"))
	}
	userID, email, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	profile, err := a.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if strings.TrimSpace(profile.ActiveGarageID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "authenticate", domain.ErrNoActiveGarage)
	}
	if profile.Email != "" {
		email = profile.Email
	}
	return &domain.Actor{
		UserID:   userID,
		Email:    email,
		FullName: profile.FullName,
		GarageID: profile.ActiveGarageID,
	}, nil
}

package tokengenerator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultExpiry is the lifetime of an access token when none is configured.
const DefaultExpiry = 7 * 24 * time.Hour

// notBeforeSkew backdates nbf to tolerate clock drift between hosts.
const notBeforeSkew = 5 * time.Minute

var (
	// ErrTokenInvalid is wrapped by every validation failure.
	ErrTokenInvalid = errors.New("invalid token")

	ErrTokenMalformed        = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrTokenSignatureInvalid = fmt.Errorf("%w: signature invalid", ErrTokenInvalid)
	ErrTokenExpired          = fmt.Errorf("%w: expired", ErrTokenInvalid)
	ErrTokenMissingSubject   = fmt.Errorf("%w: missing subject", ErrTokenInvalid)

	ErrEmptySecret = errors.New("token signing secret must not be empty")
)

// TokenGenerator issues and validates bearer tokens
type TokenGenerator interface {
	// Issue signs a token for subject. The returned time is the token expiry.
	Issue(subject string, extraClaims map[string]any) (string, time.Time, error)

	// Validate checks signature and expiry and returns the subject.
	Validate(tokenStr string) (string, error)
}

// Claims struct for JWT claims
type Claims struct {
	ExtraClaims map[string]any `json:"extra_claims,omitempty"`
	jwt.RegisteredClaims
}

// JwtTokenGenerator implements TokenGenerator with HS256
type JwtTokenGenerator struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
	now      func() time.Time
}

// Option configures a JwtTokenGenerator
type Option func(*JwtTokenGenerator)

// WithIssuer sets the iss claim and requires it on validation
func WithIssuer(issuer string) Option {
	return func(g *JwtTokenGenerator) {
		g.issuer = issuer
	}
}

// WithAudience sets the aud claim and requires it on validation
func WithAudience(audience string) Option {
	return func(g *JwtTokenGenerator) {
		g.audience = audience
	}
}

// WithExpiry overrides DefaultExpiry. Non-positive values are ignored.
func WithExpiry(expiry time.Duration) Option {
	return func(g *JwtTokenGenerator) {
		if expiry > 0 {
			g.expiry = expiry
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(g *JwtTokenGenerator) {
		g.now = now
	}
}

// NewJwtTokenGenerator creates a generator signing with secret.
func NewJwtTokenGenerator(secret string, opts ...Option) (*JwtTokenGenerator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	g := &JwtTokenGenerator{
		secret: []byte(secret),
		expiry: DefaultExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Issue creates a signed token with the given subject and extra claims
func (g *JwtTokenGenerator) Issue(subject string, extraClaims map[string]any) (string, time.Time, error) {
	now := g.now().UTC()
	claims := Claims{
		ExtraClaims: extraClaims,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-notBeforeSkew)),
			Issuer:    g.issuer,
			ID:        uuid.NewString(),
		},
	}
	if g.audience != "" {
		claims.Audience = jwt.ClaimStrings{g.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(g.secret)
	if err != nil {
		slog.Error("Failed to sign token", "err", err)
		return "", time.Time{}, err
	}
	return ss, claims.ExpiresAt.Time, nil
}

// Validate parses tokenStr and returns its subject. Failures are one of the
// ErrToken* values, all of which wrap ErrTokenInvalid.
func (g *JwtTokenGenerator) Validate(tokenStr string) (string, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
		jwt.WithExpirationRequired(),
	}
	if g.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(g.issuer))
	}
	if g.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(g.audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	}, parserOpts...)
	if err != nil {
		return "", classify(err)
	}
	if claims.Subject == "" {
		return "", ErrTokenMissingSubject
	}
	return claims.Subject, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		slog.Debug("Token claims rejected", "err", err)
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

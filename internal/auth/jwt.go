package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BIGM16/Ecole-desExcellents/internal/metrics"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")

	ErrWrongTokenType = fmt.Errorf("%w: wrong token type", ErrTokenInvalid)
	ErrTokenRevoked   = fmt.Errorf("%w: token revoked", ErrTokenInvalid)
)

type Claims struct {
	UserID    string    `json:"user_id"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

type Options struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now defaults to time.Now.
	Now     func() time.Time
	Revoker Revoker
}

// Tokens issues and verifies HS256 session tokens. Sessions are not stored
// server side; only an optional Revoker remembers logged-out tokens.
type Tokens struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	revoker    Revoker
	parser     *jwt.Parser
}

// Pair is the result of a login.
type Pair struct {
	Access           string
	AccessExpiresAt  time.Time
	Refresh          string
	RefreshExpiresAt time.Time
}

func NewTokens(opts Options) (*Tokens, error) {
	if opts.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if opts.AccessTTL <= 0 || opts.RefreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Revoker == nil {
		opts.Revoker = NopRevoker{}
	}
	t := &Tokens{
		secret:     []byte(opts.Secret),
		issuer:     opts.Issuer,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        opts.Now,
		revoker:    opts.Revoker,
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return t.now() }),
		jwt.WithExpirationRequired(),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	t.parser = jwt.NewParser(parserOpts...)
	return t, nil
}

func (t *Tokens) AccessTTL() time.Duration  { return t.accessTTL }
func (t *Tokens) RefreshTTL() time.Duration { return t.refreshTTL }

// Issue signs a fresh access and refresh token for the principal.
func (t *Tokens) Issue(principalID string) (Pair, error) {
	if principalID == "" {
		return Pair{}, errors.New("principal id is required")
	}
	access, accessExp, err := t.sign(principalID, AccessToken, t.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := t.sign(principalID, RefreshToken, t.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		Access:           access,
		AccessExpiresAt:  accessExp,
		Refresh:          refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Validate checks an access token and returns its claims.
func (t *Tokens) Validate(ctx context.Context, token string) (*Claims, error) {
	return t.verify(ctx, token, AccessToken)
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token itself is not rotated.
func (t *Tokens) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := t.verify(ctx, refreshToken, RefreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	return t.sign(claims.UserID, AccessToken, t.accessTTL)
}

// Revoke records the given tokens as logged out until they would have
// expired anyway. Tokens that no longer parse are skipped.
func (t *Tokens) Revoke(ctx context.Context, tokens ...string) error {
	for _, token := range tokens {
		if token == "" {
			continue
		}
		claims, err := t.parse(token)
		if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
			continue
		}
		if err := t.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}
	return nil
}

func (t *Tokens) sign(principalID string, kind TokenType, ttl time.Duration) (string, time.Time, error) {
	now := t.now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		UserID:    principalID,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principalID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (t *Tokens) verify(ctx context.Context, token string, kind TokenType) (*Claims, error) {
	claims, err := t.parse(token)
	if err != nil {
		return nil, fail(err)
	}
	if claims.TokenType != kind {
		return nil, fail(ErrWrongTokenType)
	}
	revoked, err := t.revoker.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return nil, fail(ErrTokenRevoked)
	}
	return claims, nil
}

func (t *Tokens) parse(token string) (*Claims, error) {
	parsed, err := t.parser.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func fail(err error) error {
	metrics.TokenFailures.WithLabelValues(FailureReason(err)).Inc()
	return err
}

// IsTokenError reports whether err is a rejected credential rather than a
// failure of the revocation backend.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrTokenInvalid)
}

// FailureReason is the short error code reported for a token failure.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, ErrWrongTokenType):
		return "wrong_token_type"
	default:
		return "invalid_token"
	}
}

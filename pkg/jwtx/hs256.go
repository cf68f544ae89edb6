package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrTokenType   = errors.New("jwtx: wrong token type")
	ErrWeakSecret  = errors.New("jwtx: signing secret too short")
)

// MinSecretBytes is the floor for HMAC key material. HS256 with a short
// key is trivially brute-forceable.
const MinSecretBytes = 32

// Verifier validates a raw JWT and returns the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// Tokens signs and verifies both token kinds with a single HS256
// secret, relying on the token_type claim to keep them apart.
type Tokens struct {
	secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewTokens builds a Tokens helper. Zero TTLs fall back to the package
// defaults.
func NewTokens(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) (*Tokens, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrWeakSecret
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &Tokens{
		secret:     secret,
		Issuer:     issuer,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}, nil
}

// SignAccess mints an access token carrying identity and role.
func (t *Tokens) SignAccess(subject, email, role string, now time.Time) (string, error) {
	claims := NewAccessClaims(subject, email, role, t.Issuer, t.AccessTTL, now)
	return t.sign(claims)
}

// SignRefresh mints a refresh token carrying identity only.
func (t *Tokens) SignRefresh(subject string, now time.Time) (string, error) {
	claims := NewRefreshClaims(subject, t.Issuer, t.RefreshTTL, now)
	return t.sign(claims)
}

func (t *Tokens) sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.secret)
}

// VerifyAccess parses and validates an access token.
func (t *Tokens) VerifyAccess(raw string) (Claims, error) {
	return t.verify(raw, TokenTypeAccess)
}

// VerifyRefresh parses and validates a refresh token.
func (t *Tokens) VerifyRefresh(raw string) (Claims, error) {
	return t.verify(raw, TokenTypeRefresh)
}

func (t *Tokens) verify(raw, wantType string) (Claims, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSig
		}
		return t.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return Claims{}, ErrNotYetValid
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		default:
			return Claims{}, ErrMalformed
		}
	}
	if !parsed.Valid {
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateType(wantType); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateIssuer(t.Issuer); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// AccessVerifier adapts Tokens to the Verifier interface expected by
// the authn middleware.
func (t *Tokens) AccessVerifier() Verifier {
	return accessVerifier{t}
}

type accessVerifier struct{ t *Tokens }

func (v accessVerifier) Verify(token string) (Claims, error) {
	return v.t.VerifyAccess(token)
}

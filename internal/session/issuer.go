package session

import (
	"errors"
	"fmt"
	"time"

	"dashboard-auth/internal/account"
	"dashboard-auth/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the fixed validity window of a session credential.
const DefaultTTL = 30 * 24 * time.Hour

// IssuerConfig configures an Issuer. Zero TTL means DefaultTTL and a nil
// Now means time.Now.
type IssuerConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Now    func() time.Time
}

// Issuer mints and parses HS256-signed session credentials.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Credential is a minted session credential.
type Credential struct {
	Token     string
	Claims    Claims
	ExpiresAt time.Time
}

// NewIssuer returns an apperr.ErrConfiguration error when no secret is
// configured; callers treat that as fatal at startup.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, apperr.Wrap(errors.New("session signing secret is empty"), apperr.ErrConfiguration)
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 {
		return nil, apperr.Wrap(errors.New("session ttl must be positive"), apperr.ErrConfiguration)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Issuer{
		secret: secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    cfg.Now,
	}, nil
}

// TTL returns the validity window of issued credentials.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a credential for a. Expiry is absolute: issued-at plus TTL.
func (i *Issuer) Issue(a *account.Account, picture string) (Credential, error) {
	if a == nil || a.ID == "" {
		return Credential{}, apperr.Wrap(errors.New("cannot issue session for empty account"), apperr.ErrInternal)
	}
	if !account.ValidRole(a.Role) {
		return Credential{}, apperr.Wrap(fmt.Errorf("account %s has unknown role %q", a.ID, a.Role), apperr.ErrInternal)
	}

	// NumericDate has second precision; truncate so the cookie expiry
	// matches the signed exp exactly.
	issuedAt := i.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(i.ttl)

	claims := Claims{
		Version: ClaimsVersion,
		ID:      a.ID,
		Name:    a.Name,
		Email:   a.Email,
		Role:    string(a.Role),
		Picture: picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Credential{}, apperr.Wrap(fmt.Errorf("sign session: %w", err), apperr.ErrInternal)
	}

	return Credential{
		Token:     token,
		Claims:    claims,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse verifies a credential's signature, expiry, issuer and claim
// version. Any failure is reported as apperr.ErrInvalidToken.
func (i *Issuer) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, apperr.Wrap(errors.New("empty session token"), apperr.ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("parse session: %w", err), apperr.ErrInvalidToken)
	}

	if claims.Version != ClaimsVersion {
		return nil, apperr.Wrap(fmt.Errorf("unsupported session claims version %d", claims.Version), apperr.ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, apperr.Wrap(errors.New("session missing subject"), apperr.ErrInvalidToken)
	}

	return &claims, nil
}

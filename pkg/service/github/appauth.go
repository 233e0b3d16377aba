package github

import (
	"crypto/rsa"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-mizutani/goerr/v2"
)

// AppCredentials holds the process-wide GitHub App identity. Both values are
// read-only after construction; the private key never appears in logs.
type AppCredentials struct {
	AppID      string
	PrivateKey string // PEM string, PEM with escaped newlines, or a file path
}

const (
	// assertionClockSkew backdates iat to tolerate clock drift between this
	// process and GitHub's verifier
	assertionClockSkew = 60 * time.Second

	// assertionLifetime is GitHub's maximum accepted app assertion validity
	assertionLifetime = 10 * time.Minute
)

// TokenMinter produces signed app assertions proving possession of the
// GitHub App private key. Minting is a pure function of (credentials, clock);
// assertions are single-purpose and never reused across exchange calls.
type TokenMinter struct {
	appID string
	key   *rsa.PrivateKey
	now   func() time.Time
}

// MinterOption configures a TokenMinter
type MinterOption func(*TokenMinter)

// WithClock overrides the time source (tests)
func WithClock(now func() time.Time) MinterOption {
	return func(m *TokenMinter) {
		m.now = now
	}
}

// NewTokenMinter validates the credentials and prepares the signing key.
// A missing app ID or unparsable key fails with ErrNoCredentials.
func NewTokenMinter(creds AppCredentials, opts ...MinterOption) (*TokenMinter, error) {
	if creds.AppID == "" {
		return nil, goerr.Wrap(ErrNoCredentials, "app ID is empty")
	}
	if creds.PrivateKey == "" {
		return nil, goerr.Wrap(ErrNoCredentials, "private key is empty")
	}

	pemData := loadPrivateKeyPEM(creds.PrivateKey)

	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemData)
	if err != nil {
		return nil, goerr.Wrap(ErrNoCredentials, "failed to parse RSA private key")
	}

	m := &TokenMinter{
		appID: creds.AppID,
		key:   key,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Mint returns a fresh RS256-signed assertion with iat backdated by the skew
// buffer and exp at the upstream maximum. The claim shape (iat, exp, iss)
// must stay as-is for GitHub's verifier.
func (m *TokenMinter) Mint() (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-assertionClockSkew)),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
		Issuer:    m.appID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(m.key)
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign app assertion")
	}

	return signed, nil
}

// loadPrivateKeyPEM resolves the key material: file path first (CLI flag
// pattern), then inline PEM with env-var style escaped newlines normalized.
func loadPrivateKeyPEM(privateKey string) []byte {
	// #nosec G304 -- path comes from CLI flag, not user input
	if data, err := os.ReadFile(privateKey); err == nil {
		return data
	}
	return []byte(strings.ReplaceAll(privateKey, `\n`, "\n"))
}

package github_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-mizutani/gt"
	githubsvc "github.com/shiplog-dev/shiplog/pkg/service/github"
)

func genTestKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	gt.NoError(t, err).Required()

	pemData := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return key, string(pemData)
}

func TestTokenMinter_Mint(t *testing.T) {
	key, pemStr := genTestKey(t)

	t.Run("assertion window is exactly 660 seconds", func(t *testing.T) {
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		minter, err := githubsvc.NewTokenMinter(githubsvc.AppCredentials{
			AppID:      "12345",
			PrivateKey: pemStr,
		}, githubsvc.WithClock(func() time.Time { return now }))
		gt.NoError(t, err).Required()

		assertion, err := minter.Mint()
		gt.NoError(t, err).Required()

		claims := jwt.RegisteredClaims{}
		_, err = jwt.ParseWithClaims(assertion, &claims, func(tok *jwt.Token) (any, error) {
			return &key.PublicKey, nil
		}, jwt.WithTimeFunc(func() time.Time { return now }))
		gt.NoError(t, err).Required()

		gt.Value(t, claims.Issuer).Equal("12345")
		gt.Value(t, claims.IssuedAt.Time.UTC()).Equal(now.Add(-60 * time.Second))
		gt.Value(t, claims.ExpiresAt.Time.UTC()).Equal(now.Add(600 * time.Second))
		gt.Value(t, claims.ExpiresAt.Sub(claims.IssuedAt.Time)).Equal(660 * time.Second)
	})

	t.Run("window is invariant across invocation times", func(t *testing.T) {
		for _, at := range []time.Time{
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 29, 23, 59, 59, 0, time.UTC),
		} {
			minter, err := githubsvc.NewTokenMinter(githubsvc.AppCredentials{
				AppID:      "12345",
				PrivateKey: pemStr,
			}, githubsvc.WithClock(func() time.Time { return at }))
			gt.NoError(t, err).Required()

			assertion, err := minter.Mint()
			gt.NoError(t, err).Required()

			claims := jwt.RegisteredClaims{}
			_, err = jwt.ParseWithClaims(assertion, &claims, func(tok *jwt.Token) (any, error) {
				return &key.PublicKey, nil
			}, jwt.WithTimeFunc(func() time.Time { return at }))
			gt.NoError(t, err).Required()

			gt.Value(t, claims.ExpiresAt.Sub(claims.IssuedAt.Time)).Equal(660 * time.Second)
		}
	})

	t.Run("uses RS256", func(t *testing.T) {
		minter, err := githubsvc.NewTokenMinter(githubsvc.AppCredentials{
			AppID:      "12345",
			PrivateKey: pemStr,
		})
		gt.NoError(t, err).Required()

		assertion, err := minter.Mint()
		gt.NoError(t, err).Required()

		tok, _, err := jwt.NewParser().ParseUnverified(assertion, jwt.MapClaims{})
		gt.NoError(t, err).Required()
		gt.Value(t, tok.Method.Alg()).Equal("RS256")
	})

	t.Run("normalizes escaped newlines in PEM", func(t *testing.T) {
		escaped := strings.ReplaceAll(pemStr, "\n", `\n`)
		minter, err := githubsvc.NewTokenMinter(githubsvc.AppCredentials{
			AppID:      "12345",
			PrivateKey: escaped,
		})
		gt.NoError(t, err).Required()

		_, err = minter.Mint()
		gt.NoError(t, err)
	})
}

func TestNewTokenMinter_Errors(t *testing.T) {
	_, pemStr := genTestKey(t)

	t.Run("fails without app ID", func(t *testing.T) {
		_, err := githubsvc.NewTokenMinter(githubsvc.AppCredentials{PrivateKey: pemStr})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, githubsvc.ErrNoCredentials)).True()
	})

	t.Run("fails without private key", func(t *testing.T) {
		_, err := githubsvc.NewTokenMinter(githubsvc.AppCredentials{AppID: "12345"})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, githubsvc.ErrNoCredentials)).True()
	})

	t.Run("fails with garbage key material", func(t *testing.T) {
		_, err := githubsvc.NewTokenMinter(githubsvc.AppCredentials{
			AppID:      "12345",
			PrivateKey: "not a pem",
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, githubsvc.ErrNoCredentials)).True()
	})
}

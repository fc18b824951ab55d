// Package creds holds encrypted third-party credentials in the per-user
// cookie session. The session is the only persistence layer: nothing here
// outlives the cookie's TTL.
package creds

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"

	"github.com/a-steris/paydash/internal/vault"
)

// Credential kinds stored per session.
const (
	KindAPIKey        = "stripe_api_key"
	KindLoginEmail    = "stripe_login_email"
	KindLoginPassword = "stripe_login_password"
	KindCaptchaKey    = "anticaptcha_key"
	KindWebhookURL    = "slack_webhook_url"
	KindOAuthToken    = "stripe_oauth_token"
)

const (
	sessionName = "paydash-session"
	verifiedKey = "stripe_verified"
	sessionTTL  = 7 * 24 * time.Hour
)

// AllKinds lists every credential kind a logout must clear.
var AllKinds = []string{KindAPIKey, KindLoginEmail, KindLoginPassword, KindCaptchaKey, KindWebhookURL, KindOAuthToken}

// stripeKinds invalidate the cached verification flag when rewritten.
var stripeKinds = map[string]bool{
	KindAPIKey:        true,
	KindLoginEmail:    true,
	KindLoginPassword: true,
	KindOAuthToken:    true,
}

// Store saves and loads encrypted credentials keyed by kind within one
// user session. Values are encrypted by the vault before they touch the
// cookie and decrypted only on load.
type Store struct {
	sessions *sessions.CookieStore
	vault    *vault.Vault
}

// NewStore builds a credential store over a cookie session with a 7-day
// lifetime.
func NewStore(sessionSecret string, secureCookies bool, v *vault.Vault) *Store {
	cs := sessions.NewCookieStore([]byte(sessionSecret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{sessions: cs, vault: v}
}

// Save encrypts value and writes it under kind. Saving any Stripe
// credential drops the session's cached verification state so stale
// "connected" flags never survive a credential change. An empty value
// removes the kind.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, kind, value string) error {
	session := s.session(r)

	value = strings.TrimSpace(value)
	if value == "" {
		delete(session.Values, kind)
	} else {
		sealed, err := s.vault.Encrypt(value)
		if err != nil {
			return fmt.Errorf("sealing credential %s: %w", kind, err)
		}
		session.Values[kind] = sealed
	}
	if stripeKinds[kind] {
		delete(session.Values, verifiedKey)
	}

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save credential session: %w", err)
	}
	return nil
}

// Load decrypts and returns the credential stored under kind. The second
// return is false when the kind is absent. A decryption failure is
// returned as-is (domain.ErrDecryption) so the guard can clear and
// reauthenticate.
func (s *Store) Load(r *http.Request, kind string) (string, bool, error) {
	session := s.session(r)

	raw, ok := session.Values[kind]
	if !ok || raw == nil {
		return "", false, nil
	}
	sealed, ok := raw.(string)
	if !ok || sealed == "" {
		return "", false, nil
	}

	plaintext, err := s.vault.Decrypt(sealed)
	if err != nil {
		return "", false, err
	}
	return plaintext, true, nil
}

// Clear removes the given kinds, or every kind plus the verification flag
// when none are named.
func (s *Store) Clear(r *http.Request, w http.ResponseWriter, kinds ...string) error {
	session := s.session(r)

	if len(kinds) == 0 {
		kinds = AllKinds
		delete(session.Values, verifiedKey)
	}
	for _, kind := range kinds {
		delete(session.Values, kind)
		if stripeKinds[kind] {
			delete(session.Values, verifiedKey)
		}
	}

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save credential session: %w", err)
	}
	return nil
}

// MarkVerified records a successful upstream key check for this session.
func (s *Store) MarkVerified(r *http.Request, w http.ResponseWriter) error {
	session := s.session(r)
	session.Values[verifiedKey] = true
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save credential session: %w", err)
	}
	return nil
}

// Verified reports whether the session's Stripe credential passed a
// verification call since it was last saved.
func (s *Store) Verified(r *http.Request) bool {
	session := s.session(r)
	verified, ok := session.Values[verifiedKey].(bool)
	return ok && verified
}

func (s *Store) session(r *http.Request) *sessions.Session {
	// An invalid or expired cookie yields a fresh session; stale
	// ciphertext is indistinguishable from credential-absent.
	session, err := s.sessions.Get(r, sessionName)
	if err != nil || session == nil {
		session, _ = s.sessions.New(r, sessionName)
	}
	return session
}

package services

import (
	"github.com/a-steris/paydash/internal/app/domain"
)

// SessionCredentials are the decrypted credentials present in one session.
type SessionCredentials struct {
	APIKey     string
	Email      string
	Password   string
	CaptchaKey string
}

// SelectStrategy picks exactly one sync strategy for the session. An API
// key always wins; login-only credentials select the browser path; neither
// yields ErrCredentialMissing. The two strategies are never combined.
func SelectStrategy(creds SessionCredentials) (domain.Strategy, error) {
	if creds.APIKey != "" {
		return domain.APIStrategy{Key: creds.APIKey}, nil
	}
	if creds.Email != "" && creds.Password != "" {
		return domain.BrowserStrategy{
			Email:      creds.Email,
			Password:   creds.Password,
			CaptchaKey: creds.CaptchaKey,
		}, nil
	}
	return nil, domain.ErrCredentialMissing
}

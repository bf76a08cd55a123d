package auth

import "time"

// refreshBufferSeconds is how long before expiry a token is considered expiring.
const refreshBufferSeconds = 300

// Token is the persisted OAuth token record.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is an absolute expiry time in epoch seconds.
	ExpiresAt int64 `json:"expires_at"`
}

// NeedsRefresh reports whether the token expires within the refresh buffer of now.
func (token Token) NeedsRefresh(now time.Time) bool {
	return now.Unix() >= token.ExpiresAt-refreshBufferSeconds
}

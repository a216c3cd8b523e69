package core

import "time"

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeOnline  AccountType = "online"
	AccountTypeOffline AccountType = "offline"
)

// Account represents a Minecraft account. Online accounts carry both an MS
// refresh token and a Minecraft access token; offline accounts carry
// neither. At most one account in a given set may have IsActive set.
type Account struct {
	UUID                   string      `json:"uuid"`
	Name                   string      `json:"name"`
	Type                   AccountType `json:"type"`
	MSRefreshToken         string      `json:"msRefreshToken,omitempty"`
	MCAccessToken          string      `json:"mcAccessToken,omitempty"`
	MCAccessTokenExpiresAt time.Time   `json:"mcAccessTokenExpiresAt,omitempty"`
	IsActive               bool        `json:"isActive"`
}

// IsExpired checks if the token is expired (with 5m buffer). Offline
// accounts never expire since they carry no token to refresh.
func (a *Account) IsExpired() bool {
	if a.Type == AccountTypeOffline {
		return false
	}
	return time.Now().Add(5 * time.Minute).After(a.MCAccessTokenExpiresAt)
}

package auth

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/glauncher/glauncher/internal/core"
)

// OfflineUUID synthesizes a deterministic UUID from a username:
// SHA1("OfflinePlayer:"+username) truncated to 32 hex chars, undashed. This
// form is fixed over the dashed alternative for round-trip determinism.
func OfflineUUID(username string) string {
	sum := sha1.Sum([]byte("OfflinePlayer:" + username))
	return hex.EncodeToString(sum[:])[:32]
}

// OfflineAccount builds the locally-computed stub account for offline play.
// It carries no tokens; the launch builder substitutes an empty access
// token, which is incompatible with servers enforcing session verification.
func OfflineAccount(username string) *core.Account {
	return &core.Account{
		UUID: OfflineUUID(username),
		Name: username,
		Type: core.AccountTypeOffline,
	}
}

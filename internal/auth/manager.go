package auth

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/99designs/keyring"
	"github.com/glauncher/glauncher/internal/core"
	"github.com/glauncher/glauncher/internal/glerr"
)

const (
	keyringServiceName = "glauncher"
	keyringItemKey     = "accounts"
)

// accountsData is the single JSON blob persisted in the secret store.
type accountsData struct {
	Accounts  []core.Account `json:"accounts"`
	ActiveUUID string        `json:"activeUuid"`
}

// Manager owns the account set for the duration of a process; it is the
// sole mutator of persisted account state, per the Credential Pipeline's
// ownership rule. Other components receive borrowed {name, uuid,
// access_token} views, never a *Manager.
type Manager struct {
	oauth *Client
	ring  keyring.Keyring
	data  accountsData
}

// NewManager opens the OS secret store and loads any existing accounts. A
// missing entry or a corrupt blob is treated as an empty set (clean-slate
// recovery) rather than a fatal error.
func NewManager(clientID string) (*Manager, error) {
	ring, err := keyring.Open(keyring.Config{ServiceName: keyringServiceName})
	if err != nil {
		return nil, err
	}

	m := &Manager{oauth: NewClient(clientID), ring: ring}
	m.data = loadAccounts(ring)
	return m, nil
}

func loadAccounts(ring keyring.Keyring) accountsData {
	item, err := ring.Get(keyringItemKey)
	if err == keyring.ErrKeyNotFound {
		return accountsData{}
	}
	if err != nil {
		slog.Warn("failed to read accounts from secret store", "error", err)
		return accountsData{}
	}

	var data accountsData
	if err := json.Unmarshal(item.Data, &data); err != nil {
		slog.Warn("stored accounts are malformed, starting from an empty set", "error", err)
		return accountsData{}
	}
	return data
}

func (m *Manager) save() error {
	blob, err := json.Marshal(m.data)
	if err != nil {
		return &glerr.ParseError{What: "serialize accounts", Err: err}
	}
	return m.ring.Set(keyring.Item{
		Key:  keyringItemKey,
		Data: blob,
	})
}

// Accounts returns all known accounts.
func (m *Manager) Accounts() []core.Account {
	return m.data.Accounts
}

// ActiveAccount returns the account with IsActive set, if any.
func (m *Manager) ActiveAccount() (*core.Account, bool) {
	for i := range m.data.Accounts {
		if m.data.Accounts[i].UUID == m.data.ActiveUUID {
			return &m.data.Accounts[i], true
		}
	}
	return nil, false
}

// SetActive marks the account with the given UUID active and every other
// account inactive, preserving invariant 10 (at most one active account).
func (m *Manager) SetActive(uuid string) error {
	found := false
	for i := range m.data.Accounts {
		m.data.Accounts[i].IsActive = m.data.Accounts[i].UUID == uuid
		if m.data.Accounts[i].IsActive {
			found = true
		}
	}
	if !found {
		return &glerr.NotFoundError{Kind: "account", Key: uuid}
	}
	m.data.ActiveUUID = uuid
	return m.save()
}

// upsertActive adds or updates an account by UUID and marks it active.
func (m *Manager) upsertActive(acc core.Account) error {
	acc.IsActive = true
	replaced := false
	for i := range m.data.Accounts {
		m.data.Accounts[i].IsActive = false
		if m.data.Accounts[i].UUID == acc.UUID {
			m.data.Accounts[i] = acc
			replaced = true
		}
	}
	if !replaced {
		m.data.Accounts = append(m.data.Accounts, acc)
	}
	m.data.ActiveUUID = acc.UUID
	return m.save()
}

// AddOffline registers (or re-activates) an offline account for username.
func (m *Manager) AddOffline(username string) (*core.Account, error) {
	acc := OfflineAccount(username)
	if err := m.upsertActive(*acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// RemoveAccount deletes an account; if it was active, the first remaining
// account (if any) becomes active.
func (m *Manager) RemoveAccount(uuid string) error {
	idx := -1
	for i, a := range m.data.Accounts {
		if a.UUID == uuid {
			idx = i
			break
		}
	}
	if idx == -1 {
		return &glerr.NotFoundError{Kind: "account", Key: uuid}
	}
	m.data.Accounts = append(m.data.Accounts[:idx], m.data.Accounts[idx+1:]...)

	if m.data.ActiveUUID == uuid {
		m.data.ActiveUUID = ""
		if len(m.data.Accounts) > 0 {
			m.data.Accounts[0].IsActive = true
			m.data.ActiveUUID = m.data.Accounts[0].UUID
		}
	}
	return m.save()
}

// LogoutAll clears every account and deletes the secret store entry.
func (m *Manager) LogoutAll() error {
	m.data = accountsData{}
	if err := m.ring.Remove(keyringItemKey); err != nil && err != keyring.ErrKeyNotFound {
		return err
	}
	return nil
}

// Login runs the full online device-code chain (DevicePending through
// Ready) and persists the resulting account as active.
func (m *Manager) Login(ctx context.Context, onTicket func(*DeviceCodeTicket)) (*core.Account, error) {
	ticket, err := m.oauth.RequestDeviceCode(ctx)
	if err != nil {
		return nil, err
	}
	if onTicket != nil {
		onTicket(ticket)
	}

	msaTokens, err := m.oauth.PollForToken(ctx, ticket)
	if err != nil {
		return nil, err
	}

	acc, err := m.exchangeToAccount(ctx, msaTokens)
	if err != nil {
		return nil, err
	}

	if err := m.upsertActive(*acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// exchangeToAccount runs steps 3-6 of the chain (XboxAuth through
// ProfileFetch) given a fresh or refreshed set of MSA tokens.
func (m *Manager) exchangeToAccount(ctx context.Context, msaTokens *MSATokens) (*core.Account, error) {
	xbox, err := m.oauth.AuthenticateXbox(ctx, msaTokens.AccessToken)
	if err != nil {
		return nil, err
	}
	xsts, err := m.oauth.AuthenticateXSTS(ctx, xbox)
	if err != nil {
		return nil, err
	}
	mcToken, err := m.oauth.LoginWithXbox(ctx, xsts)
	if err != nil {
		return nil, err
	}
	profile, err := m.oauth.FetchProfile(ctx, mcToken)
	if err != nil {
		return nil, err
	}

	return &core.Account{
		UUID:           profile.UUID,
		Name:           profile.Name,
		Type:           core.AccountTypeOnline,
		MSRefreshToken: msaTokens.RefreshToken,
		MCAccessToken:  mcToken,
	}, nil
}

// RefreshActive refreshes the active account's tokens. Failure is non-fatal
// per spec: the stale mc_access_token is left in place and the caller
// proceeds with it.
func (m *Manager) RefreshActive(ctx context.Context) error {
	acc, ok := m.ActiveAccount()
	if !ok {
		return &glerr.NotFoundError{Kind: "account", Key: "active"}
	}
	if acc.Type == core.AccountTypeOffline || acc.MSRefreshToken == "" {
		return nil
	}

	tokens, err := m.oauth.RefreshToken(ctx, acc.MSRefreshToken)
	if err != nil {
		return &glerr.AuthError{Subkind: glerr.AuthRefreshFailed, Detail: err.Error()}
	}

	refreshed, err := m.exchangeToAccount(ctx, tokens)
	if err != nil {
		return &glerr.AuthError{Subkind: glerr.AuthRefreshFailed, Detail: err.Error()}
	}
	return m.upsertActive(*refreshed)
}

// LaunchAccount returns the account to launch with: a best-effort refresh
// is attempted first (swallowing failure), then the active account -
// however stale - is returned, matching the "cached token is tried, the
// game itself reports auth failure" contract.
func (m *Manager) LaunchAccount(ctx context.Context) (*core.Account, error) {
	if err := m.RefreshActive(ctx); err != nil {
		slog.Warn("failed to refresh account token", "error", err)
	}
	acc, ok := m.ActiveAccount()
	if !ok {
		return nil, &glerr.NotFoundError{Kind: "account", Key: "active"}
	}
	return acc, nil
}

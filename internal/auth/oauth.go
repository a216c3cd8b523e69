// Package auth implements the device-code OAuth chain (Microsoft → Xbox
// Live → XSTS → Minecraft), offline credential synthesis, and secure
// account persistence.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/glauncher/glauncher/internal/glerr"
)

var (
	msaDeviceCodeURL = "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode"
	msaTokenURL      = "https://login.microsoftonline.com/consumers/oauth2/v2.0/token"
	xboxUserAuthURL  = "https://user.auth.xboxlive.com/user/authenticate"
	xstsAuthURL      = "https://xsts.auth.xboxlive.com/xsts/authorize"
	mcAuthURL        = "https://api.minecraftservices.com/authentication/login_with_xbox"
	mcProfileURL     = "https://api.minecraftservices.com/minecraft/profile"
)

// Client drives the Microsoft/Xbox/Minecraft token-exchange chain.
type Client struct {
	httpClient *http.Client
	clientID   string
}

// NewClient builds an OAuth client for the given Azure AD application ID.
func NewClient(clientID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		clientID:   clientID,
	}
}

// DeviceCodeTicket is issued by the authorization server and consumed by the
// polling loop; it is never persisted across launches.
type DeviceCodeTicket struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
	Message         string `json:"message"`
}

// MSATokens are the tokens returned by a successful device-code poll or refresh.
type MSATokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type xboxAuthRequest struct {
	Properties   xboxAuthProperties `json:"Properties"`
	RelyingParty string             `json:"RelyingParty"`
	TokenType    string             `json:"TokenType"`
}

type xboxAuthProperties struct {
	AuthMethod string   `json:"AuthMethod,omitempty"`
	SiteName   string   `json:"SiteName,omitempty"`
	RpsTicket  string   `json:"RpsTicket,omitempty"`
	SandboxId  string   `json:"SandboxId,omitempty"`
	UserTokens []string `json:"UserTokens,omitempty"`
}

type xboxAuthResponse struct {
	Token         string `json:"Token"`
	DisplayClaims struct {
		XUI []struct {
			UHS string `json:"uhs"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

// xstsErrorBody captures the XErr code Xbox returns on a non-2xx XSTS response.
type xstsErrorBody struct {
	XErr int64 `json:"XErr"`
}

type minecraftAuthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Profile is the Minecraft profile fetched at the end of the chain.
type Profile struct {
	UUID string `json:"id"`
	Name string `json:"name"`
}

// RequestDeviceCode begins the device-code flow (Idle -> DevicePending).
func (c *Client) RequestDeviceCode(ctx context.Context) (*DeviceCodeTicket, error) {
	data := url.Values{
		"client_id": {c.clientID},
		"scope":     {"XboxLive.signin offline_access"},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", msaDeviceCodeURL, bytes.NewBufferString(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &glerr.NetworkError{Op: "device code request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &glerr.HTTPStatusError{URL: msaDeviceCodeURL, Code: resp.StatusCode}
	}

	var ticket DeviceCodeTicket
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		return nil, &glerr.ParseError{What: "device code response", Err: err}
	}
	return &ticket, nil
}

// PollForToken drives DevicePending -> MicrosoftPolling to completion,
// sleeping `interval` seconds between polls (plus 5s extra on slow_down)
// until a token is issued or the ticket's expires_in deadline passes.
func (c *Client) PollForToken(ctx context.Context, ticket *DeviceCodeTicket) (*MSATokens, error) {
	data := url.Values{
		"client_id":   {c.clientID},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {ticket.DeviceCode},
	}
	interval := time.Duration(ticket.Interval) * time.Second
	if interval == 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(ticket.ExpiresIn) * time.Second)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		tokens, authErr, err := c.pollOnce(ctx, data)
		if err != nil {
			continue // transport hiccup, retry on next tick
		}
		if authErr == "" {
			return tokens, nil
		}

		switch authErr {
		case "authorization_pending":
			continue
		case "slow_down":
			interval += 5 * time.Second
			continue
		case "expired_token":
			return nil, &glerr.AuthError{Subkind: glerr.AuthDeviceCodeExpired}
		case "authorization_declined":
			return nil, &glerr.AuthError{Subkind: glerr.AuthUserDeclined}
		default:
			return nil, &glerr.AuthError{Subkind: glerr.AuthSubkind("AuthError"), Detail: authErr}
		}
	}
	return nil, &glerr.AuthError{Subkind: glerr.AuthDeviceCodeExpired}
}

func (c *Client) pollOnce(ctx context.Context, data url.Values) (*MSATokens, string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", msaTokenURL, bytes.NewBufferString(data.Encode()))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	var result struct {
		MSATokens
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", err
	}
	if result.Error != "" {
		return nil, result.Error, nil
	}
	return &result.MSATokens, "", nil
}

// RefreshToken performs a single-shot refresh_token grant.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*MSATokens, error) {
	data := url.Values{
		"client_id":     {c.clientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"scope":         {"XboxLive.signin offline_access"},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", msaTokenURL, bytes.NewBufferString(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &glerr.NetworkError{Op: "refresh token", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &glerr.HTTPStatusError{URL: msaTokenURL, Code: resp.StatusCode}
	}

	var tokens MSATokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, &glerr.ParseError{What: "refresh token response", Err: err}
	}
	return &tokens, nil
}

// xboxToken is the (token, user-hash) pair carried between the Xbox and
// XSTS hops.
type xboxToken struct {
	Token string
	UHS   string
}

// AuthenticateXbox exchanges an MSA access token for an Xbox Live token.
func (c *Client) AuthenticateXbox(ctx context.Context, msaAccessToken string) (*xboxToken, error) {
	body := xboxAuthRequest{
		Properties: xboxAuthProperties{
			AuthMethod: "RPS",
			SiteName:   "user.auth.xboxlive.com",
			RpsTicket:  "d=" + msaAccessToken,
		},
		RelyingParty: "http://auth.xboxlive.com",
		TokenType:    "JWT",
	}

	resp, err := c.doXboxRequest(ctx, xboxUserAuthURL, body)
	if err != nil {
		return nil, err
	}
	if len(resp.DisplayClaims.XUI) == 0 {
		return nil, &glerr.AuthError{Subkind: glerr.AuthNoUserHash}
	}
	return &xboxToken{Token: resp.Token, UHS: resp.DisplayClaims.XUI[0].UHS}, nil
}

// AuthenticateXSTS exchanges an Xbox Live token for an XSTS token,
// translating the published XErr enumeration into the Auth taxonomy.
func (c *Client) AuthenticateXSTS(ctx context.Context, xbox *xboxToken) (*xboxToken, error) {
	body := xboxAuthRequest{
		Properties: xboxAuthProperties{
			SandboxId:  "RETAIL",
			UserTokens: []string{xbox.Token},
		},
		RelyingParty: "rp://api.minecraftservices.com/",
		TokenType:    "JWT",
	}

	jsonBody, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, "POST", xstsAuthURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-xbl-contract-version", "1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &glerr.NetworkError{Op: "xsts auth", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var xerr xstsErrorBody
		if json.Unmarshal(raw, &xerr) == nil && xerr.XErr != 0 {
			switch xerr.XErr {
			case 2148916233:
				return nil, &glerr.AuthError{Subkind: glerr.AuthNoXboxAccount}
			case 2148916235:
				return nil, &glerr.AuthError{Subkind: glerr.AuthCountryUnavailable}
			case 2148916238:
				return nil, &glerr.AuthError{Subkind: glerr.AuthChildAccount}
			default:
				return nil, &glerr.AuthError{Subkind: glerr.AuthSubkind("XstsError"), Detail: fmt.Sprintf("%d", xerr.XErr)}
			}
		}
		return nil, &glerr.HTTPStatusError{URL: xstsAuthURL, Code: resp.StatusCode}
	}

	var result xboxAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &glerr.ParseError{What: "xsts response", Err: err}
	}
	if len(result.DisplayClaims.XUI) == 0 {
		return nil, &glerr.AuthError{Subkind: glerr.AuthNoUserHash}
	}
	return &xboxToken{Token: result.Token, UHS: result.DisplayClaims.XUI[0].UHS}, nil
}

func (c *Client) doXboxRequest(ctx context.Context, u string, body xboxAuthRequest) (*xboxAuthResponse, error) {
	jsonBody, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-xbl-contract-version", "1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &glerr.NetworkError{Op: "xbox auth", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &glerr.HTTPStatusError{URL: u, Code: resp.StatusCode}
	}

	var result xboxAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &glerr.ParseError{What: "xbox auth response", Err: err}
	}
	return &result, nil
}

// LoginWithXbox exchanges the XSTS (token, uhs) pair for a Minecraft access token.
func (c *Client) LoginWithXbox(ctx context.Context, xsts *xboxToken) (string, error) {
	body := struct {
		IdentityToken string `json:"identityToken"`
	}{IdentityToken: fmt.Sprintf("XBL3.0 x=%s;%s", xsts.UHS, xsts.Token)}
	jsonBody, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", mcAuthURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &glerr.NetworkError{Op: "minecraft login", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &glerr.HTTPStatusError{URL: mcAuthURL, Code: resp.StatusCode}
	}

	var result minecraftAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &glerr.ParseError{What: "minecraft auth response", Err: err}
	}
	return result.AccessToken, nil
}

// FetchProfile gets the Minecraft profile (uuid, name), distinguishing a
// missing-entitlement 404 from any other non-2xx status.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", mcProfileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &glerr.NetworkError{Op: "fetch profile", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &glerr.AuthError{Subkind: glerr.AuthNoMinecraftEntitlement}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &glerr.HTTPStatusError{URL: mcProfileURL, Code: resp.StatusCode}
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, &glerr.ParseError{What: "profile response", Err: err}
	}
	return &profile, nil
}

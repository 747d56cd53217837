package account

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sdauwidhwa/NMCL/fetcher"
)

// DefaultClientID is the registered Azure application id used for the
// device-less auth code flow.
const DefaultClientID = "b0f8ad58-6580-4286-99e6-b3904832aa54"

const (
	defaultTokenURL     = "https://login.live.com/oauth20_token.srf"
	defaultAuthorizeURL = "https://login.live.com/oauth20_authorize.srf"
	defaultXboxAuthURL  = "https://user.auth.xboxlive.com/user/authenticate"
	defaultXSTSAuthURL  = "https://xsts.auth.xboxlive.com/xsts/authorize"
	defaultMinecraftURL = "https://api.minecraftservices.com/authentication/login_with_xbox"
	defaultProfileURL   = "https://api.minecraftservices.com/minecraft/profile"

	// Microsoft refresh tokens have no advertised lifetime; 90 days
	// is the documented inactivity window.
	microsoftTokenLife = 90 * 86400

	// Minecraft tokens are refreshed when fewer than this many
	// seconds of validity remain.
	refreshMargin = 600
)

// Authenticator exchanges a Microsoft auth code for a Minecraft
// session, stepping through Xbox Live and XSTS. Endpoint URLs are
// overridable for tests; zero values use the live services.
type Authenticator struct {
	Client      *fetcher.Client
	ClientID    string
	RedirectURL string

	TokenURL     string
	AuthorizeURL string
	XboxAuthURL  string
	XSTSAuthURL  string
	MinecraftURL string
	ProfileURL   string
}

func (a *Authenticator) clientID() string {
	if a.ClientID != "" {
		return a.ClientID
	}
	return DefaultClientID
}

func pick(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// LoginURL is the browser page where the user signs in; the service
// redirects back to RedirectURL with ?code=.
func (a *Authenticator) LoginURL() string {
	q := url.Values{}
	q.Set("client_id", a.clientID())
	q.Set("response_type", "code")
	q.Set("redirect_uri", a.RedirectURL)
	q.Set("prompt", "select_account")
	q.Set("scope", "XboxLive.signin offline_access")
	return pick(a.AuthorizeURL, defaultAuthorizeURL) + "?" + q.Encode()
}

type microsoftToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type xboxToken struct {
	Token         string `json:"Token"`
	DisplayClaims struct {
		XUI []struct {
			UHS string `json:"uhs"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

type minecraftToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type minecraftProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Login exchanges a fresh auth code for a full account.
func (a *Authenticator) Login(ctx context.Context, code string) (Account, error) {
	form := url.Values{}
	form.Set("client_id", a.clientID())
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", a.RedirectURL)
	return a.exchange(ctx, form)
}

// Refresh renews the account's tokens using its Microsoft refresh
// token.
func (a *Authenticator) Refresh(ctx context.Context, acc Account) (Account, error) {
	form := url.Values{}
	form.Set("client_id", a.clientID())
	form.Set("refresh_token", acc.Microsoft.RefreshToken)
	form.Set("grant_type", "refresh_token")
	return a.exchange(ctx, form)
}

// exchange runs the Microsoft -> Xbox -> XSTS -> Minecraft chain and
// resolves the profile.
func (a *Authenticator) exchange(ctx context.Context, form url.Values) (Account, error) {
	var ms microsoftToken
	b, err := a.Client.PostForm(ctx, pick(a.TokenURL, defaultTokenURL), form.Encode())
	if err == nil {
		err = json.Unmarshal(b, &ms)
	}
	if err == nil && ms.AccessToken == "" {
		err = fmt.Errorf("empty access token")
	}
	if err != nil {
		return Account{}, fmt.Errorf("authentication failed at step microsoft: %w", err)
	}

	var xbl xboxToken
	b, err = a.Client.PostJSON(ctx, pick(a.XboxAuthURL, defaultXboxAuthURL), map[string]interface{}{
		"Properties": map[string]interface{}{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + ms.AccessToken,
		},
		"RelyingParty": "http://auth.xboxlive.com",
		"TokenType":    "JWT",
	})
	if err == nil {
		err = json.Unmarshal(b, &xbl)
	}
	if err == nil && (xbl.Token == "" || len(xbl.DisplayClaims.XUI) == 0) {
		err = fmt.Errorf("malformed response")
	}
	if err != nil {
		return Account{}, fmt.Errorf("authentication failed at step xbox: %w", err)
	}

	var xsts xboxToken
	b, err = a.Client.PostJSON(ctx, pick(a.XSTSAuthURL, defaultXSTSAuthURL), map[string]interface{}{
		"Properties": map[string]interface{}{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{xbl.Token},
		},
		"RelyingParty": "rp://api.minecraftservices.com/",
		"TokenType":    "JWT",
	})
	if err == nil {
		err = json.Unmarshal(b, &xsts)
	}
	if err == nil && xsts.Token == "" {
		err = fmt.Errorf("malformed response")
	}
	if err != nil {
		return Account{}, fmt.Errorf("authentication failed at step xsts: %w", err)
	}

	var mc minecraftToken
	b, err = a.Client.PostJSON(ctx, pick(a.MinecraftURL, defaultMinecraftURL), map[string]interface{}{
		"identityToken": fmt.Sprintf("XBL3.0 x=%s;%s", xbl.DisplayClaims.XUI[0].UHS, xsts.Token),
	})
	if err == nil {
		err = json.Unmarshal(b, &mc)
	}
	if err == nil && mc.AccessToken == "" {
		err = fmt.Errorf("empty access token")
	}
	if err != nil {
		return Account{}, fmt.Errorf("authentication failed at step minecraft: %w", err)
	}

	var profile minecraftProfile
	b, err = a.Client.GetAuthed(ctx, pick(a.ProfileURL, defaultProfileURL), mc.AccessToken)
	if err == nil {
		err = json.Unmarshal(b, &profile)
	}
	if err == nil && profile.ID == "" {
		err = fmt.Errorf("no game profile")
	}
	if err != nil {
		return Account{}, fmt.Errorf("authentication failed at step profile: %w", err)
	}

	now := time.Now().Unix()
	return Account{
		Microsoft: Microsoft{
			RefreshToken: ms.RefreshToken,
			ExpiresOn:    now + microsoftTokenLife,
		},
		Minecraft: Minecraft{
			AccessToken: mc.AccessToken,
			ExpiresOn:   now + mc.ExpiresIn,
			Username:    profile.Name,
			UUID:        profile.ID,
		},
	}, nil
}

// Use returns the account stored under id, refreshing its tokens
// first when they are within the refresh margin of expiry. Refreshed
// tokens are written back to the store.
func Use(ctx context.Context, s *Store, a *Authenticator, id string) (Account, error) {
	acc, err := s.Get(id)
	if err != nil {
		return Account{}, err
	}
	if acc.Minecraft.ExpiresOn >= time.Now().Unix()+refreshMargin {
		return acc, nil
	}
	acc, err = a.Refresh(ctx, acc)
	if err != nil {
		return Account{}, err
	}
	if err := s.Update(id, acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}

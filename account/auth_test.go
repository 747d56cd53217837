package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdauwidhwa/NMCL/fetcher"
)

// authWorld fakes the whole exchange chain on one server.
type authWorld struct {
	srv   *httptest.Server
	forms []string
}

func newAuthWorld(t *testing.T) *authWorld {
	t.Helper()
	w := &authWorld{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(rw http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.forms = append(w.forms, r.PostForm.Encode())
		writeJSON(t, rw, map[string]string{
			"access_token":  "ms-access",
			"refresh_token": "ms-refresh",
		})
	})
	mux.HandleFunc("/xbox", func(rw http.ResponseWriter, r *http.Request) {
		var body struct {
			Properties struct {
				RpsTicket string `json:"RpsTicket"`
			} `json:"Properties"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "d=ms-access", body.Properties.RpsTicket)
		writeJSON(t, rw, map[string]interface{}{
			"Token": "xbl-token",
			"DisplayClaims": map[string]interface{}{
				"xui": []map[string]string{{"uhs": "hash-1"}},
			},
		})
	})
	mux.HandleFunc("/xsts", func(rw http.ResponseWriter, r *http.Request) {
		var body struct {
			Properties struct {
				UserTokens []string `json:"UserTokens"`
			} `json:"Properties"`
			RelyingParty string `json:"RelyingParty"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"xbl-token"}, body.Properties.UserTokens)
		assert.Equal(t, "rp://api.minecraftservices.com/", body.RelyingParty)
		writeJSON(t, rw, map[string]interface{}{
			"Token":         "xsts-token",
			"DisplayClaims": map[string]interface{}{},
		})
	})
	mux.HandleFunc("/minecraft", func(rw http.ResponseWriter, r *http.Request) {
		var body struct {
			IdentityToken string `json:"identityToken"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "XBL3.0 x=hash-1;xsts-token", body.IdentityToken)
		writeJSON(t, rw, map[string]interface{}{
			"access_token": "mc-access",
			"expires_in":   86400,
		})
	})
	mux.HandleFunc("/profile", func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mc-access", r.Header.Get("Authorization"))
		writeJSON(t, rw, map[string]string{
			"id":   "11112222333344445555666677778888",
			"name": "Steve",
		})
	})
	w.srv = httptest.NewServer(mux)
	t.Cleanup(w.srv.Close)
	return w
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func (w *authWorld) authenticator() *Authenticator {
	return &Authenticator{
		Client:       &fetcher.Client{Queue: fetcher.NewQueue(fetcher.DefaultLimit)},
		RedirectURL:  "http://127.0.0.1:25566/auth-redirect",
		TokenURL:     w.srv.URL + "/token",
		AuthorizeURL: w.srv.URL + "/authorize",
		XboxAuthURL:  w.srv.URL + "/xbox",
		XSTSAuthURL:  w.srv.URL + "/xsts",
		MinecraftURL: w.srv.URL + "/minecraft",
		ProfileURL:   w.srv.URL + "/profile",
	}
}

func TestAuthenticator_Login(t *testing.T) {
	world := newAuthWorld(t)
	a := world.authenticator()

	acc, err := a.Login(context.Background(), "the-code")
	require.NoError(t, err)

	assert.Equal(t, "ms-refresh", acc.Microsoft.RefreshToken)
	assert.Equal(t, "mc-access", acc.Minecraft.AccessToken)
	assert.Equal(t, "Steve", acc.Minecraft.Username)
	assert.Equal(t, "11112222333344445555666677778888", acc.Minecraft.UUID)
	assert.Greater(t, acc.Minecraft.ExpiresOn, time.Now().Unix())
	assert.Greater(t, acc.Microsoft.ExpiresOn, acc.Minecraft.ExpiresOn)

	require.Len(t, world.forms, 1)
	assert.Contains(t, world.forms[0], "grant_type=authorization_code")
	assert.Contains(t, world.forms[0], "code=the-code")
}

func TestAuthenticator_Refresh(t *testing.T) {
	world := newAuthWorld(t)
	a := world.authenticator()

	acc, err := a.Refresh(context.Background(), Account{
		Microsoft: Microsoft{RefreshToken: "old-refresh"},
	})
	require.NoError(t, err)
	assert.Equal(t, "mc-access", acc.Minecraft.AccessToken)

	require.Len(t, world.forms, 1)
	assert.Contains(t, world.forms[0], "grant_type=refresh_token")
	assert.Contains(t, world.forms[0], "refresh_token=old-refresh")
}

func TestAuthenticator_StepFailureNamed(t *testing.T) {
	world := newAuthWorld(t)
	a := world.authenticator()
	a.XSTSAuthURL = world.srv.URL + "/missing"

	_, err := a.Login(context.Background(), "the-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step xsts")
}

func TestAuthenticator_LoginURL(t *testing.T) {
	a := &Authenticator{RedirectURL: "http://127.0.0.1:25566/auth-redirect"}
	u := a.LoginURL()
	assert.Contains(t, u, "oauth20_authorize.srf?")
	assert.Contains(t, u, "client_id="+DefaultClientID)
	assert.Contains(t, u, "response_type=code")
	assert.Contains(t, u, "prompt=select_account")
	assert.Contains(t, u, "scope=XboxLive.signin+offline_access")
}

func TestUse_RefreshesNearExpiry(t *testing.T) {
	world := newAuthWorld(t)
	a := world.authenticator()
	s := &Store{Path: filepath.Join(t.TempDir(), "accounts.json")}
	defer s.Close()

	id, err := s.Add(Account{
		Microsoft: Microsoft{RefreshToken: "old-refresh"},
		Minecraft: Minecraft{AccessToken: "stale", ExpiresOn: time.Now().Unix() + 30},
	})
	require.NoError(t, err)

	acc, err := Use(context.Background(), s, a, id)
	require.NoError(t, err)
	assert.Equal(t, "mc-access", acc.Minecraft.AccessToken)

	stored, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "mc-access", stored.Minecraft.AccessToken)
}

func TestUse_FreshTokenSkipsNetwork(t *testing.T) {
	world := newAuthWorld(t)
	a := world.authenticator()
	s := &Store{Path: filepath.Join(t.TempDir(), "accounts.json")}
	defer s.Close()

	id, err := s.Add(Account{
		Minecraft: Minecraft{AccessToken: "fresh", ExpiresOn: time.Now().Unix() + 3600},
	})
	require.NoError(t, err)

	acc, err := Use(context.Background(), s, a, id)
	require.NoError(t, err)
	assert.Equal(t, "fresh", acc.Minecraft.AccessToken)
	assert.Empty(t, world.forms)
}

func TestReceiver_DeliversCode(t *testing.T) {
	r, err := NewReceiver()
	require.NoError(t, err)
	defer r.Close()

	resp, err := http.Get(r.RedirectURL() + "?code=abc123")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	code, err := r.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", code)
}

func TestReceiver_ScansPorts(t *testing.T) {
	first, err := NewReceiver()
	require.NoError(t, err)
	defer first.Close()

	second, err := NewReceiver()
	require.NoError(t, err)
	defer second.Close()

	assert.NotEqual(t, first.RedirectURL(), second.RedirectURL())
	for _, r := range []*Receiver{first, second} {
		assert.Contains(t, r.RedirectURL(), "http://127.0.0.1:255")
	}
}

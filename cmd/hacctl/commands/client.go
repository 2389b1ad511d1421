package commands

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"hacproxy/lib/serviceutil"
	"hacproxy/services/hac"

	"github.com/go-resty/resty/v2"
)

// apiError is the {error} body every non-200 proxy response carries.
type apiError struct {
	Error string `json:"error"`
}

type api struct {
	http      *resty.Client
	statePath string
}

// newApi builds a client for the proxy, restoring the session cookie saved
// by a previous invocation.
func newApi() *api {
	home, err := os.UserHomeDir()
	if err != nil {
		serviceutil.Fatal("failed to resolve home directory", err)
	}
	statePath := filepath.Join(home, ".hacctl-session")

	client := resty.New()
	client.SetBaseURL(*serverUrl)

	state, err := os.ReadFile(statePath)
	if err == nil && len(state) > 0 {
		client.SetCookie(&http.Cookie{
			Name:  hac.SessionCookieName,
			Value: strings.TrimSpace(string(state)),
		})
	}

	return &api{http: client, statePath: statePath}
}

// saveSession persists the session cookie from a response, if the server
// issued one.
func (a *api) saveSession(res *resty.Response) {
	for _, cookie := range res.Cookies() {
		if cookie.Name != hac.SessionCookieName {
			continue
		}
		if err := os.WriteFile(a.statePath, []byte(cookie.Value), 0600); err != nil {
			serviceutil.Fatal("failed to save session state", err)
		}
	}
}

func (a *api) clearSession() {
	err := os.Remove(a.statePath)
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to clear session state", err)
	}
}

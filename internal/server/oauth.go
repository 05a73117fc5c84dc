package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync/atomic"

	"golang.org/x/oauth2"
)

// Exchanger trades an authorization code for a token.
//
// Both [oauth2.Config] and the zmb3 spotifyauth.Authenticator satisfy it.
type Exchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// ErrStateMismatch is reported when the callback state does not match the one sent to the provider.
var ErrStateMismatch = fmt.Errorf("oauth state mismatch")

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
<title>ispot: {{.Title}}</title>
<style>
body { font-family: -apple-system, sans-serif; display: flex; align-items: center; justify-content: center; height: 100vh; margin: 0; }
h1 { color: {{.Color}}; }
</style>
</head>
<body>
<div>
<h1>{{.Title}}</h1>
<p>{{.Detail}}</p>
</div>
</body>
</html>
`))

type callbackView struct {
	Title  string
	Color  string
	Detail string
}

// OAuthHandler completes an authorization code flow on the loopback redirect URI.
//
// Only the first callback is processed. It is answered with a small HTML page and its outcome is
// delivered once on [OAuthHandler.Result].
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	path      string
	results   chan OAuthResult
	handled   atomic.Bool
}

// NewOAuthHandler creates a callback handler mounted at path (default "/callback").
// The state token should be random; callbacks carrying any other state are rejected.
func NewOAuthHandler(exchanger Exchanger, state, path string) *OAuthHandler {
	if path == "" {
		path = "/callback"
	}
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		path:      path,
		results:   make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.handled.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	token, status, err := h.exchange(r)
	h.results <- OAuthResult{Token: token, err: err}
	close(h.results)

	view := callbackView{Title: "Authorization Successful", Color: "#1DB954", Detail: "ispot is connected to Spotify. You can close this window."}
	if err != nil {
		view = callbackView{Title: "Authorization Failed", Color: "#E22134", Detail: err.Error()}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = callbackPage.Execute(w, view)
}

// exchange validates the callback query and trades its code for a token.
func (h *OAuthHandler) exchange(r *http.Request) (*oauth2.Token, int, error) {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		return nil, http.StatusBadRequest, ErrStateMismatch
	}

	code := q.Get("code")
	if code == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("authorization denied: %s %s", q.Get("error"), q.Get("error_description"))
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, http.StatusOK, nil
}

// Result delivers exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

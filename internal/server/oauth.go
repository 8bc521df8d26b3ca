package server

import (
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// OAuthResult is the outcome of one authorization-code callback.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves the authorization-code callback for a single login
// attempt. Exactly one result is delivered; later requests to the callback
// path are rejected.
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	results chan OAuthResult
	deliver sync.Once
}

// NewOAuthHandler creates a handler bound to one state token. The state must
// be random per attempt; a mismatch is treated as a forged callback.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:  config,
		state:   state,
		results: make(chan OAuthResult, 1),
	}
}

func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// Result yields the single callback outcome. The channel is closed after
// delivery.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	delivered := false
	h.deliver.Do(func() {
		delivered = true
		h.handleCallback(w, r)
		close(h.results)
	})

	if !delivered {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
	}
}

func (h *OAuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("state") != h.state {
		h.results <- OAuthResult{err: fmt.Errorf("state mismatch in callback")}
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.results <- OAuthResult{err: fmt.Errorf("authorization denied: %s (%s)",
			query.Get("error"), query.Get("error_description"))}
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.results <- OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)}
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.results <- OAuthResult{Token: token}
	writeSuccessPage(w)
}

// writeSuccessPage renders the page the user's browser lands on after a
// completed login.
func writeSuccessPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
    <title>shelf - connected</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: grid; place-items: center; min-height: 100vh;
               margin: 0; background: #121212; color: #e0e0e0; }
        main { text-align: center; padding: 2.5rem 3rem;
               border: 1px solid #2a2a2a; border-radius: 10px; background: #181818; }
        h1 { color: #1DB954; margin: 0 0 0.75rem 0; }
        p { color: #9a9a9a; margin: 0; }
    </style>
</head>
<body>
    <main>
        <h1>Spotify connected</h1>
        <p>shelf has what it needs. You can close this tab and return to the terminal.</p>
    </main>
</body>
</html>
`)
}

package warden

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// TokenHeader carries the capability token on gated requests, as
// base64-encoded JSON of the token fields.
const TokenHeader = "X-Warden-Token"

// Middleware returns an http.Handler that requires a valid capability token
// on each request before passing to the next handler. Requests without one
// receive a 403 with a JSON body.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := tokenFromRequest(r)
		if !ok || !g.VerifyToken(tok) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"blocked": true,
				"reason":  "missing or invalid capability token",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EncodeToken renders a token for the TokenHeader.
func EncodeToken(t Token) string {
	raw, _ := json.Marshal(t)
	return base64.StdEncoding.EncodeToString(raw)
}

func tokenFromRequest(r *http.Request) (*Token, bool) {
	h := r.Header.Get(TokenHeader)
	if h == "" {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(h)
	if err != nil {
		return nil, false
	}
	var t Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false
	}
	return &t, true
}

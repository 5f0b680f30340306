package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/utils"
)

const (
	csrfCookieName = "_gorilla_csrf"
	csrfHeaderName = "X-CSRF-Token"
)

// CSRFHandler issues and checks double-submit tokens of the form
// "<nonce>.<mac>", mac being HMAC-SHA256(key, nonce).
type CSRFHandler struct {
	key []byte
}

func NewCSRFHandler(key []byte) *CSRFHandler {
	return &CSRFHandler{key: key}
}

func (h *CSRFHandler) GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.newToken()
	if err != nil {
		logger.FromContext(r.Context()).Error("Error generating random bytes for CSRF token", "error", err)
		utils.SendJSONError(w, "Could not issue CSRF token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		MaxAge:   3600,
	})

	w.Header().Set(csrfHeaderName, token)
	utils.WriteJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func (h *CSRFHandler) newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	nonce := base64.RawURLEncoding.EncodeToString(b)
	return nonce + "." + h.sign(nonce), nil
}

func (h *CSRFHandler) sign(nonce string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (h *CSRFHandler) valid(token string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(h.sign(nonce)))
}

// Middleware enforces the token on state-changing methods.
func (h *CSRFHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		headerToken := r.Header.Get(csrfHeaderName)
		cookie, errCookie := r.Cookie(csrfCookieName)

		if headerToken != "" && errCookie == nil &&
			subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookie.Value)) == 1 &&
			h.valid(headerToken) {
			next.ServeHTTP(w, r)
			return
		}

		var cookieErrorForLog interface{}
		if errCookie != nil {
			cookieErrorForLog = errCookie.Error()
		}
		logger.FromContext(r.Context()).Warn("CSRF Validation Failed",
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
			slog.Bool("headerTokenExists", headerToken != ""),
			slog.Any("cookieError", cookieErrorForLog),
			slog.String("origin", r.Header.Get("Origin")),
		)

		utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
	})
}

package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
)

// Auth is the operator-authentication boundary: it issues bearer tokens for
// the configured operator credentials and gates management routes. The core
// trusts identities it produces without re-validating them.
type Auth struct {
	tokenAuth *jwtauth.JWTAuth
	username  string
	password  string
	tokenTTL  time.Duration
}

// NewAuth creates the boundary with an HS256 token authority.
func NewAuth(jwtSecret, username, password string, tokenTTL time.Duration) *Auth {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Auth{
		tokenAuth: jwtauth.New("HS256", []byte(jwtSecret), nil),
		username:  username,
		password:  password,
		tokenTTL:  tokenTTL,
	}
}

// Verifier extracts and parses a bearer token from incoming requests.
func (a *Auth) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(a.tokenAuth)
}

// Authenticator rejects requests whose token is missing or invalid.
func (a *Auth) Authenticator(next http.Handler) http.Handler {
	return jwtauth.Authenticator(next)
}

// RequireAdmin is a typed capability check against the "admin" claim. A
// missing or malformed claim denies access; no partial interpretation is
// attempted.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		admin, ok := claims["admin"].(bool)
		if !ok || !admin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// Login checks the operator credentials and issues a token carrying the
// admin capability.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.password)) == 1
	if !userOK || !passOK {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Message: "invalid credentials"})
		return
	}

	claims := map[string]interface{}{
		"sub":   req.Username,
		"admin": true,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, a.tokenTTL)

	_, token, err := a.tokenAuth.Encode(claims)
	if err != nil {
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, LoginResponse{
		Token:     token,
		ExpiresIn: int64(a.tokenTTL.Seconds()),
	})
}

package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"dr-go/internal/dr"
)

// identityClaims are the token claims the API trusts: the email and whether
// the identity platform actually verified it.
type identityClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// credentialsFromRequest extracts caller credentials from r. A bearer token
// is verified against the HMAC secret; a missing or invalid token yields
// empty credentials, which the authorization policy then rejects. The
// shared-secret key is read from the X-Admin-Key header, the key query
// parameter, or the key form field, in that order.
func (s *Server) credentialsFromRequest(r *http.Request) dr.Credentials {
	cred := dr.Credentials{Key: sharedKeyFromRequest(r)}

	auth := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || raw == "" {
		return cred
	}

	claims := &identityClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tok.Valid {
		return cred
	}

	cred.Email = claims.Email
	cred.Verified = claims.EmailVerified
	return cred
}

// sharedKeyFromRequest finds the shared secret the caller presented, if any.
func sharedKeyFromRequest(r *http.Request) string {
	if k := r.Header.Get("X-Admin-Key"); k != "" {
		return k
	}
	if k := r.URL.Query().Get("key"); k != "" {
		return k
	}
	return r.PostFormValue("key")
}

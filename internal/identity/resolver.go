// Package identity resolves the cart owner from an optional credential.
//
// Authenticated requests carry a signed JWT whose subject is the durable
// user id. Unauthenticated requests fall back to a guest id that must stay
// stable across requests from the same client: the id travels in a client
// token (a cookie at the HTTP layer) and a fresh one is minted only when no
// prior token is presented.
package identity

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const guestPrefix = "guest-"

type Resolver struct {
	secret []byte
}

func NewResolver(secret string) *Resolver {
	return &Resolver{secret: []byte(secret)}
}

// Resolve returns the owner id for a request. credential is the raw bearer
// token (may be empty), guestToken the previously issued guest id (may be
// empty). minted is non-empty only when a new guest id was created; the
// caller must hand it back to the client or the guest's next request will
// land in a different cart.
func (r *Resolver) Resolve(credential, guestToken string) (owner string, minted string) {
	if credential != "" {
		if sub, err := r.verify(credential); err == nil && sub != "" {
			return sub, ""
		}
	}

	if IsGuestID(guestToken) {
		return guestToken, ""
	}

	id := guestPrefix + uuid.NewString()
	return id, id
}

// IsGuestID reports whether s looks like a guest id this resolver minted.
func IsGuestID(s string) bool {
	if !strings.HasPrefix(s, guestPrefix) {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(s, guestPrefix))
	return err == nil
}

// MintToken signs a token for userID. Used by tests and by the onboarding
// flows that live outside this service.
func (r *Resolver) MintToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: userID,
	})
	return token.SignedString(r.secret)
}

func (r *Resolver) verify(credential string) (string, error) {
	token, err := jwt.Parse(credential, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	return sub, nil
}

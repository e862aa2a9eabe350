package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/identity"
)

type contextKey string

const (
	ownerKey     contextKey = "owner"
	requestIDKey contextKey = "request_id"
)

// GuestCookieName carries the stable anonymous owner id between requests.
const GuestCookieName = "cart_guest_id"

// AuthMiddleware resolves the cart owner from the Authorization header or,
// failing that, the guest cookie. A freshly minted guest id is written back
// as a cookie immediately so the guest's next request lands in the same
// cart.
func AuthMiddleware(resolver *identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := bearerToken(r)

			var guestToken string
			if c, err := r.Cookie(GuestCookieName); err == nil {
				guestToken = c.Value
			}

			owner, minted := resolver.Resolve(credential, guestToken)
			if minted != "" {
				http.SetCookie(w, &http.Cookie{
					Name:     GuestCookieName,
					Value:    minted,
					Path:     "/",
					MaxAge:   int((90 * 24 * time.Hour).Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), ownerKey, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func ownerFromContext(ctx context.Context) string {
	if owner, ok := ctx.Value(ownerKey).(string); ok {
		return owner
	}
	return ""
}

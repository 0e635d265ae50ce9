package auth

import (
	"net/http"
	"strings"
	"time"

	apperrors "github.com/defi-direct/bridge-middleware/pkg/app/errors"
	apphttp "github.com/defi-direct/bridge-middleware/pkg/app/http"
)

// RequireSignature authenticates user requests via EIP-191 signature headers.
// The caller signs a fresh "bridge-auth:<unix seconds>" message and sends it
// in X-Message with the signature in X-Signature. The recovered address is
// stored in the request context.
func RequireSignature(maxAge time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signature := r.Header.Get("X-Signature")
			message := r.Header.Get("X-Message")
			if signature == "" || message == "" {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "signature headers required"))
				return
			}
			if err := CheckMessageFreshness(message, maxAge, time.Now()); err != nil {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "stale auth message"))
				return
			}
			addr, err := VerifyEIP191Signature(message, signature)
			if err != nil {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid signature"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), addr)))
		})
	}
}

// RequireOperator authenticates operator requests via a bearer token.
// The operator's address and role claims are stored in the request context.
// Role enforcement happens in the engines, which compare the caller address
// against the configured role holders.
func RequireOperator(verifier *OperatorVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "bearer token required"))
				return
			}
			role, addr, err := verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid operator token"))
				return
			}
			ctx := WithOperatorRole(WithCaller(r.Context(), addr), role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package router

import (
	"errors"
	"net/http"

	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/jwt"
)

// RequireCredential rejects requests without a valid verification credential
// in the Authorization header and stores its claims in the request context.
func RequireCredential(verifier jwt.JWT) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := (&Request{Request: r}).BearerToken()
			if token == "" {
				WriteError(r.Context(), w, goerror.NewBusiness("Email verification required", goerror.CodeUnauthorized))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				msg := "Invalid verification token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "Verification has expired. Please verify your email again."
				}
				WriteError(r.Context(), w, goerror.NewBusiness(msg, goerror.CodeUnauthorized))
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}

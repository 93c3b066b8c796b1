package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/bozormarket/backend/internal/repositories"
)

// FirebaseAuthMiddleware creates an Echo middleware that verifies
// Firebase ID tokens and resolves the local user account. Handlers
// downstream read the numeric user id from c.Get("userID").
func FirebaseAuthMiddleware(authClient *auth.Client, userRepo repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			idToken := tokenParts[1]

			// Verify the ID token
			token, err := authClient.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("Invalid or expired ID token: %v", err))
			}

			// Resolve the local account behind the Firebase identity
			user, err := userRepo.GetUserByFirebaseUID(token.UID)
			if err != nil {
				if err == repositories.ErrUserNotFound {
					return echo.NewHTTPError(http.StatusUnauthorized, "No account for this token")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}

			c.Set("firebaseUID", token.UID)
			c.Set("userID", user.ID)

			return next(c)
		}
	}
}

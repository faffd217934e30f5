package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// Auth0IDKey is the context key for the Auth0 user ID (subject)
	Auth0IDKey contextKey = "auth0_id"
	// UserIDKey is the context key for the resolved user ID
	UserIDKey contextKey = "user_id"
)

// UserProvider resolves an Auth0 subject to a local user, creating the
// user record on first login
type UserProvider interface {
	ResolveUser(auth0ID, email string, name *string) (uuid.UUID, error)
}

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	validator    *validator.Validator
	userProvider UserProvider
}

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(domain, audience string, userProvider UserProvider) (*AuthMiddleware, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMiddleware{
		validator:    jwtValidator,
		userProvider: userProvider,
	}, nil
}

// Authenticate returns an Echo middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			auth0ID, custom, err := m.validateToken(c.Request().Context(), parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := context.WithValue(c.Request().Context(), Auth0IDKey, auth0ID)
			ctx = context.WithValue(ctx, ClaimsKey, custom)

			// Resolve the local user record and inject its ID into context
			if m.userProvider != nil {
				var name *string
				if custom != nil && custom.Name != "" {
					name = &custom.Name
				}
				email := ""
				if custom != nil {
					email = custom.Email
				}

				userID, err := m.userProvider.ResolveUser(auth0ID, email, name)
				if err != nil {
					log.Debug().Err(err).Str("auth0_id", auth0ID).Msg("User lookup failed")
					return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
				}
				ctx = context.WithValue(ctx, UserIDKey, userID)
			}

			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// ValidateRawToken validates a bare JWT and resolves it to a user ID. It is
// used by the websocket upgrade path where the token arrives as a query
// parameter instead of an Authorization header.
func (m *AuthMiddleware) ValidateRawToken(ctx context.Context, token string) (uuid.UUID, error) {
	auth0ID, custom, err := m.validateToken(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	if m.userProvider == nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "user resolution unavailable")
	}

	var name *string
	if custom != nil && custom.Name != "" {
		name = &custom.Name
	}
	email := ""
	if custom != nil {
		email = custom.Email
	}
	return m.userProvider.ResolveUser(auth0ID, email, name)
}

func (m *AuthMiddleware) validateToken(ctx context.Context, token string) (string, *CustomClaims, error) {
	claims, err := m.validator.ValidateToken(ctx, token)
	if err != nil {
		return "", nil, err
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return "", nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
	}

	custom, _ := validatedClaims.CustomClaims.(*CustomClaims)
	return validatedClaims.RegisteredClaims.Subject, custom, nil
}

// GetAuth0ID extracts the Auth0 user ID from the context
func GetAuth0ID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(Auth0IDKey).(string); ok {
		return id
	}
	return ""
}

// GetCustomClaims extracts the custom claims from the context
func GetCustomClaims(c echo.Context) *CustomClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*CustomClaims); ok {
		return claims
	}
	return nil
}

// GetUserID extracts the resolved user ID from the context
func GetUserID(c echo.Context) uuid.UUID {
	if id, ok := c.Request().Context().Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"b0ase/logger"
	"b0ase/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type contextKey string

const (
	UserContextKey   contextKey = "user"
	ClaimsContextKey contextKey = "claims"

	TokenCookie = "token"
)

type Claims struct {
	UserID uint        `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// RevocationStore remembers token ids that were logged out before expiry.
type RevocationStore interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Auth struct {
	secret     []byte
	expiration time.Duration
	db         *gorm.DB
	revoked    RevocationStore
}

func NewAuth(secret string, expiration time.Duration, db *gorm.DB, revoked RevocationStore) *Auth {
	return &Auth{
		secret:     []byte(secret),
		expiration: expiration,
		db:         db,
		revoked:    revoked,
	}
}

func (a *Auth) Expiration() time.Duration {
	return a.expiration
}

func (a *Auth) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Auth) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

// Revoke ends the session carried by claims for the rest of its lifetime.
func (a *Auth) Revoke(ctx context.Context, claims *Claims) error {
	if a.revoked == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return a.revoked.RevokeToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

func (a *Auth) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.expiration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

var (
	errNoToken      = errors.New("authentication required")
	errInvalidToken = errors.New("invalid or expired token")
	errRevoked      = errors.New("session has ended")
)

// authenticate resolves the request's session to a user row.
func (a *Auth) authenticate(r *http.Request) (*models.User, *Claims, error) {
	tokenString := tokenFromRequest(r)
	if tokenString == "" {
		return nil, nil, errNoToken
	}

	claims, err := a.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, errInvalidToken
	}

	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			return nil, nil, err
		}
		if revoked {
			return nil, nil, errRevoked
		}
	}

	var user models.User
	if err := a.db.WithContext(r.Context()).Preload("Profile").First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errInvalidToken
		}
		return nil, nil, err
	}
	return &user, claims, nil
}

// Require rejects requests without a live session.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, claims, err := a.authenticate(r)
		switch {
		case errors.Is(err, errNoToken):
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		case errors.Is(err, errInvalidToken), errors.Is(err, errRevoked):
			ClearCookie(w)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		case err != nil:
			logger.L().Error("session lookup failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "session store unavailable")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(WithUser(r.Context(), user), claims)))
	})
}

// Optional attaches the user when the session is valid and otherwise lets the
// request through anonymously.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, claims, err := a.authenticate(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(WithUser(r.Context(), user), claims)))
	})
}

// passwordChangeAllowed lists the routes a user with a temporary password
// may still reach.
var passwordChangeAllowed = map[string]bool{
	"/api/auth/password": true,
	"/api/auth/logout":   true,
	"/api/auth/me":       true,
}

func RequirePasswordChange(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user != nil && user.MustChangePassword && !passwordChangeAllowed[r.URL.Path] {
			writeError(w, http.StatusForbidden, "password change required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func GetClaimsFromContext(ctx context.Context) *Claims {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

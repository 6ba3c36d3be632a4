package middleware

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/loopwar-api/internal/utils"
)

// Token types carried in the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the payload of every token the API issues.
type Claims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Subject), 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("subject must be positive")
	}
	return uint(id), nil
}

// ParseClaims verifies an HS256 token signed with secret.
func ParseClaims(tokenString, secret string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// JWTProtected returns a middleware that validates bearer access tokens and
// stores the caller's id and role in the request locals.
// Websocket upgrades may pass the token as a token query parameter instead.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := ParseClaims(tokenString, secret)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}
		if claims.Type != TokenTypeAccess {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token type")
		}
		userID, err := claims.UserID()
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token subject")
		}

		c.Locals(LocalUserID, userID)
		if role := strings.ToLower(strings.TrimSpace(claims.Role)); role != "" {
			c.Locals(LocalUserRole, role)
		}

		return c.Next()
	}
}

// bearerToken reports whether a credential was presented at all and returns
// the token it carries, empty when the scheme is not Bearer.
func bearerToken(c *fiber.Ctx) (string, bool) {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authorization == "" {
		if strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket") {
			if token := strings.TrimSpace(c.Query("token")); token != "" {
				return token, true
			}
		}
		return "", false
	}

	scheme, token, found := strings.Cut(authorization, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

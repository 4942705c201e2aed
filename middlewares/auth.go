package middlewares

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "

	tokenLifetime = 24 * time.Hour
)

var ErrJWTSecretMissing = errors.New("JWT secret not configured (set JWT_SECRET_KEY or JWT_SECRET)")

// Claims is our JWT payload: subject=userID plus the recruiter's email, which
// is the actor identity for agent confirmations and drafts.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IsAuthenticatedHeader validates a Bearer token, enforces HS256, and populates c.Locals("userID","email").
func IsAuthenticatedHeader(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(secret) == 0 {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "server auth not configured",
			})
		}

		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "missing/invalid Authorization header"})
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid bearer token"})
		}

		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		var claims Claims
		token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid or expired token"})
		}
		if strings.TrimSpace(claims.Subject) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "token missing subject"})
		}

		c.Locals("userID", claims.Subject)
		c.Locals("email", claims.Email)

		return c.Next()
	}
}

// Actor is the identity the agent acts for: the user's email, else the user id.
func Actor(c *fiber.Ctx) string {
	if email, _ := c.Locals("email").(string); email != "" {
		return email
	}
	id, _ := c.Locals("userID").(string)
	return id
}

// GenerateJWT signs a new HS256 token for the given user, expiring in 24h.
func GenerateJWT(secret []byte, userID, email string) (string, error) {
	if len(secret) == 0 {
		return "", ErrJWTSecretMissing
	}
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

package serverutils

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalSessionID is the fiber.Ctx Locals key holding the authenticated session.
const LocalSessionID = "session_id"

var ErrInvalidToken = errors.New("invalid session token")

// SessionTokens issues and verifies HS256 session tokens. Tokens carry no
// expiry: a session lives as long as the session store keeps it, and routes
// answer 404 once it has been evicted.
type SessionTokens struct {
	secret []byte
}

func NewSessionTokens(secret string) *SessionTokens {
	return &SessionTokens{secret: []byte(secret)}
}

func (s *SessionTokens) Issue(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"session_id": sessionID,
		"iat":        time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse returns the session id carried by a valid token.
func (s *SessionTokens) Parse(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sessionID, ok := claims["session_id"].(string)
	if !ok || sessionID == "" {
		return "", ErrInvalidToken
	}
	return sessionID, nil
}

// TokenFromRequest reads the bearer token, falling back to the "token" query
// parameter browsers use for websocket handshakes.
func TokenFromRequest(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

// JwtMiddleware rejects requests without a valid session token and stores
// the session id in Locals.
func (s *SessionTokens) JwtMiddleware(ctx *fiber.Ctx) error {
	tokenStr := TokenFromRequest(ctx)
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	sessionID, err := s.Parse(tokenStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	ctx.Locals(LocalSessionID, sessionID)
	return ctx.Next()
}

func SessionIDFrom(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(LocalSessionID).(string)
	return id
}

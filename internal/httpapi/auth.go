package httpapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

// deviceKey is the request-locals slot holding the authenticated device id.
const deviceKey = "device"

// DeviceClaims carries the device identity inside a bearer token.
type DeviceClaims struct {
	DeviceID string `json:"did"`
	jwt.RegisteredClaims
}

// Auth mints and verifies the HS256 bearer tokens the pull API accepts.
type Auth struct {
	secret []byte
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// Mint issues a token for one device.
func (a *Auth) Mint(deviceID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &DeviceClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Validate parses and checks a raw token string.
func (a *Auth) Validate(raw string) (*DeviceClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &DeviceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*DeviceClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.DeviceID == "" {
		return nil, fmt.Errorf("missing did (device id) in token")
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token and exposes the
// device id to handlers via locals.
func (a *Auth) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization header required")
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == header || raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "bearer token required")
		}

		claims, err := a.Validate(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		c.Locals(deviceKey, claims.DeviceID)
		return c.Next()
	}
}

// Device returns the authenticated device id for the request, if any.
func Device(c fiber.Ctx) string {
	id, _ := c.Locals(deviceKey).(string)
	return id
}

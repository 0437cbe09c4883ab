package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Auth validates the bearer token and stores the user's identity in Locals
// under "user_id", "username" and "email".
func Auth(jwtSecret string) fiber.Handler {
	secret := []byte(jwtSecret)
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(401).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		userID, username, email, err := ParseToken(secret, tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals("user_id", userID)
		c.Locals("username", username)
		c.Locals("email", email)
		return c.Next()
	}
}

// ParseToken validates an HS256 token and extracts the identity claims. The
// user id lives in the "uid" claim, the username in "sub".
func ParseToken(secret []byte, tokenString string) (userID, username, email string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", "", fmt.Errorf("invalid token claims")
	}

	userID, _ = claims["uid"].(string)
	username, _ = claims["sub"].(string)
	email, _ = claims["email"].(string)
	if userID == "" {
		return "", "", "", fmt.Errorf("token missing uid claim")
	}
	return userID, username, email, nil
}

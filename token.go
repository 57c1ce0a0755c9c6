package main

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenExpiry = 24 * time.Hour

// TokenIssuer signs resume tokens binding a player id to a room, so a
// dropped connection can rejoin under its old id and keep its kill
// count. The secret is per-process: a server restart invalidates all
// outstanding tokens, which is fine since rooms don't survive restarts
// either.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer generates a fresh random signing secret
func NewTokenIssuer() *TokenIssuer {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate token secret: " + err.Error())
	}
	return &TokenIssuer{secret: secret}
}

// Issue signs a resume token for a player in a room
func (ti *TokenIssuer) Issue(playerID, room string) (string, error) {
	claims := jwt.MapClaims{
		"pid":  playerID,
		"room": room,
		"exp":  time.Now().Add(tokenExpiry).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Parse validates a resume token and returns (playerID, room, error)
func (ti *TokenIssuer) Parse(tokenStr string) (string, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return ti.secret, nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}
	pid, ok := claims["pid"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	room, ok := claims["room"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	return pid, room, nil
}

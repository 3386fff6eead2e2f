package utils

import (
	"errors"
	"time"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidConfirmationCode = errors.New("invalid confirmation code")

type confirmationClaims struct {
	Stamp string `json:"stamp"`
	jwt.RegisteredClaims
}

// GenerateConfirmationCode returns a signed code tied to the user's id and
// current confirmation stamp. Rotating the stamp revokes every code issued
// before the rotation.
func GenerateConfirmationCode(user *models.User, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &confirmationClaims{
		Stamp: user.ConfirmationStamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// VerifyConfirmationCode checks that code was issued for user in its current
// state and has not expired.
func VerifyConfirmationCode(code string, user *models.User, key []byte) error {
	if code == "" || len(key) == 0 {
		return ErrInvalidConfirmationCode
	}

	claims := &confirmationClaims{}
	token, err := jwt.ParseWithClaims(code, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidConfirmationCode
		}
		return key, nil
	}, jwt.WithSubject(user.ID.String()), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return ErrInvalidConfirmationCode
	}

	if claims.Stamp == "" || claims.Stamp != user.ConfirmationStamp {
		return ErrInvalidConfirmationCode
	}
	return nil
}

// Package auth implements the credential validator and the auth gate that
// guard every request and live connection.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/D-Abramoc/chatrelay/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken mints an HS256 session token for the given user. The subject
// claim is the decimal user id and the expiry claim is now + validityDuration.
func GenerateToken(userID int64, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the token signature and expiry and returns the user id
// from the subject claim together with the token expiry time.
//
// Error mapping:
//   - expired or absent exp claim ........ common.ErrCredentialExpired
//   - bad signature / malformed token .... common.ErrCredentialInvalid
//   - subject absent or not a decimal id . common.ErrCredentialInvalid
func ParseToken(tokenString string, secretKey []byte) (int64, time.Time, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// An absent exp claim counts as expired, same as a past one.
		if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenRequiredClaimMissing) {
			return 0, time.Time{}, common.ErrCredentialExpired
		}
		// Signature failures abort parsing before claims validation runs, but
		// an expired token must report expiry no matter how else it is broken.
		unverified := &jwt.RegisteredClaims{}
		if _, _, uerr := jwt.NewParser().ParseUnverified(tokenString, unverified); uerr == nil {
			if unverified.ExpiresAt == nil || unverified.ExpiresAt.Before(time.Now()) {
				return 0, time.Time{}, common.ErrCredentialExpired
			}
		}
		return 0, time.Time{}, common.ErrCredentialInvalid
	}

	if !token.Valid {
		return 0, time.Time{}, common.ErrCredentialInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, time.Time{}, common.ErrCredentialInvalid
	}

	return userID, claims.ExpiresAt.Time, nil
}

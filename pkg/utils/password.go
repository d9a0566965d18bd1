// Package utils holds helpers shared by the commands.
package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash stored as ops.passwordHash.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword is false for an empty hash, so an unset password never matches.
func CheckPassword(pw, hashed string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

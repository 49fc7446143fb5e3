package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const unusablePrefix = "!"

var ErrUnusablePassword = errors.New("unusable password")

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) error {
	if !Usable(hash) {
		return ErrUnusablePassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// UnusablePassword returns a hash value no password matches. Accounts
// created without a password get one until an administrator sets it.
func UnusablePassword() (string, error) {
	token, err := RandomToken(24)
	if err != nil {
		return "", err
	}
	return unusablePrefix + token, nil
}

func Usable(hash string) bool {
	return hash != "" && !strings.HasPrefix(hash, unusablePrefix)
}

func RandomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

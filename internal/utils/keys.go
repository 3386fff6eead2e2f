package utils

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key purposes. Each purpose gets its own signing key so that a token
// minted for one use is never accepted for another.
const (
	PurposeAccessToken      = "yamdb/access-token/v1"
	PurposeConfirmationCode = "yamdb/confirmation-code/v1"
)

const derivedKeyLength = 32

// DeriveKey expands secret into a 32-byte key bound to purpose using HKDF-SHA256.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("secret is empty")
	}
	if purpose == "" {
		return nil, errors.New("purpose is empty")
	}

	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	key := make([]byte, derivedKeyLength)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}

// Keys holds the signing keys derived from the configured JWT secret.
type Keys struct {
	Access       []byte
	Confirmation []byte
}

func NewKeys(secret string) (*Keys, error) {
	access, err := DeriveKey(secret, PurposeAccessToken)
	if err != nil {
		return nil, err
	}
	confirmation, err := DeriveKey(secret, PurposeConfirmationCode)
	if err != nil {
		return nil, err
	}
	return &Keys{Access: access, Confirmation: confirmation}, nil
}

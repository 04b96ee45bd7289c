package util

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

type Argon2idParams struct {
	Time        uint32
	MemoryKiB   uint32
	Parallelism uint8
	KeyLen      uint32
}

// DefaultArgon2idParams are deliberately light: the hashes only guard the
// in-process teacher table of the stand-in service.
func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:        1,
		MemoryKiB:   8 * 1024,
		Parallelism: 1,
		KeyLen:      32,
	}
}

// PasswordHash is a salted argon2id digest of an NFKD-normalized password.
type PasswordHash struct {
	Salt   []byte
	Key    []byte
	Params Argon2idParams
}

// HashPassword derives a PasswordHash with a fresh random salt.
func HashPassword(password string, params Argon2idParams) (PasswordHash, error) {
	salt, err := RandomBytes(16)
	if err != nil {
		return PasswordHash{}, err
	}
	key, err := deriveArgon2idKey(password, salt, params)
	if err != nil {
		return PasswordHash{}, err
	}
	return PasswordHash{Salt: salt, Key: key, Params: params}, nil
}

// Matches reports whether password hashes to h, in constant time.
func (h PasswordHash) Matches(password string) bool {
	key, err := deriveArgon2idKey(password, h.Salt, h.Params)
	if err != nil {
		return false
	}
	defer WipeBytes(key)
	return subtle.ConstantTimeCompare(key, h.Key) == 1
}

func deriveArgon2idKey(password string, salt []byte, params Argon2idParams) ([]byte, error) {
	if params.KeyLen != 32 {
		return nil, fmt.Errorf("argon2id key length must be 32 bytes")
	}
	return argon2.IDKey([]byte(Normalize(password)), salt, params.Time, params.MemoryKiB, params.Parallelism, params.KeyLen), nil
}

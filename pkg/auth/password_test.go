package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.NoError(t, hasher.Compare(hash, "correct horse battery"))
	assert.Error(t, hasher.Compare(hash, "wrong password"))
}

func TestHasher_EmptyPassword(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	_, err := hasher.Hash("")
	assert.Error(t, err)
}

func TestHasher_HashesAreSalted(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same password")
	require.NoError(t, err)
	second, err := hasher.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNewHasher_ClampsInvalidCost(t *testing.T) {
	hasher := NewHasher(99)
	assert.Equal(t, DefaultBcryptCost, hasher.cost)

	hasher = NewHasher(-1)
	assert.Equal(t, DefaultBcryptCost, hasher.cost)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"too short", "12345", true},
		{"minimum length", "123456", false},
		{"normal", "a sensible passphrase", false},
		{"at bcrypt limit", strings.Repeat("a", 72), false},
		{"over bcrypt limit", strings.Repeat("a", 73), true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

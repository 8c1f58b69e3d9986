package password_test

import (
	"errors"
	"serenity/shared/password"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestConstants(t *testing.T) {
	if password.DefaultCost != bcrypt.DefaultCost {
		t.Errorf("expected DefaultCost to be %d, got %d", bcrypt.DefaultCost, password.DefaultCost)
	}
}

func TestErrors(t *testing.T) {
	if password.ErrInvalidPassword.Error() != "invalid password" {
		t.Errorf("expected ErrInvalidPassword message to be 'invalid password', got %s", password.ErrInvalidPassword.Error())
	}
}

func TestHash(t *testing.T) {
	tests := []struct {
		name        string
		password    string
		expectError bool
	}{
		{
			name:     "valid password",
			password: "mysecretpassword",
		},
		{
			name:     "short password",
			password: "a",
		},
		{
			name:        "empty password",
			password:    "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := password.Hash(tt.password)

			if tt.expectError {
				if err == nil {
					t.Error("expected an error, got nil")
				}
				if hash != "" {
					t.Errorf("expected empty hash on error, got %s", hash)
				}

				return
			}

			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if !strings.HasPrefix(hash, "$2a$") {
				t.Errorf("expected a bcrypt hash, got %s", hash)
			}
			if hash == tt.password {
				t.Error("hash must not equal the plaintext password")
			}
		})
	}
}

func TestHash_DistinctSalts(t *testing.T) {
	first, err := password.Hash("mysecretpassword")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	second, err := password.Hash("mysecretpassword")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first == second {
		t.Error("expected two hashes of the same password to differ")
	}
}

func TestVerify(t *testing.T) {
	hash, err := password.Hash("mysecretpassword")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		expected error
	}{
		{
			name:     "matching password",
			password: "mysecretpassword",
			hash:     hash,
		},
		{
			name:     "wrong password",
			password: "nottherightone",
			hash:     hash,
			expected: password.ErrInvalidPassword,
		},
		{
			name:     "empty password",
			password: "",
			hash:     hash,
			expected: password.ErrInvalidPassword,
		},
		{
			name:     "empty hash",
			password: "mysecretpassword",
			hash:     "",
			expected: password.ErrInvalidPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := password.Verify(tt.password, tt.hash)

			if tt.expected == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}

				return
			}

			if !errors.Is(err, tt.expected) {
				t.Errorf("expected error %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	err := password.Verify("mysecretpassword", "not-a-bcrypt-hash")

	if err == nil {
		t.Error("expected an error, got nil")
	}
	if errors.Is(err, password.ErrInvalidPassword) {
		t.Error("a malformed hash should not report an invalid password")
	}
}

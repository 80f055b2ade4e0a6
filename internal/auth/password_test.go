package auth

import (
	"context"
	"strings"
	"testing"
)

func TestPasswordHasher_Hash(t *testing.T) {
	hasher := NewPasswordHasher(4) // Low cost for faster tests
	ctx := context.Background()

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "validpassword123",
			wantErr:  nil,
		},
		{
			name:     "password too short",
			password: "short",
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "password at minimum length",
			password: "123456",
			wantErr:  nil,
		},
		{
			name:     "password too long",
			password: strings.Repeat("a", 73),
			wantErr:  ErrPasswordTooLong,
		},
		{
			name:     "password at maximum length",
			password: strings.Repeat("a", 72),
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(ctx, tt.password)
			if err != tt.wantErr {
				t.Errorf("Hash() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && hash == "" {
				t.Error("Hash() returned empty hash for valid password")
			}
			if tt.wantErr == nil && hash == tt.password {
				t.Error("Hash() returned the plaintext password")
			}
		})
	}
}

func TestPasswordHasher_HashIsSalted(t *testing.T) {
	hasher := NewPasswordHasher(4)
	ctx := context.Background()

	first, err := hasher.Hash(ctx, "samepassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := hasher.Hash(ctx, "samepassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password are identical, salt missing")
	}
}

func TestPasswordHasher_Verify(t *testing.T) {
	hasher := NewPasswordHasher(4)
	ctx := context.Background()

	hash, err := hasher.Hash(ctx, "correctpassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{
			name:     "correct password",
			hash:     hash,
			password: "correctpassword",
			want:     true,
		},
		{
			name:     "wrong password",
			hash:     hash,
			password: "wrongpassword",
			want:     false,
		},
		{
			name:     "empty password",
			hash:     hash,
			password: "",
			want:     false,
		},
		{
			name:     "malformed hash",
			hash:     "not-a-bcrypt-hash",
			password: "correctpassword",
			want:     false,
		},
		{
			name:     "empty hash",
			hash:     "",
			password: "correctpassword",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasher.Verify(ctx, tt.hash, tt.password); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPasswordHasher_CancelledContext(t *testing.T) {
	hasher := NewPasswordHasher(4)

	hash, err := hasher.Hash(context.Background(), "correctpassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Fails closed: a cancelled request must never verify
	if hasher.Verify(ctx, hash, "correctpassword") {
		t.Error("Verify() succeeded with cancelled context")
	}
	if _, err := hasher.Hash(ctx, "anotherpassword"); err != ErrHasherBusy {
		t.Errorf("Hash() with cancelled context error = %v, want %v", err, ErrHasherBusy)
	}
}

func TestNewPasswordHasher_CostFallback(t *testing.T) {
	hasher := NewPasswordHasher(100)
	if hasher.cost != 12 {
		t.Errorf("cost = %d, want fallback 12", hasher.cost)
	}

	hasher = NewPasswordHasher(4)
	if hasher.cost != 4 {
		t.Errorf("cost = %d, want 4", hasher.cost)
	}
}

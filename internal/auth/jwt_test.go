package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	token, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("UserID = %s, want %s", claims.UserID, user.ID)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("Role = %s, want %s", claims.Role, models.RoleAdmin)
	}
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, -time.Minute)
	token, err := svc.Issue(&models.User{ID: uuid.New(), Role: models.RoleCustomer})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify() error = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenService(testSecret, time.Hour)
	verifier := NewTokenService("ffffffffffffffffffffffffffffffff", time.Hour)

	token, err := issuer.Issue(&models.User{ID: uuid.New(), Role: models.RoleCustomer})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour)
	if _, err := svc.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := CheckPassword(hash, "hunter22"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
	if err := CheckPassword(hash, "hunter23"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("CheckPassword() error = %v, want ErrWrongPassword", err)
	}
}

package service

import (
	"errors"
	"testing"
	"time"

	"roaster_control/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testSigningKey = "test-signing-key"

// mockAuthRepo is a lightweight in-test mock for repository.Authorization.
type mockAuthRepo struct {
	CreateFn        func(username, hash string) (int, error)
	GetByUsernameFn func(username string) (*models.User, error)

	createCalls []struct {
		username string
		hash     string
	}
}

func (m *mockAuthRepo) Create(username, hash string) (int, error) {
	m.createCalls = append(m.createCalls, struct {
		username string
		hash     string
	}{username: username, hash: hash})
	return m.CreateFn(username, hash)
}

func (m *mockAuthRepo) GetByUsername(username string) (*models.User, error) {
	return m.GetByUsernameFn(username)
}

func TestAuthService_SignUp_HashesPassword(t *testing.T) {
	mock := &mockAuthRepo{
		CreateFn: func(username, hash string) (int, error) { return 42, nil },
	}
	svc := NewAuthService(mock, testSigningKey)

	id, err := svc.SignUp("alice", "s3cr3t")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if id != 42 {
		t.Fatalf("id %d, want 42", id)
	}
	if len(mock.createCalls) != 1 {
		t.Fatalf("expected 1 Create call, got %d", len(mock.createCalls))
	}
	call := mock.createCalls[0]
	if call.hash == "s3cr3t" {
		t.Errorf("password stored unhashed")
	}
	if err := verifyPassword(call.hash, "s3cr3t"); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestAuthService_GenerateToken_RoundTrip(t *testing.T) {
	hash, err := hashPassword("s3cr3t")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	mock := &mockAuthRepo{
		GetByUsernameFn: func(username string) (*models.User, error) {
			return &models.User{ID: 7, Username: username, PasswordHash: hash}, nil
		},
	}
	svc := NewAuthService(mock, testSigningKey)

	token, err := svc.GenerateToken("alice", "s3cr3t")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	userID, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if userID != 7 {
		t.Fatalf("user id %d, want 7", userID)
	}
}

func TestAuthService_GenerateToken_WrongPassword(t *testing.T) {
	hash, _ := hashPassword("right")
	mock := &mockAuthRepo{
		GetByUsernameFn: func(username string) (*models.User, error) {
			return &models.User{ID: 7, Username: username, PasswordHash: hash}, nil
		},
	}
	svc := NewAuthService(mock, testSigningKey)

	if _, err := svc.GenerateToken("alice", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("want ErrInvalidPassword, got %v", err)
	}
}

func TestAuthService_GenerateToken_UnknownUser(t *testing.T) {
	mock := &mockAuthRepo{
		GetByUsernameFn: func(username string) (*models.User, error) { return nil, nil },
	}
	svc := NewAuthService(mock, testSigningKey)

	if _, err := svc.GenerateToken("ghost", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_ParseToken_RejectsWrongKey(t *testing.T) {
	other := NewAuthService(&mockAuthRepo{}, "another-key")
	hash, _ := hashPassword("pw")
	mock := &mockAuthRepo{
		GetByUsernameFn: func(username string) (*models.User, error) {
			return &models.User{ID: 1, Username: username, PasswordHash: hash}, nil
		},
	}
	svc := NewAuthService(mock, testSigningKey)

	token, err := svc.GenerateToken("alice", "pw")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := other.ParseToken(token); err == nil {
		t.Fatalf("token accepted with the wrong key")
	}
}

func TestAuthService_ParseToken_RejectsExpired(t *testing.T) {
	now := time.Now().Add(-2 * tokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		UserID: 7,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	svc := NewAuthService(&mockAuthRepo{}, testSigningKey)
	if _, err := svc.ParseToken(token); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestAuthService_ParseToken_RejectsNonHMAC(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, testSigningKey)
	// alg=none style token from another signer family must be rejected.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ParseToken(signed); err == nil {
		t.Fatalf("non-HMAC token accepted")
	}
}

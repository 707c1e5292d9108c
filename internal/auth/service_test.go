package auth

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterDeviceAndIssueToken(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	createdAt := time.Now().Add(-time.Minute)
	mock.ExpectQuery(`INSERT INTO devices`).
		WithArgs(pgxmock.AnyArg(), "tracker-01", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	svc := NewService("test-secret", mock)
	device, tokens, err := svc.RegisterDevice(context.Background(), RegisterRequest{
		Name:   "tracker-01",
		Secret: "s3cret",
	})
	if err != nil {
		t.Fatalf("register device: %v", err)
	}
	if device.ID == "" || device.Name != "tracker-01" {
		t.Fatalf("unexpected device: %+v", device)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(device.SecretHash), []byte("s3cret")); err != nil {
		t.Fatalf("secret hash does not match: %v", err)
	}
	if tokens.AccessToken == "" || tokens.TokenType != "Bearer" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}

	deviceID, err := svc.ValidateAccessToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if deviceID != device.ID {
		t.Fatalf("token carries %q, want %q", deviceID, device.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRegisterDeviceRequiresNameAndSecret(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService("test-secret", mock)
	if _, _, err := svc.RegisterDevice(context.Background(), RegisterRequest{Name: "tracker-01"}); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, _, err := svc.RegisterDevice(context.Background(), RegisterRequest{Secret: "s3cret"}); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestIssueTokenWithValidSecret(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	hashBytes, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	mock.ExpectQuery(`SELECT secret_hash FROM devices`).
		WithArgs("device-1").
		WillReturnRows(pgxmock.NewRows([]string{"secret_hash"}).AddRow(string(hashBytes)))

	svc := NewService("test-secret", mock)
	tokens, err := svc.IssueToken(context.Background(), TokenRequest{DeviceID: "device-1", Secret: "s3cret"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if tokens.ExpiresIn != int64(tokenTTL.Seconds()) {
		t.Fatalf("unexpected expires_in %d", tokens.ExpiresIn)
	}

	deviceID, err := svc.ValidateAccessToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if deviceID != "device-1" {
		t.Fatalf("token carries %q, want device-1", deviceID)
	}
}

func TestIssueTokenRejectsWrongSecret(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	hashBytes, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	mock.ExpectQuery(`SELECT secret_hash FROM devices`).
		WithArgs("device-1").
		WillReturnRows(pgxmock.NewRows([]string{"secret_hash"}).AddRow(string(hashBytes)))

	svc := NewService("test-secret", mock)
	if _, err := svc.IssueToken(context.Background(), TokenRequest{DeviceID: "device-1", Secret: "wrong"}); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestIssueTokenRejectsUnknownDevice(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT secret_hash FROM devices`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"secret_hash"}))

	svc := NewService("test-secret", mock)
	if _, err := svc.IssueToken(context.Background(), TokenRequest{DeviceID: "ghost", Secret: "s3cret"}); err == nil {
		t.Fatal("expected error for unknown device")
	}
}

func TestValidateAccessTokenRejectsExpired(t *testing.T) {
	svc := NewService("test-secret", nil)
	token, err := svc.signToken("device-1", -time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestValidateAccessTokenRejectsWrongSecret(t *testing.T) {
	other := NewService("other-secret", nil)
	token, err := other.signToken("device-1", time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	svc := NewService("test-secret", nil)
	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/NikBulygin/Indrive-hackation-backend/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// Service issues and validates access tokens for tracker devices.
type Service struct {
	secret []byte
	db     db.Querier
}

type Claims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

func NewService(secret string, db db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		db:     db,
	}
}

// RegisterDevice stores a new device with a hashed secret and returns a
// first token.
func (s *Service) RegisterDevice(ctx context.Context, req RegisterRequest) (Device, TokenResponse, error) {
	if req.Name == "" || req.Secret == "" {
		return Device{}, TokenResponse{}, errors.New("name and secret required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Secret), bcrypt.DefaultCost)
	if err != nil {
		return Device{}, TokenResponse{}, err
	}

	device := Device{
		ID:         uuid.NewString(),
		Name:       req.Name,
		SecretHash: string(hash),
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO devices (id, name, secret_hash)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, device.ID, device.Name, device.SecretHash)
	if err := row.Scan(&device.CreatedAt); err != nil {
		return Device{}, TokenResponse{}, err
	}

	tokens, err := s.issueToken(device.ID)
	if err != nil {
		return Device{}, TokenResponse{}, err
	}
	return device, tokens, nil
}

// IssueToken authenticates a device by id and secret.
func (s *Service) IssueToken(ctx context.Context, req TokenRequest) (TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT secret_hash FROM devices WHERE id = $1
	`, req.DeviceID)

	var hash string
	if err := row.Scan(&hash); err != nil {
		return TokenResponse{}, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Secret)); err != nil {
		return TokenResponse{}, errors.New("invalid credentials")
	}
	return s.issueToken(req.DeviceID)
}

// ValidateAccessToken returns the device id carried by a valid token.
func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.DeviceID, nil
}

func (s *Service) issueToken(deviceID string) (TokenResponse, error) {
	token, err := s.signToken(deviceID, tokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(tokenTTL.Seconds()),
	}, nil
}

func (s *Service) signToken(deviceID string, ttl time.Duration) (string, error) {
	claims := Claims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

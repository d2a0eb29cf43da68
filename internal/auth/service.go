package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenTTL = 12 * time.Hour

var (
	ErrProvisioningDisabled = errors.New("device provisioning disabled")
	ErrInvalidDeviceKey     = errors.New("invalid device key")
)

type Service struct {
	secret  []byte
	keyHash []byte
}

type Claims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// NewService signs tokens with secret. keyHash is the bcrypt hash of the
// shared provisioning key; an empty hash refuses every device.
func NewService(secret, keyHash string) *Service {
	return &Service{
		secret:  []byte(secret),
		keyHash: []byte(keyHash),
	}
}

// IssueDeviceToken checks the provisioning key and returns a bearer token
// for the device.
func (s *Service) IssueDeviceToken(deviceID, deviceKey string) (TokenResponse, error) {
	if len(s.keyHash) == 0 {
		return TokenResponse{}, ErrProvisioningDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.keyHash, []byte(deviceKey)); err != nil {
		return TokenResponse{}, ErrInvalidDeviceKey
	}

	access, err := s.signToken(deviceID, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.DeviceID, nil
}

func (s *Service) signToken(deviceID string, ttl time.Duration) (string, error) {
	claims := Claims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
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
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

package service

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/langschool-api/internal/models"
	appErrors "github.com/noah-isme/langschool-api/pkg/errors"
)

// TokenConfig defines how identity tokens are signed.
type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// TokenService issues and verifies signed identity tokens.
type TokenService struct {
	validator *validator.Validate
	config    TokenConfig
	now       func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(validate *validator.Validate, config TokenConfig) *TokenService {
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = time.Hour
	}
	return &TokenService{validator: validate, config: config, now: time.Now}
}

// Issue signs the identity claim.
func (s *TokenService) Issue(claim models.IdentityClaim) (*models.TokenResponse, error) {
	claim.Email = strings.TrimSpace(claim.Email)
	if err := s.validator.Struct(claim); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid identity payload")
	}

	issuedAt := s.now().UTC()
	claims := models.JWTClaims{
		Email: claim.Email,
		Name:  claim.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claim.Email,
			Issuer:    s.config.Issuer,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return &models.TokenResponse{Token: signed}, nil
}

// Verify checks algorithm, signature and expiry and returns the embedded claims.
func (s *TokenService) Verify(tokenString string) (*models.JWTClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, appErrors.ErrUnauthorized
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, appErrors.ErrUnauthorized.Message)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/internal/client"
	"github.com/appdev-aems/portal-api/internal/models"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
)

type authRegistrarClient interface {
	UserLogin(ctx context.Context, creds client.Credentials) (client.AuthResult, error)
	StudentLogin(ctx context.Context, creds client.Credentials) (client.AuthResult, error)
	RegisterUser(ctx context.Context, in client.RegistrationInput) (client.AuthResult, error)
	RegisterStudent(ctx context.Context, in client.RegistrationInput) (client.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// AuthConfig defines token issuance parameters.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// LoginRequest is the credential payload accepted by the portal.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=student faculty admin"`
}

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Firstname string `json:"firstname" validate:"required"`
	Lastname  string `json:"lastname" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Program   string `json:"program"`
	Role      string `json:"role" validate:"omitempty,oneof=student faculty"`
}

// AuthService proxies credential checks to the registrar and issues the
// portal's own short-lived JWTs. The portal never stores passwords.
type AuthService struct {
	registrar authRegistrarClient
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(registrar authRegistrarClient, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{registrar: registrar, validator: validate, logger: logger, config: config}
}

// Login verifies credentials against the registrar and issues a token.
// Student credentials go through the student endpoint; everything else
// through the staff endpoint.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	creds := client.Credentials{Email: req.Email, Password: req.Password}
	var (
		result client.AuthResult
		err    error
	)
	if req.Role == "" || req.Role == models.RoleStudent {
		result, err = s.registrar.StudentLogin(ctx, creds)
	} else {
		result, err = s.registrar.UserLogin(ctx, creds)
	}
	if err != nil {
		if fromErr := appErrors.FromError(err); fromErr.Code == appErrors.ErrNotFound.Code {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, err
	}

	subject := result.SubjectID()
	if subject == "" {
		s.logger.Error("registrar accepted credentials without an identity", zap.String("email", req.Email))
		return nil, appErrors.Clone(appErrors.ErrInternal, "registrar returned no identity")
	}
	role := result.Role
	if role == "" {
		role = req.Role
	}
	if role == "" {
		role = models.RoleStudent
	}

	token, expiresIn, err := s.issueToken(subject, role, result.Name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("login succeeded", zap.String("userId", subject), zap.String("role", role))
	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		UserID:      subject,
		Role:        role,
	}, nil
}

// Register creates an account through the registrar and issues a token.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	in := client.RegistrationInput{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Password:  req.Password,
		Program:   req.Program,
	}
	var (
		result client.AuthResult
		err    error
	)
	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	if role == models.RoleStudent {
		result, err = s.registrar.RegisterStudent(ctx, in)
	} else {
		result, err = s.registrar.RegisterUser(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	subject := result.SubjectID()
	if subject == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "registrar returned no identity")
	}
	token, expiresIn, err := s.issueToken(subject, role, req.Firstname+" "+req.Lastname)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		UserID:      subject,
		Role:        role,
	}, nil
}

// ForgotPassword starts a reset flow. The registrar owns delivery.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return appErrors.Clone(appErrors.ErrValidation, "email is required")
	}
	return s.registrar.ForgotPassword(ctx, email)
}

// ResetPassword completes a reset flow.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" || password == "" {
		return appErrors.Clone(appErrors.ErrValidation, "token and password are required")
	}
	return s.registrar.ResetPassword(ctx, token, password)
}

// ValidateToken parses and verifies a portal JWT.
func (s *AuthService) ValidateToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issueToken(subject, role, name string) (string, int64, error) {
	now := time.Now()
	expiry := s.config.Expiration
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	claims := models.Claims{
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		s.logger.Error("failed to sign token", zap.Error(err))
		return "", 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}
	return signed, int64(expiry.Seconds()), nil
}

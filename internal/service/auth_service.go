package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"study-mitra/internal/config"
	"study-mitra/internal/domain"
	"study-mitra/internal/dto"
	"study-mitra/internal/logger"
	"study-mitra/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minSecretKeyLength     = 32
	defaultMinPasswordSize = 6
)

var (
	ErrInvalidJWTToken    = errors.New("invalid jwt token")
	ErrInvalidCredentials = domain.NewUnauthorizedError("Invalid email or password")
	errWrongTokenType     = errors.New("unexpected token type")
	errSessionRevoked     = errors.New("session has been signed out")
)

// AuthService signs users up and in with email and password and issues JWT pairs.
type AuthService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*domain.TokenPair, *domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error)
	// Refresh rotates the pair; the old session id is revoked for the rest of its lifetime.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	SignOut(ctx context.Context, session domain.Session) error
	// ValidateAccessToken returns the session of a valid, unrevoked access token.
	ValidateAccessToken(ctx context.Context, token string) (*domain.Session, error)
}

type authServiceImpl struct {
	userRepo domain.UserRepository
	revoker  domain.SessionRevoker
	cfg      config.AuthConfig
	now      func() time.Time
}

func NewAuthService(userRepo domain.UserRepository, revoker domain.SessionRevoker, cfg config.AuthConfig) (AuthService, error) {
	if len(cfg.JWT.SecretKey) < minSecretKeyLength {
		return nil, fmt.Errorf("jwt secret key must be at least %d bytes long", minSecretKeyLength)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.MinPasswordLen <= 0 {
		cfg.MinPasswordLen = defaultMinPasswordSize
	}
	return &authServiceImpl{userRepo: userRepo, revoker: revoker, cfg: cfg, now: time.Now}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authServiceImpl) SignUp(ctx context.Context, email, password, displayName string) (*domain.TokenPair, *domain.User, error) {
	email = normalizeEmail(email)
	if len(password) < s.cfg.MinPasswordLen {
		return nil, nil, domain.ValidationErrors{{
			Field:   "password",
			Code:    domain.CodeOutOfRange,
			Message: fmt.Sprintf("must be at least %d characters", s.cfg.MinPasswordLen),
		}}
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, domain.NewInternalError("Failed to look up account", err)
	}
	if existing != nil {
		return nil, nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, nil, domain.NewInternalError("Failed to hash password", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           util.NewULID(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		Subjects:     []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, nil, domain.ErrEmailTaken
		}
		return nil, nil, domain.NewInternalError("Failed to create account", err)
	}

	pair, err := s.issue(user, util.NewULID())
	if err != nil {
		return nil, nil, err
	}
	logger.Get().Info("User signed up", zap.String("userID", user.ID))
	return pair, user, nil
}

func (s *authServiceImpl) SignIn(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, domain.NewInternalError("Failed to look up account", err)
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Get().Info("Sign-in rejected", zap.String("userID", user.ID))
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issue(user, util.NewULID())
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.parse(ctx, refreshToken, dto.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to look up account", err)
	}
	if user == nil {
		return nil, domain.NewUnauthorizedError("Account no longer exists")
	}

	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			if err := s.revoker.Revoke(ctx, claims.SessionID, remaining); err != nil {
				return nil, domain.NewInternalError("Failed to rotate session", err)
			}
		}
	}

	pair, err := s.issue(user, util.NewULID())
	if err != nil {
		return nil, err
	}
	logger.Get().Info("JWT token refreshed", zap.String("userID", user.ID))
	return pair, nil
}

func (s *authServiceImpl) SignOut(ctx context.Context, session domain.Session) error {
	if session.SessionID == "" {
		return domain.NewUnauthorizedError("No active session")
	}
	if err := s.revoker.Revoke(ctx, session.SessionID, s.cfg.JWT.RefreshTokenTTL); err != nil {
		return domain.NewInternalError("Failed to sign out", err)
	}
	logger.Get().Info("User signed out", zap.String("userID", session.UserID))
	return nil
}

func (s *authServiceImpl) ValidateAccessToken(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.parse(ctx, token, dto.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &domain.Session{UserID: claims.UserID, SessionID: claims.SessionID, Email: claims.Email}, nil
}

func (s *authServiceImpl) issue(user *domain.User, sessionID string) (*domain.TokenPair, error) {
	now := s.now()
	accessExp := now.Add(s.cfg.JWT.AccessTokenTTL)

	access, err := s.sign(user, sessionID, dto.TokenTypeAccess, now, accessExp)
	if err != nil {
		return nil, domain.NewInternalError("Failed to create access token", err)
	}
	refresh, err := s.sign(user, sessionID, dto.TokenTypeRefresh, now, now.Add(s.cfg.JWT.RefreshTokenTTL))
	if err != nil {
		return nil, domain.NewInternalError("Failed to create refresh token", err)
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: accessExp.UTC()}, nil
}

func (s *authServiceImpl) sign(user *domain.User, sessionID, tokenType string, issuedAt, expiresAt time.Time) (string, error) {
	claims := dto.AuthClaims{
		UserID:    user.ID,
		SessionID: sessionID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			Subject:   user.ID,
			ID:        util.NewULID(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.SecretKey))
}

// parse checks signature, expiry, token type and revocation, in that order.
func (s *authServiceImpl) parse(ctx context.Context, tokenString, wantType string) (*dto.AuthClaims, error) {
	appLogger := logger.Get()
	token, err := jwt.ParseWithClaims(tokenString, &dto.AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			appLogger.Debug("JWT token expired", zap.Error(err))
			return nil, domain.NewError(domain.CodeUnauthorized, "Token has expired", err)
		}
		appLogger.Warn("JWT validation failed", zap.Error(err))
		return nil, domain.NewError(domain.CodeUnauthorized, "Invalid token", fmt.Errorf("%w: %v", ErrInvalidJWTToken, err))
	}

	claims, ok := token.Claims.(*dto.AuthClaims)
	if !ok || !token.Valid || claims.UserID == "" || claims.SessionID == "" {
		return nil, domain.NewError(domain.CodeUnauthorized, "Invalid token", ErrInvalidJWTToken)
	}
	if claims.TokenType != wantType {
		return nil, domain.NewError(domain.CodeUnauthorized, "Invalid token", errWrongTokenType)
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.SessionID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to check session", err)
	}
	if revoked {
		return nil, domain.NewError(domain.CodeUnauthorized, "Session has been signed out", errSessionRevoked)
	}
	return claims, nil
}

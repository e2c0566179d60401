package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-academy/app/dto"
	"github.com/vibast-solutions/ms-go-academy/app/entity"
	"github.com/vibast-solutions/ms-go-academy/app/notification"
	"github.com/vibast-solutions/ms-go-academy/app/repository"
	"github.com/vibast-solutions/ms-go-academy/app/security"
	"github.com/vibast-solutions/ms-go-academy/app/validation"
	"github.com/vibast-solutions/ms-go-academy/config"
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByVerificationHash(ctx context.Context, hash string, now time.Time) (*entity.User, error)
	FindByResetHash(ctx context.Context, hash string, now time.Time) (*entity.User, error)
	UpdateCredentials(ctx context.Context, id string, guard entity.CredentialGuard, change entity.CredentialChange) (bool, error)
	ClearRefreshToken(ctx context.Context, id string) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Option func(*options)

type options struct {
	now    func() time.Time
	logger logrus.FieldLogger
}

// WithClock replaces time.Now for token expiry and issuance.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// AuthService drives the credential lifecycle: registration, verification,
// sign-in, token refresh, sign-out and both password flows.
type AuthService struct {
	userRepo userRepository
	sender   notification.Sender
	hasher   *security.PasswordHasher
	codec    *security.TokenCodec
	cfg      *config.Config
	now      func() time.Time
	logger   logrus.FieldLogger
}

func NewAuthService(userRepo userRepository, sender notification.Sender, cfg *config.Config, opts ...Option) *AuthService {
	o := buildOptions(opts)
	return &AuthService{
		userRepo: userRepo,
		sender:   sender,
		hasher:   security.NewPasswordHasher(cfg.Password.BcryptCost),
		codec:    security.NewTokenCodec(o.now),
		cfg:      cfg,
		now:      o.now,
		logger:   o.logger,
	}
}

func (s *AuthService) Register(ctx context.Context, in dto.RegisterInput) (*dto.PublicUser, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = NormalizeEmail(in.Email)
	in.Role = strings.TrimSpace(in.Role)

	if err := validation.Struct(in); err != nil {
		return nil, badRequest(validation.Message(err))
	}
	if err := s.checkPasswordLength(in.Password, s.cfg.Password.RegisterMinLength, "Password"); err != nil {
		return nil, err
	}

	role := entity.RoleStudent
	if in.Role != "" {
		role = entity.Role(in.Role)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	rawToken, tokenHash, err := security.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         role,
		EmailVerification: &entity.PendingToken{
			Hash:      tokenHash,
			ExpiresAt: s.now().Add(s.cfg.Tokens.VerificationTTL),
		},
	}

	err = s.userRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.userRepo.FindByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict("User with this email already exists")
		}
		return s.userRepo.Create(ctx, user)
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, conflict("User with this email already exists")
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")

	if err := s.sender.SendVerification(ctx, user.Email, user.FirstName, verificationLink(s.cfg.App.FrontendURL, rawToken)); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to send verification email")
		return nil, fmt.Errorf("send verification email: %w", err)
	}

	return dto.NewPublicUser(user), nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) (*dto.PublicUser, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, badRequest("Verification token is required")
	}

	user, err := s.userRepo.FindByVerificationHash(ctx, security.FastHash(rawToken), s.now())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, badRequest(msgInvalidVerifyToken)
	}

	verified := true
	ok, err := s.commit(ctx, user,
		entity.CredentialGuard{VerificationHash: user.EmailVerification.Hash},
		entity.CredentialChange{IsVerified: &verified, ClearEmailVerification: true},
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, badRequest(msgInvalidVerifyToken)
	}

	s.logger.WithField("user_id", user.ID).Info("Email verified")
	return dto.NewPublicUser(user), nil
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return badRequest("Email is required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return notFound(msgUserNotFound)
	}
	if user.IsVerified {
		return badRequest("Email is already verified")
	}

	rawToken, tokenHash, err := security.NewOpaqueToken()
	if err != nil {
		return err
	}
	ok, err := s.commit(ctx, user,
		entity.CredentialGuard{Unverified: true},
		entity.CredentialChange{EmailVerification: &entity.PendingToken{
			Hash:      tokenHash,
			ExpiresAt: s.now().Add(s.cfg.Tokens.ResendVerificationTTL),
		}},
	)
	if err != nil {
		return err
	}
	if !ok {
		return badRequest("Email is already verified")
	}

	if err := s.sender.SendVerification(ctx, user.Email, user.FirstName, verificationLink(s.cfg.App.FrontendURL, rawToken)); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to resend verification email")
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*dto.AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, badRequest("Email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound(msgUserNotFound)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.WithField("user_id", user.ID).Warn("Sign-in rejected: wrong password")
		return nil, unauthorized("Invalid Password")
	}

	if !user.IsVerified {
		return nil, needsVerification(user.ID)
	}

	pair, err := s.issueTokens(user.ID)
	if err != nil {
		return nil, err
	}
	refreshHash := security.FastHash(pair.RefreshToken)
	// The password may have changed since it was checked above.
	ok, err := s.commit(ctx, user,
		entity.CredentialGuard{PasswordHash: user.PasswordHash},
		entity.CredentialChange{RefreshTokenHash: &refreshHash},
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.WithField("user_id", user.ID).Warn("Sign-in rejected: password changed concurrently")
		return nil, unauthorized("Invalid Password")
	}

	return &dto.AuthResult{
		TokenPair: *pair,
		User:      dto.NewPublicUser(user),
	}, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, unauthorized("Refresh token is required")
	}

	claims, err := s.codec.Verify(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		s.logger.WithError(err).Warn("Refresh token rejected")
		return nil, unauthorized(msgInvalidRefreshToken)
	}

	presented := security.FastHash(refreshToken)
	user, err := s.userRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || !sameHash(user.RefreshTokenHash, presented) {
		return nil, unauthorized(msgInvalidRefreshToken)
	}

	pair, err := s.issueTokens(user.ID)
	if err != nil {
		return nil, err
	}
	next := security.FastHash(pair.RefreshToken)

	// Only one rotation may consume the presented token.
	ok, err := s.commit(ctx, user,
		entity.CredentialGuard{RefreshTokenHash: presented},
		entity.CredentialChange{RefreshTokenHash: &next},
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.WithField("user_id", user.ID).Warn("Refresh token already rotated")
		return nil, unauthorized(msgInvalidRefreshToken)
	}

	return pair, nil
}

func (s *AuthService) SignOut(ctx context.Context, userID string) error {
	if err := s.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		return err
	}
	s.logger.WithField("user_id", userID).Info("User signed out")
	return nil
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return badRequest("Email is required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return notFound(msgUserNotFound)
	}

	rawToken, tokenHash, err := security.NewOpaqueToken()
	if err != nil {
		return err
	}
	ok, err := s.commit(ctx, user,
		entity.CredentialGuard{},
		entity.CredentialChange{PasswordReset: &entity.PendingToken{
			Hash:      tokenHash,
			ExpiresAt: s.now().Add(s.cfg.Tokens.ResetTTL),
		}},
	)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(msgUserNotFound)
	}

	if err := s.sender.SendPasswordReset(ctx, user.Email, user.FirstName, resetLink(s.cfg.App.FrontendURL, rawToken)); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to send password reset email")
		return fmt.Errorf("send password reset email: %w", err)
	}
	return nil
}

// ValidateResetToken reports the email bound to a live reset token without
// consuming it.
func (s *AuthService) ValidateResetToken(ctx context.Context, rawToken string) (string, error) {
	user, err := s.findByResetToken(ctx, rawToken)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func (s *AuthService) UpdatePassword(ctx context.Context, rawToken, newPassword, confirmPassword string) error {
	if strings.TrimSpace(rawToken) == "" || newPassword == "" || confirmPassword == "" {
		return badRequest("Token, new password, and confirm password are required")
	}
	if newPassword != confirmPassword {
		return badRequest(msgPasswordsMismatch)
	}
	if err := s.checkPasswordLength(newPassword, s.cfg.Password.ResetMinLength, "Password"); err != nil {
		return err
	}

	user, err := s.findByResetToken(ctx, rawToken)
	if err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	signedOut := ""
	ok, err := s.commit(ctx, user,
		entity.CredentialGuard{ResetHash: user.PasswordReset.Hash},
		entity.CredentialChange{PasswordHash: &passwordHash, RefreshTokenHash: &signedOut, ClearPasswordReset: true},
	)
	if err != nil {
		return err
	}
	if !ok {
		return badRequest(msgInvalidResetToken)
	}

	s.logger.WithField("user_id", user.ID).Info("Password reset completed")
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, confirmPassword string) error {
	if currentPassword == "" || newPassword == "" || confirmPassword == "" {
		return badRequest("Current password, new password, and confirm password are required")
	}
	if newPassword != confirmPassword {
		return badRequest(msgPasswordsMismatch)
	}
	if err := s.checkPasswordLength(newPassword, s.cfg.Password.ChangeMinLength, "New password"); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return notFound(msgUserNotFound)
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return badRequest("Current password is incorrect")
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	signedOut := ""
	ok, err := s.commit(ctx, user,
		entity.CredentialGuard{PasswordHash: user.PasswordHash},
		entity.CredentialChange{PasswordHash: &passwordHash, RefreshTokenHash: &signedOut},
	)
	if err != nil {
		return err
	}
	if !ok {
		return badRequest("Current password is incorrect")
	}

	s.logger.WithField("user_id", user.ID).Info("Password changed")
	return nil
}

func (s *AuthService) ValidateAccessToken(token string) (*security.Claims, error) {
	return s.codec.Verify(token, s.cfg.JWT.AccessSecret)
}

func (s *AuthService) findByResetToken(ctx context.Context, rawToken string) (*entity.User, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, badRequest("Reset token is required")
	}

	user, err := s.userRepo.FindByResetHash(ctx, security.FastHash(rawToken), s.now())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, badRequest(msgInvalidResetToken)
	}
	return user, nil
}

func (s *AuthService) issueTokens(userID string) (*dto.TokenPair, error) {
	accessToken, err := s.codec.Sign(userID, s.cfg.JWT.AccessSecret, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.codec.Sign(userID, s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// commit writes change while the stored user still satisfies guard, then
// mirrors it onto user. It reports false when the guard no longer held.
func (s *AuthService) commit(ctx context.Context, user *entity.User, guard entity.CredentialGuard, change entity.CredentialChange) (bool, error) {
	ok, err := s.userRepo.UpdateCredentials(ctx, user.ID, guard, change)
	if err != nil || !ok {
		return false, err
	}
	change.Apply(user)
	return true, nil
}

func (s *AuthService) checkPasswordLength(password string, minLength int, label string) error {
	if utf8.RuneCountInString(password) < minLength {
		return badRequest(fmt.Sprintf("%s must be at least %d characters long", label, minLength))
	}
	return nil
}

func sameHash(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

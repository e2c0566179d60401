package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-academy/app/dto"
	"github.com/vibast-solutions/ms-go-academy/app/entity"
	"github.com/vibast-solutions/ms-go-academy/app/validation"
)

type profileRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	UpdateCredentials(ctx context.Context, id string, guard entity.CredentialGuard, change entity.CredentialChange) (bool, error)
	UpdateProfile(ctx context.Context, id string, update entity.ProfileUpdate) (*entity.User, error)
	ClearRefreshToken(ctx context.Context, id string) error
}

// UserService owns profile reads and writes plus the operator actions used
// by the user command.
type UserService struct {
	userRepo profileRepository
	logger   logrus.FieldLogger
}

func NewUserService(userRepo profileRepository, opts ...Option) *UserService {
	o := buildOptions(opts)
	return &UserService{userRepo: userRepo, logger: o.logger}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*dto.PublicUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound(msgUserNotFound)
	}
	return dto.NewPublicUser(user), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in dto.ProfileInput) (*dto.PublicUser, error) {
	update := entity.ProfileUpdate{
		FirstName:      trimmed(in.FirstName),
		LastName:       trimmed(in.LastName),
		Bio:            trimmed(in.Bio),
		Website:        trimmed(in.Website),
		TwitterURL:     trimmed(in.TwitterURL),
		FacebookURL:    trimmed(in.FacebookURL),
		LinkedInURL:    trimmed(in.LinkedInURL),
		YouTubeURL:     trimmed(in.YouTubeURL),
		GitHubURL:      trimmed(in.GitHubURL),
		AvatarPublicID: trimmed(in.AvatarPublicID),
		AvatarURL:      trimmed(in.AvatarURL),
	}
	if update.Empty() {
		return nil, badRequest("No valid fields provided for update")
	}
	if update.FirstName != nil && !nameLengthOK(*update.FirstName) {
		return nil, badRequest("First name must be between 2 and 50 characters")
	}
	if update.LastName != nil && !nameLengthOK(*update.LastName) {
		return nil, badRequest("Last name must be between 2 and 50 characters")
	}
	if err := validation.Struct(in); err != nil {
		return nil, badRequest(validation.Message(err))
	}

	return s.applyUpdate(ctx, userID, update)
}

func (s *UserService) CompleteOnboarding(ctx context.Context, userID string, in dto.OnboardingInput) (*dto.PublicUser, error) {
	in.Role = strings.TrimSpace(in.Role)
	in.FieldOfStudy = strings.TrimSpace(in.FieldOfStudy)
	in.ReasonForJoining = strings.TrimSpace(in.ReasonForJoining)
	if err := validation.Struct(in); err != nil {
		return nil, badRequest(validation.Message(err))
	}

	onboarded := true
	update := entity.ProfileUpdate{IsOnboarded: &onboarded}
	if in.Role != "" {
		role := entity.Role(in.Role)
		update.Role = &role
	}
	if in.FieldOfStudy != "" {
		update.FieldOfStudy = &in.FieldOfStudy
	}
	if in.ReasonForJoining != "" {
		update.ReasonForJoining = &in.ReasonForJoining
	}

	user, err := s.applyUpdate(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("user_id", userID).Info("Onboarding completed")
	return user, nil
}

// SetRole assigns any role, admin included. It is not reachable over HTTP.
func (s *UserService) SetRole(ctx context.Context, email string, role entity.Role) (*dto.PublicUser, error) {
	if !role.Valid() {
		return nil, badRequest("role must be one of: student, instructor, admin")
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, user.ID, entity.ProfileUpdate{Role: &role})
}

// MarkVerified verifies an account without the email round trip.
func (s *UserService) MarkVerified(ctx context.Context, email string) (*dto.PublicUser, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return dto.NewPublicUser(user), nil
	}

	verified := true
	change := entity.CredentialChange{IsVerified: &verified, ClearEmailVerification: true}
	ok, err := s.userRepo.UpdateCredentials(ctx, user.ID, entity.CredentialGuard{}, change)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(msgUserNotFound)
	}
	change.Apply(user)
	return dto.NewPublicUser(user), nil
}

// RevokeSessions drops the stored refresh token so the next refresh fails.
func (s *UserService) RevokeSessions(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.userRepo.ClearRefreshToken(ctx, user.ID)
}

func (s *UserService) findByEmail(ctx context.Context, email string) (*entity.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, badRequest("Email is required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound(msgUserNotFound)
	}
	return user, nil
}

func (s *UserService) applyUpdate(ctx context.Context, userID string, update entity.ProfileUpdate) (*dto.PublicUser, error) {
	user, err := s.userRepo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound(msgUserNotFound)
	}
	return dto.NewPublicUser(user), nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}

func nameLengthOK(name string) bool {
	n := len([]rune(name))
	return n >= 2 && n <= 50
}

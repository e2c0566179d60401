package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibast-solutions/ms-go-academy/app/dto"
	"github.com/vibast-solutions/ms-go-academy/app/entity"
	"github.com/vibast-solutions/ms-go-academy/app/repository"
	"github.com/vibast-solutions/ms-go-academy/app/service"
)

func strPtr(s string) *string { return &s }

func newUserFixture(t *testing.T) (*service.UserService, *repository.MemoryUserRepository, *entity.User) {
	t.Helper()

	repo := repository.NewMemoryUserRepository()
	user := &entity.User{
		FirstName:    "Alice",
		LastName:     "Liddell",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         entity.RoleStudent,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return service.NewUserService(repo), repo, user
}

func TestUserService_GetProfile(t *testing.T) {
	svc, _, user := newUserFixture(t)

	profile, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Nil(t, profile.Avatar)

	_, err = svc.GetProfile(context.Background(), "missing")
	assertKind(t, err, service.KindNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, repo, user := newUserFixture(t)
	ctx := context.Background()

	profile, err := svc.UpdateProfile(ctx, user.ID, dto.ProfileInput{
		FirstName: strPtr("  Alicia "),
		Bio:       strPtr("Curious learner"),
		AvatarURL: strPtr("https://cdn.example.com/alice.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", profile.FirstName)
	assert.Equal(t, "Liddell", profile.LastName)
	assert.Equal(t, "Curious learner", profile.Bio)
	require.NotNil(t, profile.Avatar)
	assert.Equal(t, "https://cdn.example.com/alice.png", profile.Avatar.URL)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", stored.FirstName)
	assert.Equal(t, "hash", stored.PasswordHash)
}

func TestUserService_UpdateProfileValidation(t *testing.T) {
	svc, _, user := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, user.ID, dto.ProfileInput{})
	assertKind(t, err, service.KindBadRequest)

	_, err = svc.UpdateProfile(ctx, user.ID, dto.ProfileInput{FirstName: strPtr(" A ")})
	assertKind(t, err, service.KindBadRequest)

	long := make([]rune, 51)
	for i := range long {
		long[i] = 'é'
	}
	_, err = svc.UpdateProfile(ctx, user.ID, dto.ProfileInput{LastName: strPtr(string(long))})
	assertKind(t, err, service.KindBadRequest)

	_, err = svc.UpdateProfile(ctx, "missing", dto.ProfileInput{Bio: strPtr("hello")})
	assertKind(t, err, service.KindNotFound)
}

func TestUserService_CompleteOnboarding(t *testing.T) {
	svc, _, user := newUserFixture(t)
	ctx := context.Background()

	profile, err := svc.CompleteOnboarding(ctx, user.ID, dto.OnboardingInput{
		Role:             "instructor",
		FieldOfStudy:     "Mathematics",
		ReasonForJoining: "Teach calculus",
	})
	require.NoError(t, err)
	assert.True(t, profile.IsOnboarded)
	assert.Equal(t, "instructor", profile.Role)
	assert.Equal(t, "Mathematics", profile.FieldOfStudy)
	assert.Equal(t, "Teach calculus", profile.ReasonForJoining)
}

func TestUserService_CompleteOnboardingKeepsRoleWhenOmitted(t *testing.T) {
	svc, _, user := newUserFixture(t)

	profile, err := svc.CompleteOnboarding(context.Background(), user.ID, dto.OnboardingInput{})
	require.NoError(t, err)
	assert.True(t, profile.IsOnboarded)
	assert.Equal(t, "student", profile.Role)
}

func TestUserService_CompleteOnboardingRejectsAdmin(t *testing.T) {
	svc, _, user := newUserFixture(t)

	_, err := svc.CompleteOnboarding(context.Background(), user.ID, dto.OnboardingInput{Role: "admin"})
	assertKind(t, err, service.KindBadRequest)

	_, err = svc.CompleteOnboarding(context.Background(), "missing", dto.OnboardingInput{})
	assertKind(t, err, service.KindNotFound)
}

func TestUserService_OperatorActions(t *testing.T) {
	svc, repo, user := newUserFixture(t)
	ctx := context.Background()

	profile, err := svc.SetRole(ctx, "ALICE@example.com", entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", profile.Role)

	_, err = svc.SetRole(ctx, "alice@example.com", entity.Role("owner"))
	assertKind(t, err, service.KindBadRequest)

	_, err = svc.SetRole(ctx, "nobody@example.com", entity.RoleStudent)
	assertKind(t, err, service.KindNotFound)

	profile, err = svc.MarkVerified(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, profile.IsVerified)

	refresh := "refresh-hash"
	ok, err := repo.UpdateCredentials(ctx, user.ID, entity.CredentialGuard{}, entity.CredentialChange{RefreshTokenHash: &refresh})
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.RevokeSessions(ctx, "alice@example.com"))
	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshTokenHash)
	assert.True(t, stored.IsVerified)

	err = svc.RevokeSessions(ctx, "")
	assertKind(t, err, service.KindBadRequest)
}

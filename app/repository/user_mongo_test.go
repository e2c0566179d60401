package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vibast-solutions/ms-go-academy/app/entity"
)

func TestUserDocumentConversion(t *testing.T) {
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	user := &entity.User{
		ID:                bson.NewObjectID().Hex(),
		FirstName:         "Alice",
		LastName:          "Liddell",
		Email:             "alice@example.com",
		PasswordHash:      "hash",
		Role:              entity.RoleInstructor,
		IsVerified:        true,
		EmailVerification: &entity.PendingToken{Hash: "verify-hash", ExpiresAt: expires},
		RefreshTokenHash:  "refresh-hash",
		Profile: entity.Profile{
			FieldOfStudy:   "Mathematics",
			AvatarPublicID: "avatars/alice",
			AvatarURL:      "https://cdn.example.com/alice.png",
		},
	}

	doc := toUserDocument(user)
	assert.Equal(t, user.ID, doc.ID.Hex())
	assert.Equal(t, "verify-hash", doc.EmailVerificationToken)
	require.NotNil(t, doc.EmailVerificationExpires)
	assert.True(t, doc.EmailVerificationExpires.Equal(expires))
	assert.Empty(t, doc.PasswordResetToken)
	assert.Nil(t, doc.PasswordResetExpires)
	require.NotNil(t, doc.Avatar)
	assert.Equal(t, "avatars/alice", doc.Avatar.PublicID)

	back := fromUserDocument(doc)
	assert.Equal(t, user.ID, back.ID)
	assert.Equal(t, entity.RoleInstructor, back.Role)
	assert.Equal(t, "refresh-hash", back.RefreshTokenHash)
	require.NotNil(t, back.EmailVerification)
	assert.Equal(t, "verify-hash", back.EmailVerification.Hash)
	assert.Nil(t, back.PasswordReset)
	assert.Equal(t, "https://cdn.example.com/alice.png", back.Profile.AvatarURL)
}

func TestUserDocumentOmitsClearedTokens(t *testing.T) {
	doc := toUserDocument(&entity.User{
		ID:    bson.NewObjectID().Hex(),
		Email: "alice@example.com",
		Role:  entity.RoleStudent,
	})

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	for _, key := range []string{
		"emailVerificationToken",
		"emailVerificationExpires",
		"passwordResetToken",
		"passwordResetExpires",
		"refreshToken",
		"avatar",
	} {
		_, err := bson.Raw(raw).LookupErr(key)
		assert.Error(t, err, "expected %s to be omitted", key)
	}

	_, err = bson.Raw(raw).LookupErr("email")
	assert.NoError(t, err)
}

func TestUserDocumentIgnoresForeignIDs(t *testing.T) {
	doc := toUserDocument(&entity.User{ID: "not-an-object-id"})
	assert.True(t, doc.ID.IsZero())
}

func TestProfileSetDocument(t *testing.T) {
	bio := "Teaches calculus"
	avatar := "https://cdn.example.com/a.png"
	onboarded := true
	role := entity.RoleInstructor

	set := profileSetDocument(entity.ProfileUpdate{
		Bio:         &bio,
		AvatarURL:   &avatar,
		IsOnboarded: &onboarded,
		Role:        &role,
	})

	assert.Equal(t, bson.M{
		"bio":         "Teaches calculus",
		"avatar.url":  "https://cdn.example.com/a.png",
		"isOnboarded": true,
		"role":        "instructor",
	}, set)
}

func TestCredentialFilter(t *testing.T) {
	oid := bson.NewObjectID()

	filter := credentialFilter(oid, entity.CredentialGuard{PasswordHash: "pw", RefreshTokenHash: "rt", Unverified: true})

	assert.Equal(t, bson.M{
		"_id":          oid,
		"password":     "pw",
		"refreshToken": "rt",
		"isVerified":   false,
	}, filter)
}

func TestCredentialUpdateDocument(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	hash := "new-hash"
	empty := ""

	update := credentialUpdateDocument(entity.CredentialChange{
		PasswordHash:       &hash,
		RefreshTokenHash:   &empty,
		ClearPasswordReset: true,
	}, now)

	assert.Equal(t, bson.M{
		"$set": bson.M{"password": "new-hash", "updatedAt": now},
		"$unset": bson.M{
			"refreshToken":         "",
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		},
	}, update)

	update = credentialUpdateDocument(entity.CredentialChange{RefreshTokenHash: &hash}, now)
	assert.Equal(t, bson.M{"$set": bson.M{"refreshToken": "new-hash", "updatedAt": now}}, update)
}

// TestMongoUserRepository_Integration runs against a live server when
// MONGODB_TEST_URL is set.
func TestMongoUserRepository_Integration(t *testing.T) {
	url := os.Getenv("MONGODB_TEST_URL")
	if url == "" {
		t.Skip("MONGODB_TEST_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := ConnectMongo(ctx, MongoOptions{
		URL:            url,
		ConnectTimeout: 5 * time.Second,
		RetryAttempts:  1,
	})
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database("academy_test_" + bson.NewObjectID().Hex())
	defer func() { _ = db.Drop(context.Background()) }()

	repo := NewMongoUserRepository(db)
	require.NoError(t, repo.EnsureIndexes(ctx))
	require.NoError(t, repo.Ping(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	user := &entity.User{
		FirstName:         "Alice",
		LastName:          "Liddell",
		Email:             "alice@example.com",
		PasswordHash:      "hash",
		Role:              entity.RoleStudent,
		EmailVerification: &entity.PendingToken{Hash: "verify-hash", ExpiresAt: now.Add(time.Minute)},
	}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	err = repo.Create(ctx, &entity.User{Email: "alice@example.com", Role: entity.RoleStudent})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	found, err := repo.FindByVerificationHash(ctx, "verify-hash", now)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	expired, err := repo.FindByVerificationHash(ctx, "verify-hash", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, expired)

	verified := true
	refresh := "refresh-hash"
	ok, err := repo.UpdateCredentials(ctx, found.ID,
		entity.CredentialGuard{VerificationHash: "verify-hash", Unverified: true},
		entity.CredentialChange{IsVerified: &verified, ClearEmailVerification: true, RefreshTokenHash: &refresh})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateCredentials(ctx, found.ID,
		entity.CredentialGuard{VerificationHash: "verify-hash", Unverified: true},
		entity.CredentialChange{IsVerified: &verified, ClearEmailVerification: true})
	require.NoError(t, err)
	assert.False(t, ok, "a consumed verification token must not match twice")

	reloaded, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.True(t, reloaded.IsVerified)
	assert.Nil(t, reloaded.EmailVerification)
	assert.Equal(t, "refresh-hash", reloaded.RefreshTokenHash)

	require.NoError(t, repo.ClearRefreshToken(ctx, user.ID))
	reloaded, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.RefreshTokenHash)

	missing, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vibast-solutions/ms-go-academy/app/entity"
)

const usersCollection = "users"

var ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")

type MongoOptions struct {
	URL            string
	ConnectTimeout time.Duration
	RetryAttempts  int
	RetryInterval  time.Duration
}

// ConnectMongo dials the server and pings it, retrying up to RetryAttempts.
func ConnectMongo(ctx context.Context, opts MongoOptions) (*mongo.Client, error) {
	attempts := max(opts.RetryAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(opts.URL).
				SetConnectTimeout(opts.ConnectTimeout).
				SetRetryWrites(true).
				SetRetryReads(true),
		)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}
		lastErr = err

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrFailedToConnectToMongo, ctx.Err())
			case <-time.After(opts.RetryInterval):
			}
		}
	}

	return nil, errors.Join(ErrFailedToConnectToMongo, lastErr)
}

type avatarDocument struct {
	PublicID string `bson:"public_id,omitempty"`
	URL      string `bson:"url,omitempty"`
}

// userDocument mirrors the stored shape of a user. Optional fields use
// omitempty so that a cleared token leaves no key behind.
type userDocument struct {
	ID                       bson.ObjectID   `bson:"_id,omitempty"`
	FirstName                string          `bson:"firstName"`
	LastName                 string          `bson:"lastName"`
	Email                    string          `bson:"email"`
	Password                 string          `bson:"password"`
	Role                     string          `bson:"role"`
	IsVerified               bool            `bson:"isVerified"`
	IsOnboarded              bool            `bson:"isOnboarded"`
	EmailVerificationToken   string          `bson:"emailVerificationToken,omitempty"`
	EmailVerificationExpires *time.Time      `bson:"emailVerificationExpires,omitempty"`
	PasswordResetToken       string          `bson:"passwordResetToken,omitempty"`
	PasswordResetExpires     *time.Time      `bson:"passwordResetExpires,omitempty"`
	RefreshToken             string          `bson:"refreshToken,omitempty"`
	FieldOfStudy             string          `bson:"fieldOfStudy,omitempty"`
	ReasonForJoining         string          `bson:"reasonForJoining,omitempty"`
	Avatar                   *avatarDocument `bson:"avatar,omitempty"`
	Bio                      string          `bson:"bio,omitempty"`
	Website                  string          `bson:"website,omitempty"`
	TwitterURL               string          `bson:"twitter_url,omitempty"`
	FacebookURL              string          `bson:"facebook_url,omitempty"`
	LinkedInURL              string          `bson:"linkedin_url,omitempty"`
	YouTubeURL               string          `bson:"youtube_url,omitempty"`
	GitHubURL                string          `bson:"github_url,omitempty"`
	CreatedAt                time.Time       `bson:"createdAt"`
	UpdatedAt                time.Time       `bson:"updatedAt"`
}

type MongoUserRepository struct {
	client *mongo.Client
	users  *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		client: db.Client(),
		users:  db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique email index and the token lookup indexes.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "emailVerificationToken", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("email_verification_token"),
		},
		{
			Keys:    bson.D{{Key: "passwordResetToken", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("password_reset_token"),
		},
	})
	return err
}

// WithinTransaction runs fn in a multi-document transaction. Operations
// issued with the ctx passed to fn join the session.
func (r *MongoUserRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		return nil, fn(txCtx)
	})
	return err
}

func (r *MongoUserRepository) Create(ctx context.Context, user *entity.User) error {
	doc := toUserDocument(user)
	if doc.ID.IsZero() {
		doc.ID = bson.NewObjectID()
	}
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = doc.CreatedAt
	user.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id cannot match any document.
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepository) FindByVerificationHash(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	return r.findOne(ctx, bson.M{
		"emailVerificationToken":   hash,
		"emailVerificationExpires": bson.M{"$gt": now},
	})
}

func (r *MongoUserRepository) FindByResetHash(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	return r.findOne(ctx, bson.M{
		"passwordResetToken":   hash,
		"passwordResetExpires": bson.M{"$gt": now},
	})
}

func (r *MongoUserRepository) UpdateCredentials(ctx context.Context, id string, guard entity.CredentialGuard, change entity.CredentialChange) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	result, err := r.users.UpdateOne(ctx, credentialFilter(oid, guard), credentialUpdateDocument(change, time.Now()))
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id string, update entity.ProfileUpdate) (*entity.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	set := profileSetDocument(update)
	set["updatedAt"] = time.Now()

	var doc userDocument
	err = r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromUserDocument(&doc), nil
}

func (r *MongoUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	_, err = r.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$unset": bson.M{"refreshToken": ""},
			"$set":   bson.M{"updatedAt": time.Now()},
		},
	)
	return err
}

func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromUserDocument(&doc), nil
}

func profileSetDocument(update entity.ProfileUpdate) bson.M {
	set := bson.M{}
	add := func(key string, value *string) {
		if value != nil {
			set[key] = *value
		}
	}

	add("firstName", update.FirstName)
	add("lastName", update.LastName)
	if update.Role != nil {
		set["role"] = string(*update.Role)
	}
	if update.IsOnboarded != nil {
		set["isOnboarded"] = *update.IsOnboarded
	}
	add("fieldOfStudy", update.FieldOfStudy)
	add("reasonForJoining", update.ReasonForJoining)
	add("bio", update.Bio)
	add("website", update.Website)
	add("twitter_url", update.TwitterURL)
	add("facebook_url", update.FacebookURL)
	add("linkedin_url", update.LinkedInURL)
	add("youtube_url", update.YouTubeURL)
	add("github_url", update.GitHubURL)
	add("avatar.public_id", update.AvatarPublicID)
	add("avatar.url", update.AvatarURL)

	return set
}

func credentialFilter(oid bson.ObjectID, guard entity.CredentialGuard) bson.M {
	filter := bson.M{"_id": oid}
	if guard.PasswordHash != "" {
		filter["password"] = guard.PasswordHash
	}
	if guard.RefreshTokenHash != "" {
		filter["refreshToken"] = guard.RefreshTokenHash
	}
	if guard.VerificationHash != "" {
		filter["emailVerificationToken"] = guard.VerificationHash
	}
	if guard.ResetHash != "" {
		filter["passwordResetToken"] = guard.ResetHash
	}
	if guard.Unverified {
		filter["isVerified"] = false
	}
	return filter
}

func credentialUpdateDocument(change entity.CredentialChange, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	unset := bson.M{}

	if change.PasswordHash != nil {
		set["password"] = *change.PasswordHash
	}
	if change.RefreshTokenHash != nil {
		if *change.RefreshTokenHash == "" {
			unset["refreshToken"] = ""
		} else {
			set["refreshToken"] = *change.RefreshTokenHash
		}
	}
	if change.IsVerified != nil {
		set["isVerified"] = *change.IsVerified
	}
	if token := change.EmailVerification; token != nil {
		set["emailVerificationToken"] = token.Hash
		set["emailVerificationExpires"] = token.ExpiresAt
	} else if change.ClearEmailVerification {
		unset["emailVerificationToken"] = ""
		unset["emailVerificationExpires"] = ""
	}
	if token := change.PasswordReset; token != nil {
		set["passwordResetToken"] = token.Hash
		set["passwordResetExpires"] = token.ExpiresAt
	} else if change.ClearPasswordReset {
		unset["passwordResetToken"] = ""
		unset["passwordResetExpires"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func toUserDocument(user *entity.User) *userDocument {
	doc := &userDocument{
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Email:            user.Email,
		Password:         user.PasswordHash,
		Role:             string(user.Role),
		IsVerified:       user.IsVerified,
		IsOnboarded:      user.IsOnboarded,
		RefreshToken:     user.RefreshTokenHash,
		FieldOfStudy:     user.Profile.FieldOfStudy,
		ReasonForJoining: user.Profile.ReasonForJoining,
		Bio:              user.Profile.Bio,
		Website:          user.Profile.Website,
		TwitterURL:       user.Profile.TwitterURL,
		FacebookURL:      user.Profile.FacebookURL,
		LinkedInURL:      user.Profile.LinkedInURL,
		YouTubeURL:       user.Profile.YouTubeURL,
		GitHubURL:        user.Profile.GitHubURL,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}

	if oid, err := bson.ObjectIDFromHex(user.ID); err == nil {
		doc.ID = oid
	}
	if token := user.EmailVerification; token != nil {
		expires := token.ExpiresAt
		doc.EmailVerificationToken = token.Hash
		doc.EmailVerificationExpires = &expires
	}
	if token := user.PasswordReset; token != nil {
		expires := token.ExpiresAt
		doc.PasswordResetToken = token.Hash
		doc.PasswordResetExpires = &expires
	}
	if user.Profile.AvatarPublicID != "" || user.Profile.AvatarURL != "" {
		doc.Avatar = &avatarDocument{
			PublicID: user.Profile.AvatarPublicID,
			URL:      user.Profile.AvatarURL,
		}
	}

	return doc
}

func fromUserDocument(doc *userDocument) *entity.User {
	user := &entity.User{
		ID:               doc.ID.Hex(),
		FirstName:        doc.FirstName,
		LastName:         doc.LastName,
		Email:            doc.Email,
		PasswordHash:     doc.Password,
		Role:             entity.Role(doc.Role),
		IsVerified:       doc.IsVerified,
		IsOnboarded:      doc.IsOnboarded,
		RefreshTokenHash: doc.RefreshToken,
		Profile: entity.Profile{
			FieldOfStudy:     doc.FieldOfStudy,
			ReasonForJoining: doc.ReasonForJoining,
			Bio:              doc.Bio,
			Website:          doc.Website,
			TwitterURL:       doc.TwitterURL,
			FacebookURL:      doc.FacebookURL,
			LinkedInURL:      doc.LinkedInURL,
			YouTubeURL:       doc.YouTubeURL,
			GitHubURL:        doc.GitHubURL,
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}

	if doc.EmailVerificationToken != "" && doc.EmailVerificationExpires != nil {
		user.EmailVerification = &entity.PendingToken{
			Hash:      doc.EmailVerificationToken,
			ExpiresAt: *doc.EmailVerificationExpires,
		}
	}
	if doc.PasswordResetToken != "" && doc.PasswordResetExpires != nil {
		user.PasswordReset = &entity.PendingToken{
			Hash:      doc.PasswordResetToken,
			ExpiresAt: *doc.PasswordResetExpires,
		}
	}
	if doc.Avatar != nil {
		user.Profile.AvatarPublicID = doc.Avatar.PublicID
		user.Profile.AvatarURL = doc.Avatar.URL
	}

	return user
}

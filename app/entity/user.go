package entity

import "time"

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// PendingToken is the stored half of a one-time token: the SHA-256 of the
// raw value sent to the user and the instant after which it stops matching.
type PendingToken struct {
	Hash      string
	ExpiresAt time.Time
}

// Live reports whether the token is still redeemable at now.
func (p *PendingToken) Live(now time.Time) bool {
	return p != nil && p.ExpiresAt.After(now)
}

type Profile struct {
	FieldOfStudy     string
	ReasonForJoining string
	Bio              string
	Website          string
	TwitterURL       string
	FacebookURL      string
	LinkedInURL      string
	YouTubeURL       string
	GitHubURL        string
	AvatarPublicID   string
	AvatarURL        string
}

type User struct {
	ID                string
	FirstName         string
	LastName          string
	Email             string
	PasswordHash      string
	Role              Role
	IsVerified        bool
	IsOnboarded       bool
	EmailVerification *PendingToken
	PasswordReset     *PendingToken
	RefreshTokenHash  string
	Profile           Profile
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ProfileUpdate is a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	FirstName        *string
	LastName         *string
	Role             *Role
	IsOnboarded      *bool
	FieldOfStudy     *string
	ReasonForJoining *string
	Bio              *string
	Website          *string
	TwitterURL       *string
	FacebookURL      *string
	LinkedInURL      *string
	YouTubeURL       *string
	GitHubURL        *string
	AvatarPublicID   *string
	AvatarURL        *string
}

func (u ProfileUpdate) Empty() bool {
	return u == ProfileUpdate{}
}

// Apply copies every set field of u onto user.
func (u ProfileUpdate) Apply(user *User) {
	setString(&user.FirstName, u.FirstName)
	setString(&user.LastName, u.LastName)
	if u.Role != nil {
		user.Role = *u.Role
	}
	if u.IsOnboarded != nil {
		user.IsOnboarded = *u.IsOnboarded
	}
	setString(&user.Profile.FieldOfStudy, u.FieldOfStudy)
	setString(&user.Profile.ReasonForJoining, u.ReasonForJoining)
	setString(&user.Profile.Bio, u.Bio)
	setString(&user.Profile.Website, u.Website)
	setString(&user.Profile.TwitterURL, u.TwitterURL)
	setString(&user.Profile.FacebookURL, u.FacebookURL)
	setString(&user.Profile.LinkedInURL, u.LinkedInURL)
	setString(&user.Profile.YouTubeURL, u.YouTubeURL)
	setString(&user.Profile.GitHubURL, u.GitHubURL)
	setString(&user.Profile.AvatarPublicID, u.AvatarPublicID)
	setString(&user.Profile.AvatarURL, u.AvatarURL)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// CredentialGuard lists the stored values a credential write expects to
// find. Zero fields are not checked.
type CredentialGuard struct {
	PasswordHash     string
	RefreshTokenHash string
	VerificationHash string
	ResetHash        string
	Unverified       bool
}

func (g CredentialGuard) Matches(user *User) bool {
	if g.PasswordHash != "" && user.PasswordHash != g.PasswordHash {
		return false
	}
	if g.RefreshTokenHash != "" && user.RefreshTokenHash != g.RefreshTokenHash {
		return false
	}
	if g.VerificationHash != "" && (user.EmailVerification == nil || user.EmailVerification.Hash != g.VerificationHash) {
		return false
	}
	if g.ResetHash != "" && (user.PasswordReset == nil || user.PasswordReset.Hash != g.ResetHash) {
		return false
	}
	if g.Unverified && user.IsVerified {
		return false
	}
	return true
}

// CredentialChange is a targeted write of credential fields. Nil fields are
// left untouched; an empty RefreshTokenHash ends the session.
type CredentialChange struct {
	PasswordHash           *string
	RefreshTokenHash       *string
	IsVerified             *bool
	EmailVerification      *PendingToken
	ClearEmailVerification bool
	PasswordReset          *PendingToken
	ClearPasswordReset     bool
}

// Apply copies the change onto user.
func (c CredentialChange) Apply(user *User) {
	setString(&user.PasswordHash, c.PasswordHash)
	setString(&user.RefreshTokenHash, c.RefreshTokenHash)
	if c.IsVerified != nil {
		user.IsVerified = *c.IsVerified
	}
	if c.EmailVerification != nil {
		token := *c.EmailVerification
		user.EmailVerification = &token
	} else if c.ClearEmailVerification {
		user.EmailVerification = nil
	}
	if c.PasswordReset != nil {
		token := *c.PasswordReset
		user.PasswordReset = &token
	} else if c.ClearPasswordReset {
		user.PasswordReset = nil
	}
}

package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-academy/app/entity"
)

type Avatar struct {
	PublicID string `json:"public_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

// PublicUser is the client-safe projection of a user. It never carries the
// password hash or any token state.
type PublicUser struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	IsVerified       bool      `json:"isVerified"`
	IsOnboarded      bool      `json:"isOnboarded"`
	FieldOfStudy     string    `json:"fieldOfStudy,omitempty"`
	ReasonForJoining string    `json:"reasonForJoining,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	Website          string    `json:"website,omitempty"`
	TwitterURL       string    `json:"twitter_url,omitempty"`
	FacebookURL      string    `json:"facebook_url,omitempty"`
	LinkedInURL      string    `json:"linkedin_url,omitempty"`
	YouTubeURL       string    `json:"youtube_url,omitempty"`
	GitHubURL        string    `json:"github_url,omitempty"`
	Avatar           *Avatar   `json:"avatar,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func NewPublicUser(user *entity.User) *PublicUser {
	if user == nil {
		return nil
	}

	public := &PublicUser{
		ID:               user.ID,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Email:            user.Email,
		Role:             string(user.Role),
		IsVerified:       user.IsVerified,
		IsOnboarded:      user.IsOnboarded,
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
	if user.Profile.AvatarPublicID != "" || user.Profile.AvatarURL != "" {
		public.Avatar = &Avatar{
			PublicID: user.Profile.AvatarPublicID,
			URL:      user.Profile.AvatarURL,
		}
	}
	return public
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthResult struct {
	TokenPair
	User *PublicUser `json:"user"`
}

type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role" validate:"omitempty,oneof=student instructor"`
}

// ProfileInput holds the user-editable profile fields. Nil means "leave as is".
type ProfileInput struct {
	FirstName      *string `json:"firstName" validate:"omitempty,min=2,max=50"`
	LastName       *string `json:"lastName" validate:"omitempty,min=2,max=50"`
	Bio            *string `json:"bio" validate:"omitempty,max=500"`
	Website        *string `json:"website" validate:"omitempty,max=200"`
	TwitterURL     *string `json:"twitter_url" validate:"omitempty,max=200"`
	FacebookURL    *string `json:"facebook_url" validate:"omitempty,max=200"`
	LinkedInURL    *string `json:"linkedin_url" validate:"omitempty,max=200"`
	YouTubeURL     *string `json:"youtube_url" validate:"omitempty,max=200"`
	GitHubURL      *string `json:"github_url" validate:"omitempty,max=200"`
	AvatarPublicID *string `json:"avatar_public_id" validate:"omitempty,max=200"`
	AvatarURL      *string `json:"avatar_url" validate:"omitempty,max=500"`
}

type OnboardingInput struct {
	Role             string `json:"role" validate:"omitempty,oneof=student instructor"`
	FieldOfStudy     string `json:"field_of_study" validate:"max=100"`
	ReasonForJoining string `json:"reason_for_joining" validate:"max=500"`
}

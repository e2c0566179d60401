package http

type SignUpRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UpdatePasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type UpdateProfileRequest struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	Bio            *string `json:"bio"`
	Website        *string `json:"website"`
	TwitterURL     *string `json:"twitter_url"`
	FacebookURL    *string `json:"facebook_url"`
	LinkedInURL    *string `json:"linkedin_url"`
	YouTubeURL     *string `json:"youtube_url"`
	GitHubURL      *string `json:"github_url"`
	AvatarPublicID *string `json:"avatar_public_id"`
	AvatarURL      *string `json:"avatar_url"`
}

type OnboardingRequest struct {
	Role             string `json:"role"`
	FieldOfStudy     string `json:"field_of_study"`
	ReasonForJoining string `json:"reason_for_joining"`
}

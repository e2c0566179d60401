package http

import "github.com/vibast-solutions/ms-go-academy/app/dto"

// Envelope is the shape of every successful response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	NeedsVerification bool   `json:"needsVerification,omitempty"`
	UserID            string `json:"userId,omitempty"`
}

type UserData struct {
	User *dto.PublicUser `json:"user"`
}

type SignInData struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         *dto.PublicUser `json:"user"`
}

type TokenData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type ResetTokenData struct {
	Email string `json:"email"`
}

type HealthData struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

func OK(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

func Fail(message string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message}
}

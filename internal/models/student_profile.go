package models

import "time"

type StudentProfile struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	FullName           *string   `json:"full_name"`
	AvatarURL          *string   `json:"avatar_url"`
	Grade              *string   `json:"grade"`
	Subjects           *[]string `json:"subjects"`
	PreferredMode      *string   `json:"preferred_mode"`
	MaxHourlyRate      *float64  `json:"max_hourly_rate"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

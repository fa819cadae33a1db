package models

import "time"

type TeacherListResponse struct {
	ID           string      `json:"id"`
	FullName     string      `json:"full_name"`
	AvatarURL    string      `json:"avatar_url"`
	Subjects     []string    `json:"subjects"`
	Experience   *Experience `json:"experience,omitempty"`
	TeachingMode string      `json:"teaching_mode"`
	HourlyRate   float64     `json:"hourly_rate"`
	Rating       float64     `json:"rating"`
	ReviewCount  int         `json:"review_count"`
}

type TeacherDetailResponse struct {
	TeacherListResponse
	Bio                string   `json:"bio"`
	Qualifications     []string `json:"qualifications"`
	Online             bool     `json:"online"`
	OnboardingComplete bool     `json:"onboarding_complete"`
}

type TeacherProfile struct {
	ID                 int64       `json:"id"`
	UserID             int64       `json:"user_id"`
	FullName           *string     `json:"full_name"`
	AvatarURL          *string     `json:"avatar_url"`
	Bio                *string     `json:"bio"`
	Subjects           *[]string   `json:"subjects"`
	Qualifications     *[]string   `json:"qualifications"`
	Experience         *Experience `json:"experience"`
	TeachingMode       *string     `json:"teaching_mode"`
	HourlyRate         *float64    `json:"hourly_rate"`
	PhoneNumber        *string     `json:"-"`
	Rating             *float64    `json:"rating"`
	ReviewCount        *int        `json:"review_count"`
	OnboardingComplete bool        `json:"onboarding_complete"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

package repository

import (
	"context"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

type StudentProfileRepository struct {
	db DBTX
}

func NewStudentProfileRepository(db DBTX) *StudentProfileRepository {
	return &StudentProfileRepository{db: db}
}

func (r *StudentProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO student_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *StudentProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error) {
	query := `
		SELECT id, user_id, full_name, avatar_url, grade, subjects, preferred_mode,
			   max_hourly_rate, onboarding_complete, created_at, updated_at
		FROM student_profiles
		WHERE user_id = $1
	`
	var profile models.StudentProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Grade,
		&profile.Subjects,
		&profile.PreferredMode,
		&profile.MaxHourlyRate,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type StudentOnboardingInput struct {
	FullName      string
	Grade         string
	Subjects      []string
	PreferredMode string
	MaxHourlyRate float64
}

func (r *StudentProfileRepository) UpdateOnboarding(
	ctx context.Context,
	userID int64,
	req StudentOnboardingInput,
) (*models.StudentProfile, error) {
	query := `
		UPDATE student_profiles
		SET full_name = $1,
			grade = $2,
			subjects = $3,
			preferred_mode = $4,
			max_hourly_rate = $5,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $6
		RETURNING id, user_id, full_name, avatar_url, grade, subjects, preferred_mode,
				  max_hourly_rate, onboarding_complete, created_at, updated_at
	`
	var profile models.StudentProfile
	err := r.db.QueryRow(ctx, query,
		req.FullName,
		req.Grade,
		req.Subjects,
		req.PreferredMode,
		req.MaxHourlyRate,
		userID,
	).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Grade,
		&profile.Subjects,
		&profile.PreferredMode,
		&profile.MaxHourlyRate,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type UpdateStudentProfileInput struct {
	FullName      *string
	AvatarURL     *string
	Grade         *string
	Subjects      *[]string
	PreferredMode *string
	MaxHourlyRate *float64
}

func (r *StudentProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	req UpdateStudentProfileInput,
) (*models.StudentProfile, error) {
	query := `
		UPDATE student_profiles
		SET full_name = COALESCE($1, full_name),
			avatar_url = COALESCE($2, avatar_url),
			grade = COALESCE($3, grade),
			subjects = COALESCE($4, subjects),
			preferred_mode = COALESCE($5, preferred_mode),
			max_hourly_rate = COALESCE($6, max_hourly_rate),
			updated_at = NOW()
		WHERE user_id = $7
		RETURNING id, user_id, full_name, avatar_url, grade, subjects, preferred_mode,
				  max_hourly_rate, onboarding_complete, created_at, updated_at
	`
	var profile models.StudentProfile
	err := r.db.QueryRow(ctx, query,
		req.FullName,
		req.AvatarURL,
		req.Grade,
		req.Subjects,
		req.PreferredMode,
		req.MaxHourlyRate,
		userID,
	).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Grade,
		&profile.Subjects,
		&profile.PreferredMode,
		&profile.MaxHourlyRate,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

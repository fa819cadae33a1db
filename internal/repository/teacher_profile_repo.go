package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

type TeacherProfileRepository struct {
	db DBTX
}

func NewTeacherProfileRepository(db DBTX) *TeacherProfileRepository {
	return &TeacherProfileRepository{db: db}
}

const teacherProfileColumns = `id, user_id, full_name, avatar_url, bio, subjects, qualifications,
	   experience, teaching_mode, hourly_rate, phone_number, rating, review_count,
	   onboarding_complete, created_at, updated_at`

func (r *TeacherProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO teacher_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *TeacherProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.TeacherProfile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM teacher_profiles
		WHERE user_id = $1
	`, teacherProfileColumns)
	return scanTeacherProfile(r.db.QueryRow(ctx, query, userID))
}

type TeacherOnboardingInput struct {
	FullName       string
	Bio            string
	Subjects       []string
	Qualifications []string
	Experience     models.Experience
	TeachingMode   string
	HourlyRate     float64
	PhoneNumber    string
}

func (r *TeacherProfileRepository) UpdateOnboarding(
	ctx context.Context,
	userID int64,
	req TeacherOnboardingInput,
) (*models.TeacherProfile, error) {
	query := fmt.Sprintf(`
		UPDATE teacher_profiles
		SET full_name = $1,
			bio = $2,
			subjects = $3,
			qualifications = $4,
			experience = $5,
			teaching_mode = $6,
			hourly_rate = $7,
			phone_number = $8,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $9
		RETURNING %s
	`, teacherProfileColumns)
	return scanTeacherProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.Bio,
		req.Subjects,
		req.Qualifications,
		req.Experience.String(),
		req.TeachingMode,
		req.HourlyRate,
		req.PhoneNumber,
		userID,
	))
}

type UpdateTeacherProfileInput struct {
	FullName       *string
	AvatarURL      *string
	Bio            *string
	Subjects       *[]string
	Qualifications *[]string
	Experience     *models.Experience
	TeachingMode   *string
	HourlyRate     *float64
	PhoneNumber    *string
}

func (r *TeacherProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	req UpdateTeacherProfileInput,
) (*models.TeacherProfile, error) {
	var experience *string
	if req.Experience != nil {
		value := req.Experience.String()
		experience = &value
	}

	query := fmt.Sprintf(`
		UPDATE teacher_profiles
		SET full_name = COALESCE($1, full_name),
			avatar_url = COALESCE($2, avatar_url),
			bio = COALESCE($3, bio),
			subjects = COALESCE($4, subjects),
			qualifications = COALESCE($5, qualifications),
			experience = COALESCE($6, experience),
			teaching_mode = COALESCE($7, teaching_mode),
			hourly_rate = COALESCE($8, hourly_rate),
			phone_number = COALESCE($9, phone_number),
			updated_at = NOW()
		WHERE user_id = $10
		RETURNING %s
	`, teacherProfileColumns)
	return scanTeacherProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.AvatarURL,
		req.Bio,
		req.Subjects,
		req.Qualifications,
		experience,
		req.TeachingMode,
		req.HourlyRate,
		req.PhoneNumber,
		userID,
	))
}

type TeacherListFilter struct {
	Subject      string
	TeachingMode string
	MaxPrice     float64
	MinRating    float64
	MinYears     int
	Limit        int
	Offset       int
}

func (r *TeacherProfileRepository) List(
	ctx context.Context,
	filter TeacherListFilter,
) ([]models.TeacherProfile, int, error) {
	conditions := []string{"onboarding_complete = TRUE"}
	args := []any{}

	if filter.Subject != "" {
		args = append(args, filter.Subject)
		conditions = append(conditions, fmt.Sprintf("$%d ILIKE ANY (subjects)", len(args)))
	}
	if filter.TeachingMode != "" {
		args = append(args, filter.TeachingMode)
		conditions = append(conditions, fmt.Sprintf("teaching_mode = $%d", len(args)))
	}
	if filter.MaxPrice > 0 {
		args = append(args, filter.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("hourly_rate <= $%d", len(args)))
	}
	if filter.MinRating > 0 {
		args = append(args, filter.MinRating)
		conditions = append(conditions, fmt.Sprintf("rating >= $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	totalQuery := fmt.Sprintf(`SELECT COUNT(*) FROM teacher_profiles WHERE %s`, where)
	if err := r.db.QueryRow(ctx, totalQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM teacher_profiles
		WHERE %s
		ORDER BY rating DESC NULLS LAST, id ASC
		LIMIT $%d OFFSET $%d
	`, teacherProfileColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles := make([]models.TeacherProfile, 0)
	for rows.Next() {
		profile, err := scanTeacherProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		// Experience range filtering happens here because the column keeps
		// the raw value, numeric and descriptive shapes mixed.
		if filter.MinYears > 0 {
			if profile.Experience == nil || profile.Experience.MinYears() < filter.MinYears {
				total--
				continue
			}
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

// GetPhoneNumber reads the teacher's current phone number. Used at approval
// time; the ledger stores a copy of the returned value.
func (r *TeacherProfileRepository) GetPhoneNumber(ctx context.Context, userID int64) (*string, error) {
	query := `
		SELECT phone_number
		FROM teacher_profiles
		WHERE user_id = $1
	`
	var phone *string
	if err := r.db.QueryRow(ctx, query, userID).Scan(&phone); err != nil {
		return nil, err
	}
	return phone, nil
}

// ApplyReview folds one new rating into the running aggregate.
func (r *TeacherProfileRepository) ApplyReview(ctx context.Context, userID int64, rating int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE teacher_profiles
		SET rating = (COALESCE(rating, 0) * COALESCE(review_count, 0) + $2)
				/ (COALESCE(review_count, 0) + 1),
			review_count = COALESCE(review_count, 0) + 1,
			updated_at = NOW()
		WHERE user_id = $1
	`, userID, rating)
	return err
}

func scanTeacherProfile(row interface{ Scan(...any) error }) (*models.TeacherProfile, error) {
	var profile models.TeacherProfile
	var rawExperience *string
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.Subjects,
		&profile.Qualifications,
		&rawExperience,
		&profile.TeachingMode,
		&profile.HourlyRate,
		&profile.PhoneNumber,
		&profile.Rating,
		&profile.ReviewCount,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rawExperience != nil {
		if experience, ok := models.ParseExperience(*rawExperience); ok {
			profile.Experience = &experience
		}
	}
	return &profile, nil
}

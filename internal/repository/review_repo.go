package repository

import (
	"context"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

type ReviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(
	ctx context.Context,
	teacherID int64,
	studentID int64,
	rating int,
	comment string,
) (*models.Review, error) {
	query := `
		INSERT INTO reviews (teacher_id, student_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, teacher_id, student_id, rating, comment, created_at
	`
	var review models.Review
	err := r.db.QueryRow(ctx, query, teacherID, studentID, rating, comment).Scan(
		&review.ID,
		&review.TeacherID,
		&review.StudentID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) ListByTeacher(
	ctx context.Context,
	teacherID int64,
	limit int,
	offset int,
) ([]models.Review, int, error) {
	totalQuery := `
		SELECT COUNT(*)
		FROM reviews
		WHERE teacher_id = $1
	`
	var total int
	if err := r.db.QueryRow(ctx, totalQuery, teacherID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, teacher_id, student_id, rating, comment, created_at
		FROM reviews
		WHERE teacher_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, teacherID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(
			&review.ID,
			&review.TeacherID,
			&review.StudentID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

package services

import (
	"context"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
	"github.com/kiarash-j/TutorLinkBack/internal/repository"
)

type StudentProfileUpdater interface {
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdateStudentProfileInput) (*models.StudentProfile, error)
}

type TeacherProfileUpdater interface {
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdateTeacherProfileInput) (*models.TeacherProfile, error)
}

type ProfileService struct {
	studentProfileRepo StudentProfileUpdater
	teacherProfileRepo TeacherProfileUpdater
}

func NewProfileService(studentProfileRepo StudentProfileUpdater, teacherProfileRepo TeacherProfileUpdater) *ProfileService {
	return &ProfileService{
		studentProfileRepo: studentProfileRepo,
		teacherProfileRepo: teacherProfileRepo,
	}
}

func (s *ProfileService) UpdateStudentProfile(ctx context.Context, userID int64, req repository.UpdateStudentProfileInput) (*models.StudentProfile, error) {
	return s.studentProfileRepo.UpdatePartial(ctx, userID, req)
}

func (s *ProfileService) UpdateTeacherProfile(ctx context.Context, userID int64, req repository.UpdateTeacherProfileInput) (*models.TeacherProfile, error) {
	return s.teacherProfileRepo.UpdatePartial(ctx, userID, req)
}

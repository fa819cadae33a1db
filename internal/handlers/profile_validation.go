package handlers

import (
	"strings"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

func validateStudentOnboardingRequest(req *studentOnboardingRequest) string {
	if strings.TrimSpace(req.FullName) == "" {
		return "full_name is required"
	}
	if strings.TrimSpace(req.Grade) == "" {
		return "grade is required"
	}
	if len(req.Subjects) == 0 {
		return "subjects must contain at least one item"
	}
	for _, subject := range req.Subjects {
		if strings.TrimSpace(subject) == "" {
			return "subjects must not contain empty values"
		}
	}
	if req.PreferredMode != "" {
		mode, ok := models.NormalizeTeachingMode(req.PreferredMode)
		if !ok {
			return "preferred_mode must be one of: online, in_person, hybrid"
		}
		req.PreferredMode = mode
	}
	if req.MaxHourlyRate < 0 {
		return "max_hourly_rate must be 0 or greater"
	}
	return ""
}

func validateTeacherOnboardingRequest(req *teacherOnboardingRequest) string {
	if strings.TrimSpace(req.FullName) == "" {
		return "full_name is required"
	}
	if strings.TrimSpace(req.Bio) == "" {
		return "bio is required"
	}
	if len(req.Subjects) == 0 {
		return "subjects must contain at least one item"
	}
	for _, subject := range req.Subjects {
		if strings.TrimSpace(subject) == "" {
			return "subjects must not contain empty values"
		}
	}
	for _, qualification := range req.Qualifications {
		if strings.TrimSpace(qualification) == "" {
			return "qualifications must not contain empty values"
		}
	}
	if req.Experience.String() == "" {
		return "experience is required"
	}
	if req.Experience.Numeric && req.Experience.Years < 0 {
		return "experience must be 0 or greater"
	}
	mode, ok := models.NormalizeTeachingMode(req.TeachingMode)
	if !ok {
		return "teaching_mode must be one of: online, in_person, hybrid"
	}
	req.TeachingMode = mode
	if req.HourlyRate < 0 {
		return "hourly_rate must be 0 or greater"
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return "phone_number is required"
	}
	return ""
}

func validateStudentProfileUpdateRequest(req *updateStudentProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.Grade != nil && strings.TrimSpace(*req.Grade) == "" {
		return "grade must not be empty"
	}
	if req.Subjects != nil {
		for _, subject := range *req.Subjects {
			if strings.TrimSpace(subject) == "" {
				return "subjects must not contain empty values"
			}
		}
	}
	if req.PreferredMode != nil {
		mode, ok := models.NormalizeTeachingMode(*req.PreferredMode)
		if !ok {
			return "preferred_mode must be one of: online, in_person, hybrid"
		}
		*req.PreferredMode = mode
	}
	if req.MaxHourlyRate != nil && *req.MaxHourlyRate < 0 {
		return "max_hourly_rate must be 0 or greater"
	}
	return ""
}

func validateTeacherProfileUpdateRequest(req *updateTeacherProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.Bio != nil && strings.TrimSpace(*req.Bio) == "" {
		return "bio must not be empty"
	}
	if req.Subjects != nil {
		for _, subject := range *req.Subjects {
			if strings.TrimSpace(subject) == "" {
				return "subjects must not contain empty values"
			}
		}
	}
	if req.Qualifications != nil {
		for _, qualification := range *req.Qualifications {
			if strings.TrimSpace(qualification) == "" {
				return "qualifications must not contain empty values"
			}
		}
	}
	if req.Experience != nil && req.Experience.Numeric && req.Experience.Years < 0 {
		return "experience must be 0 or greater"
	}
	if req.TeachingMode != nil {
		mode, ok := models.NormalizeTeachingMode(*req.TeachingMode)
		if !ok {
			return "teaching_mode must be one of: online, in_person, hybrid"
		}
		*req.TeachingMode = mode
	}
	if req.HourlyRate != nil && *req.HourlyRate < 0 {
		return "hourly_rate must be 0 or greater"
	}
	if req.PhoneNumber != nil && strings.TrimSpace(*req.PhoneNumber) == "" {
		return "phone_number must not be empty"
	}
	return ""
}

package models

import "time"

type Review struct {
	ID        int64     `json:"id"`
	TeacherID int64     `json:"teacher_id"`
	StudentID int64     `json:"student_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

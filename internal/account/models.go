package account

import "github.com/pkg/errors"

var ErrInvalidCredentials = errors.New("invalid credentials")

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

type Student struct {
	ID               string   `json:"studentId" validate:"required,slug"`
	Name             string   `json:"name" validate:"required"`
	Email            string   `json:"email" validate:"required,email"`
	SchoolID         string   `json:"instituteId" validate:"required"`
	Class            string   `json:"class" validate:"required,slug"`
	QuizzesAttempted []string `json:"quizzesAttempted"`
	CreatedAt        int64    `json:"createdAt,omitempty"`
}

type Teacher struct {
	ID             string   `json:"teacherId" validate:"required,slug"`
	Name           string   `json:"name" validate:"required"`
	Email          string   `json:"email" validate:"required,email"`
	SchoolID       string   `json:"instituteId" validate:"required"`
	QuizzesCreated []string `json:"quizzesCreated"`
	CreatedAt      int64    `json:"createdAt,omitempty"`
}

// StudentRegistration is the sign-up payload; Password is only ever hashed.
type StudentRegistration struct {
	Student
	Password string `json:"password" validate:"required,min=6"`
}

type TeacherRegistration struct {
	Teacher
	Password string `json:"password" validate:"required,min=6"`
}

// StudentFilter narrows ListStudents; empty fields match everything.
type StudentFilter struct {
	SchoolID string
	Class    string
}

func appendUnique(list []string, id string) ([]string, bool) {
	for _, v := range list {
		if v == id {
			return list, false
		}
	}
	return append(list, id), true
}

func remove(list []string, id string) ([]string, bool) {
	out := list[:0:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out, len(out) != len(list)
}

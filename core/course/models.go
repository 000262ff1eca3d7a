package course

import (
	"context"
	"time"

	"github.com/trezcool/learntrack/core"
)

type Course struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Class struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TeacherID   int       `json:"teacher_id"`
	CourseID    int       `json:"course_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

type Enrollment struct {
	ID         int       `json:"id"`
	StudentID  int       `json:"student_id"`
	ClassID    int       `json:"class_id"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}

// NewCourse contains information needed to create a Course (admin only).
type NewCourse struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

func (nc *NewCourse) Validate(ctx context.Context, svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCourseNameUniqueness(ctx, nc.Name)
}

// UpdateCourse renames an existing Course.
type UpdateCourse struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, orig Course, svc Service) error {
	uc.Name = core.CleanString(uc.Name)
	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckCourseNameUniqueness(ctx, uc.Name, orig)
}

// NewClass contains information needed to create a Class.
type NewClass struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description"`
	CourseID    int    `json:"course_id" validate:"required"`
}

func (nc *NewClass) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}

// EnrollStudent contains information needed to manually enroll a student.
type EnrollStudent struct {
	StudentEmail string `json:"student_email" validate:"required,email"`
	ClassID      int    `json:"class_id" validate:"required"`
}

func (es *EnrollStudent) Validate() error {
	es.StudentEmail = core.CleanString(es.StudentEmail, true /* lower */)
	return core.Validate.Struct(es)
}

// ClassFilter applies an AND operation on its set fields.
type ClassFilter struct {
	TeacherID int
	StudentID int
	CourseID  int
}

// EnrollmentFilter applies an AND operation on its set fields.
type EnrollmentFilter struct {
	ClassID   int
	StudentID int
}

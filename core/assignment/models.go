package assignment

import (
	"time"

	"github.com/trezcool/learntrack/core"
)

type Assignment struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ClassID     int       `json:"class_id"`
	TeacherID   int       `json:"teacher_id"`
	DueDate     time.Time `json:"due_date"` // UTC
	MaxScore    int       `json:"max_score"`
	Attachment  string    `json:"attachment,omitempty"` // file store ref
	CreatedAt   time.Time `json:"created_at"`           // UTC
}

func (a Assignment) IsOverdue(now time.Time) bool { return now.After(a.DueDate) }

type Submission struct {
	ID           int        `json:"id"`
	AssignmentID int        `json:"assignment_id"`
	StudentID    int        `json:"student_id"`
	Text         string     `json:"text,omitempty"`
	File         string     `json:"file,omitempty"` // file store ref
	SubmittedAt  time.Time  `json:"submitted_at"`   // UTC
	Score        *int       `json:"score,omitempty"`
	Feedback     string     `json:"feedback,omitempty"`
	GradedAt     *time.Time `json:"graded_at,omitempty"` // UTC
	GradedBy     *int       `json:"graded_by,omitempty"`
}

func (s Submission) IsGraded() bool            { return s.GradedAt != nil }
func (s Submission) IsLate(due time.Time) bool { return s.SubmittedAt.After(due) }

// NewAssignment contains information needed to create an Assignment.
// Attachment is a file store ref resolved by the caller before validation.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required,min=2,max=200"`
	Description string    `json:"description"`
	ClassID     int       `json:"class_id" validate:"required"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	MaxScore    int       `json:"max_score" validate:"required,gte=1,lte=1000"`
	Attachment  string    `json:"attachment"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return core.Validate.Struct(na)
}

// SubmitInput contains a student's submission; at least one of Text and File
// must be provided. File is a file store ref resolved by the caller.
type SubmitInput struct {
	AssignmentID int    `json:"assignment_id" validate:"required"`
	Text         string `json:"text" validate:"required_without=File"`
	File         string `json:"file" validate:"required_without=Text"`
}

func (si *SubmitInput) Validate() error {
	si.Text = core.CleanString(si.Text)
	return core.Validate.Struct(si)
}

// GradeInput contains a teacher's grade for a submission. Score is a pointer
// so that a zero score survives the required check.
type GradeInput struct {
	Score    *int   `json:"score" validate:"required,gte=0"`
	Feedback string `json:"feedback"`
}

func (gi *GradeInput) Validate() error {
	gi.Feedback = core.CleanString(gi.Feedback)
	return core.Validate.Struct(gi)
}

// StudentAssignment pairs an assignment with the student's own submission,
// if any.
type StudentAssignment struct {
	Assignment Assignment  `json:"assignment"`
	Submission *Submission `json:"submission,omitempty"`
}

// Filter applies an AND operation on its set fields.
type Filter struct {
	ClassID   int
	TeacherID int
}

// SubmissionFilter applies an AND operation on its set fields.
type SubmissionFilter struct {
	AssignmentID int
	StudentID    int
	Graded       *bool
}

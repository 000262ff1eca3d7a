package pgrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/assignment"
)

type assignmentRepository struct {
	exec core.DBExecutor
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{exec: exec}
}

type assignmentRow struct {
	ID          int            `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	ClassID     int            `db:"class_id"`
	TeacherID   int            `db:"teacher_id"`
	DueDate     time.Time      `db:"due_date"`
	MaxScore    int            `db:"max_score"`
	Attachment  sql.NullString `db:"attachment"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r assignmentRow) assignment() assignment.Assignment {
	return assignment.Assignment{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		ClassID:     r.ClassID,
		TeacherID:   r.TeacherID,
		DueDate:     r.DueDate,
		MaxScore:    r.MaxScore,
		Attachment:  r.Attachment.String,
		CreatedAt:   r.CreatedAt,
	}
}

type submissionRow struct {
	ID           int            `db:"id"`
	AssignmentID int            `db:"assignment_id"`
	StudentID    int            `db:"student_id"`
	Text         string         `db:"text"`
	File         sql.NullString `db:"file"`
	SubmittedAt  time.Time      `db:"submitted_at"`
	Score        sql.NullInt64  `db:"score"`
	Feedback     sql.NullString `db:"feedback"`
	GradedAt     sql.NullTime   `db:"graded_at"`
	GradedBy     sql.NullInt64  `db:"graded_by"`
}

func (r submissionRow) submission() assignment.Submission {
	return assignment.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		Text:         r.Text,
		File:         r.File.String,
		SubmittedAt:  r.SubmittedAt,
		Score:        intPtr(r.Score),
		Feedback:     r.Feedback.String,
		GradedAt:     timePtr(r.GradedAt),
		GradedBy:     intPtr(r.GradedBy),
	}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	q := `
INSERT INTO assignments (title, description, class_id, teacher_id, due_date, max_score, attachment, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &asg.ID, q,
		asg.Title, asg.Description, asg.ClassID, asg.TeacherID, asg.DueDate.UTC(),
		asg.MaxScore, nullString(asg.Attachment), asg.CreatedAt.UTC())
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id int, exec ...core.DBExecutor) (assignment.Assignment, error) {
	q := `
SELECT id, title, description, class_id, teacher_id, due_date, max_score, attachment, created_at
FROM assignments WHERE id = $1`
	var row assignmentRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.assignment(), nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.Filter, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	q := `
SELECT id, title, description, class_id, teacher_id, due_date, max_score, attachment, created_at
FROM assignments`

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.ClassID != 0 {
		conds = append(conds, `class_id = `+arg(filter.ClassID))
	}
	if filter.TeacherID != 0 {
		conds = append(conds, `teacher_id = `+arg(filter.TeacherID))
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY due_date ASC`

	var rows []assignmentRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		asgs = append(asgs, r.assignment())
	}
	return asgs, nil
}

func (repo assignmentRepository) DeleteAssignmentsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM assignments WHERE teacher_id = $1`, teacherID)
	return errors.Wrap(err, "deleting teacher assignments")
}

func (repo assignmentRepository) UpsertSubmission(ctx context.Context, sub assignment.Submission, exec ...core.DBExecutor) (assignment.Submission, error) {
	q := `
INSERT INTO submissions (assignment_id, student_id, text, file, submitted_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (assignment_id, student_id) DO UPDATE
SET text = EXCLUDED.text, file = EXCLUDED.file, submitted_at = EXCLUDED.submitted_at,
    score = NULL, feedback = NULL, graded_at = NULL, graded_by = NULL
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &sub.ID, q,
		sub.AssignmentID, sub.StudentID, sub.Text, nullString(sub.File), sub.SubmittedAt.UTC())
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "upserting submission")
	}
	return sub, nil
}

func (repo assignmentRepository) GetSubmission(ctx context.Context, id int, exec ...core.DBExecutor) (assignment.Submission, error) {
	q := `
SELECT id, assignment_id, student_id, text, file, submitted_at, score, feedback, graded_at, graded_by
FROM submissions WHERE id = $1`
	var row submissionRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Submission{}, assignment.ErrSubmissionNotFound
		}
		return assignment.Submission{}, errors.Wrap(err, "getting submission")
	}
	return row.submission(), nil
}

func (repo assignmentRepository) QuerySubmissions(ctx context.Context, filter assignment.SubmissionFilter, exec ...core.DBExecutor) ([]assignment.Submission, error) {
	q := `
SELECT id, assignment_id, student_id, text, file, submitted_at, score, feedback, graded_at, graded_by
FROM submissions`

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.AssignmentID != 0 {
		conds = append(conds, `assignment_id = `+arg(filter.AssignmentID))
	}
	if filter.StudentID != 0 {
		conds = append(conds, `student_id = `+arg(filter.StudentID))
	}
	if filter.Graded != nil {
		if *filter.Graded {
			conds = append(conds, `graded_at IS NOT NULL`)
		} else {
			conds = append(conds, `graded_at IS NULL`)
		}
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY submitted_at DESC`

	var rows []submissionRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]assignment.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.submission())
	}
	return subs, nil
}

func (repo assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission, exec ...core.DBExecutor) (assignment.Submission, error) {
	q := `
UPDATE submissions
SET text = $1, file = $2, submitted_at = $3, score = $4, feedback = $5, graded_at = $6, graded_by = $7
WHERE id = $8
RETURNING id`
	var id int
	err := getExec(repo.exec, exec).GetContext(ctx, &id, q,
		sub.Text, nullString(sub.File), sub.SubmittedAt.UTC(), nullInt(sub.Score),
		nullString(sub.Feedback), nullTimePtr(sub.GradedAt), nullInt(sub.GradedBy), sub.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return assignment.Submission{}, assignment.ErrSubmissionNotFound
		}
		return assignment.Submission{}, errors.Wrap(err, "updating submission")
	}
	return sub, nil
}

func (repo assignmentRepository) CountPendingByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) (int, error) {
	q := `
SELECT count(*)
FROM submissions s
JOIN assignments a ON a.id = s.assignment_id
WHERE a.teacher_id = $1 AND s.graded_at IS NULL`
	var count int
	if err := getExec(repo.exec, exec).GetContext(ctx, &count, q, teacherID); err != nil {
		return 0, errors.Wrap(err, "counting pending submissions")
	}
	return count, nil
}

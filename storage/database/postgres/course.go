package pgrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/course"
)

type courseRepository struct {
	exec core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{exec: exec}
}

func (repo courseRepository) CheckCourseNameUniqueness(ctx context.Context, name string, excludedCourses []course.Course, exec ...core.DBExecutor) error {
	q := `SELECT id FROM courses WHERE lower(name) = lower($1)`
	if len(excludedCourses) > 0 {
		ids := make([]string, 0, len(excludedCourses))
		for _, crs := range excludedCourses {
			ids = append(ids, strconv.Itoa(crs.ID))
		}
		q += ` AND id NOT IN (` + strings.Join(ids, ",") + `)`
	}
	q += ` LIMIT 1`

	var id int
	err := getExec(repo.exec, exec).GetContext(ctx, &id, q, name)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking course name uniqueness")
	}
	return course.ErrCourseExists
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := `INSERT INTO courses (name) VALUES ($1) RETURNING id`
	if err := getExec(repo.exec, exec).GetContext(ctx, &crs.ID, q, crs.Name); err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrCourseExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, filter course.GetCourseFilter, exec ...core.DBExecutor) (course.Course, error) {
	q := `SELECT id, name FROM courses WHERE `
	var arg interface{}
	if filter.ID != 0 {
		q += `id = $1`
		arg = filter.ID
	} else {
		q += `lower(name) = lower($1)`
		arg = filter.Name
	}

	var crs course.Course
	if err := getExec(repo.exec, exec).GetContext(ctx, &crs, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrCourseNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return crs, nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	q := `SELECT id, name FROM courses ORDER BY name ASC`
	if err := getExec(repo.exec, exec).SelectContext(ctx, &courses, q); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := `UPDATE courses SET name = $1 WHERE id = $2 RETURNING id`
	var id int
	if err := getExec(repo.exec, exec).GetContext(ctx, &id, q, crs.Name, crs.ID); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrCourseNotFound
		}
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrCourseExists
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return crs, nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	return errors.Wrap(err, "deleting course")
}

type classRow struct {
	ID          int       `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	TeacherID   int       `db:"teacher_id"`
	CourseID    int       `db:"course_id"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r classRow) class() course.Class {
	return course.Class{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		TeacherID:   r.TeacherID,
		CourseID:    r.CourseID,
		CreatedAt:   r.CreatedAt,
	}
}

func (repo courseRepository) CreateClass(ctx context.Context, cls course.Class, exec ...core.DBExecutor) (course.Class, error) {
	q := `
INSERT INTO classes (name, description, teacher_id, course_id, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &cls.ID, q,
		cls.Name, cls.Description, cls.TeacherID, cls.CourseID, cls.CreatedAt.UTC())
	if err != nil {
		return course.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo courseRepository) GetClass(ctx context.Context, id int, exec ...core.DBExecutor) (course.Class, error) {
	q := `SELECT id, name, description, teacher_id, course_id, created_at FROM classes WHERE id = $1`
	var row classRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Class{}, course.ErrClassNotFound
		}
		return course.Class{}, errors.Wrap(err, "getting class")
	}
	return row.class(), nil
}

func (repo courseRepository) QueryClasses(ctx context.Context, filter course.ClassFilter, exec ...core.DBExecutor) ([]course.Class, error) {
	q := `SELECT c.id, c.name, c.description, c.teacher_id, c.course_id, c.created_at FROM classes c`

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.StudentID != 0 {
		q += ` JOIN enrollments e ON e.class_id = c.id`
		conds = append(conds, `e.student_id = `+arg(filter.StudentID))
	}
	if filter.TeacherID != 0 {
		conds = append(conds, `c.teacher_id = `+arg(filter.TeacherID))
	}
	if filter.CourseID != 0 {
		conds = append(conds, `c.course_id = `+arg(filter.CourseID))
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY c.created_at DESC`

	var rows []classRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]course.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.class())
	}
	return classes, nil
}

func (repo courseRepository) DeleteClassesByCourse(ctx context.Context, courseID int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM classes WHERE course_id = $1`, courseID)
	return errors.Wrap(err, "deleting course classes")
}

func (repo courseRepository) DeleteClassesByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM classes WHERE teacher_id = $1`, teacherID)
	return errors.Wrap(err, "deleting teacher classes")
}

type enrollmentRow struct {
	ID         int       `db:"id"`
	StudentID  int       `db:"student_id"`
	ClassID    int       `db:"class_id"`
	EnrolledAt time.Time `db:"enrolled_at"`
}

func (r enrollmentRow) enrollment() course.Enrollment {
	return course.Enrollment{ID: r.ID, StudentID: r.StudentID, ClassID: r.ClassID, EnrolledAt: r.EnrolledAt}
}

func (repo courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	q := `
INSERT INTO enrollments (student_id, class_id, enrolled_at)
VALUES ($1, $2, $3)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &enr.ID, q,
		enr.StudentID, enr.ClassID, enr.EnrolledAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo courseRepository) GetEnrollment(ctx context.Context, studentID, classID int, exec ...core.DBExecutor) (course.Enrollment, error) {
	q := `
SELECT id, student_id, class_id, enrolled_at
FROM enrollments WHERE student_id = $1 AND class_id = $2`
	var row enrollmentRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, q, studentID, classID); err != nil {
		if err == sql.ErrNoRows {
			return course.Enrollment{}, course.ErrEnrollmentNotFound
		}
		return course.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.enrollment(), nil
}

func (repo courseRepository) QueryEnrollments(ctx context.Context, filter course.EnrollmentFilter, exec ...core.DBExecutor) ([]course.Enrollment, error) {
	q := `SELECT id, student_id, class_id, enrolled_at FROM enrollments`

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.ClassID != 0 {
		conds = append(conds, `class_id = `+arg(filter.ClassID))
	}
	if filter.StudentID != 0 {
		conds = append(conds, `student_id = `+arg(filter.StudentID))
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY enrolled_at ASC`

	var rows []enrollmentRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.enrollment())
	}
	return enrollments, nil
}

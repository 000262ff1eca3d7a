package course

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/notification"
	"github.com/trezcool/learntrack/core/user"
)

var (
	// errors
	ErrCourseNotFound     = errors.New("course not found")
	ErrCourseExists       = errors.New("a course with this name already exists")
	ErrClassNotFound      = errors.New("class not found")
	ErrStudentNotFound    = errors.New("no student found with this email")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrAlreadyEnrolled is a soft outcome: the enrollment already holds and
	// no second row is ever created, whether detected up front or by the
	// storage unique constraint under a race.
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this class")
)

type (
	GetCourseFilter struct {
		ID   int
		Name string
	}

	Repository interface {
		CheckCourseNameUniqueness(ctx context.Context, name string, excludedCourses []Course, exec ...core.DBExecutor) error
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		GetCourse(ctx context.Context, filter GetCourseFilter, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		GetClass(ctx context.Context, id int, exec ...core.DBExecutor) (Class, error)
		QueryClasses(ctx context.Context, filter ClassFilter, exec ...core.DBExecutor) ([]Class, error)
		DeleteClassesByCourse(ctx context.Context, courseID int, exec ...core.DBExecutor) error
		DeleteClassesByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) error

		CreateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		GetEnrollment(ctx context.Context, studentID, classID int, exec ...core.DBExecutor) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter EnrollmentFilter, exec ...core.DBExecutor) ([]Enrollment, error)
	}

	Service interface {
		CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		Courses(ctx context.Context) ([]Course, error)
		UpdateCourse(ctx context.Context, id int, uc UpdateCourse) (Course, error)
		DeleteCourse(ctx context.Context, actor user.User, id int) error
		CheckCourseNameUniqueness(ctx context.Context, name string, excludedCourses ...Course) error

		CreateClass(ctx context.Context, actor user.User, nc NewClass) (Class, error)
		GetClass(ctx context.Context, id int) (Class, error)
		Classes(ctx context.Context, filter ClassFilter) ([]Class, error)
		ClassesByTeacher(ctx context.Context, teacherID int) ([]Class, error)
		ClassesByStudent(ctx context.Context, studentID int) ([]Class, error)

		EnrollStudent(ctx context.Context, actor user.User, es EnrollStudent) (Enrollment, error)
		Enrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error)
		StudentsByTeacher(ctx context.Context, teacherID int) ([]user.User, error)
	}

	service struct {
		db        core.DB
		repo      Repository
		usrRepo   user.Repository
		notifRepo notification.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, usrRepo user.Repository, notifRepo notification.Repository) Service {
	return &service{
		db:        db,
		repo:      repo,
		usrRepo:   usrRepo,
		notifRepo: notifRepo,
	}
}

func (svc *service) CheckCourseNameUniqueness(ctx context.Context, name string, excludedCourses ...Course) error {
	if err := svc.repo.CheckCourseNameUniqueness(ctx, name, excludedCourses); err != nil {
		if err == ErrCourseExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	return svc.repo.CreateCourse(ctx, Course{Name: nc.Name})
}

func (svc *service) GetCourse(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, GetCourseFilter{ID: id})
}

func (svc *service) Courses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx)
}

func (svc *service) UpdateCourse(ctx context.Context, id int, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, GetCourseFilter{ID: id})
	if err != nil {
		return Course{}, err
	}
	crs.Name = uc.Name
	return svc.repo.UpdateCourse(ctx, crs)
}

// DeleteCourse removes a course and all its classes; the storage layer
// cascades the classes' enrollments, assignments and submissions.
func (svc *service) DeleteCourse(ctx context.Context, actor user.User, id int) error {
	if !actor.IsAdmin() {
		return core.ErrForbidden
	}
	if _, err := svc.repo.GetCourse(ctx, GetCourseFilter{ID: id}); err != nil {
		return err
	}
	return core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		if err := svc.repo.DeleteClassesByCourse(ctx, id, tx); err != nil {
			return errors.Wrap(err, "deleting course classes")
		}
		return svc.repo.DeleteCourse(ctx, id, tx)
	})
}

// CreateClass creates a class and, in the same transaction, enrolls every
// student registered for the class's course and fans the notifications out.
// The enrollment set is a snapshot: students who register for the course
// afterwards are not enrolled retroactively.
func (svc *service) CreateClass(ctx context.Context, actor user.User, nc NewClass) (Class, error) {
	if !actor.IsTeacher() {
		return Class{}, core.ErrForbidden
	}
	if _, err := svc.repo.GetCourse(ctx, GetCourseFilter{ID: nc.CourseID}); err != nil {
		return Class{}, err
	}

	var cls Class
	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		cls, err = svc.repo.CreateClass(ctx, Class{
			Name:        nc.Name,
			Description: nc.Description,
			TeacherID:   actor.ID,
			CourseID:    nc.CourseID,
			CreatedAt:   time.Now().UTC(),
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating class")
		}

		students, err := svc.usrRepo.QueryUsers(ctx, &user.QueryFilter{Role: user.RoleStudent, CourseID: &nc.CourseID}, nil, tx)
		if err != nil {
			return errors.Wrap(err, "querying course students")
		}

		notifs := make([]notification.Notification, 0, len(students))
		for _, student := range students {
			if _, err = svc.repo.GetEnrollment(ctx, student.ID, cls.ID, tx); err == nil {
				continue
			} else if err != ErrEnrollmentNotFound {
				return errors.Wrap(err, "checking enrollment")
			}
			if _, err = svc.repo.CreateEnrollment(ctx, Enrollment{
				StudentID:  student.ID,
				ClassID:    cls.ID,
				EnrolledAt: time.Now().UTC(),
			}, tx); err != nil && err != ErrAlreadyEnrolled {
				return errors.Wrap(err, "creating enrollment")
			}
			notifs = append(notifs, notification.New(
				student.ID,
				fmt.Sprintf("New class %q created for your course.", cls.Name),
				"/dashboard",
			))
		}

		adminNotifs, err := svc.adminNotifs(ctx, tx,
			fmt.Sprintf("New class %q created by %s.", cls.Name, actor.Name), "/admin/courses")
		if err != nil {
			return err
		}
		notifs = append(notifs, adminNotifs...)

		return errors.Wrap(svc.notifRepo.CreateNotifications(ctx, notifs, tx), "creating notifications")
	})
	if err != nil {
		return Class{}, err
	}
	return cls, nil
}

func (svc *service) GetClass(ctx context.Context, id int) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) Classes(ctx context.Context, filter ClassFilter) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, filter)
}

func (svc *service) ClassesByTeacher(ctx context.Context, teacherID int) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, ClassFilter{TeacherID: teacherID})
}

func (svc *service) ClassesByStudent(ctx context.Context, studentID int) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, ClassFilter{StudentID: studentID})
}

// EnrollStudent manually enrolls a student (looked up by email) into a class.
// Any teacher may enroll into any class; ownership is deliberately not
// checked, matching the enrollment workflow this system inherited.
// Enrolling an already-enrolled student is an idempotent soft outcome.
func (svc *service) EnrollStudent(ctx context.Context, actor user.User, es EnrollStudent) (Enrollment, error) {
	if !actor.IsTeacher() {
		return Enrollment{}, core.ErrForbidden
	}

	student, err := svc.usrRepo.GetUser(ctx, user.GetFilter{Email: es.StudentEmail})
	if err != nil || !student.IsStudent() {
		return Enrollment{}, ErrStudentNotFound
	}
	if _, err = svc.repo.GetClass(ctx, es.ClassID); err != nil {
		return Enrollment{}, err
	}

	if _, err = svc.repo.GetEnrollment(ctx, student.ID, es.ClassID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if err != ErrEnrollmentNotFound {
		return Enrollment{}, errors.Wrap(err, "checking enrollment")
	}

	// the unique (student_id, class_id) constraint backstops concurrent
	// enrollments; the repo translates its violation to ErrAlreadyEnrolled
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID:  student.ID,
		ClassID:    es.ClassID,
		EnrolledAt: time.Now().UTC(),
	})
}

func (svc *service) Enrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter)
}

// StudentsByTeacher returns the distinct students enrolled in any of the
// teacher's classes.
func (svc *service) StudentsByTeacher(ctx context.Context, teacherID int) ([]user.User, error) {
	classes, err := svc.repo.QueryClasses(ctx, ClassFilter{TeacherID: teacherID})
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	students := make([]user.User, 0)
	for _, cls := range classes {
		enrollments, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{ClassID: cls.ID})
		if err != nil {
			return nil, err
		}
		for _, enr := range enrollments {
			if seen[enr.StudentID] {
				continue
			}
			seen[enr.StudentID] = true
			student, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: enr.StudentID})
			if err != nil {
				return nil, errors.Wrap(err, "finding enrolled student")
			}
			students = append(students, student)
		}
	}
	return students, nil
}

// adminNotifs builds one notification per admin account.
func (svc *service) adminNotifs(ctx context.Context, exec core.DBExecutor, message, link string) ([]notification.Notification, error) {
	admins, err := svc.usrRepo.QueryUsers(ctx, &user.QueryFilter{Role: user.RoleAdmin}, nil, exec)
	if err != nil {
		return nil, errors.Wrap(err, "querying admins")
	}
	notifs := make([]notification.Notification, 0, len(admins))
	for _, admin := range admins {
		notifs = append(notifs, notification.New(admin.ID, message, link))
	}
	return notifs, nil
}

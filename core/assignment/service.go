package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/course"
	"github.com/trezcool/learntrack/core/notification"
	"github.com/trezcool/learntrack/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNotEnrolled        = errors.New("student is not enrolled in this class")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		GetAssignment(ctx context.Context, id int, exec ...core.DBExecutor) (Assignment, error)
		QueryAssignments(ctx context.Context, filter Filter, exec ...core.DBExecutor) ([]Assignment, error)
		DeleteAssignmentsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) error

		// UpsertSubmission inserts the submission or, for an existing
		// (assignment_id, student_id) pair, replaces its content wholesale,
		// grade fields included.
		UpsertSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		GetSubmission(ctx context.Context, id int, exec ...core.DBExecutor) (Submission, error)
		QuerySubmissions(ctx context.Context, filter SubmissionFilter, exec ...core.DBExecutor) ([]Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		CountPendingByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Create(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error)
		GetByID(ctx context.Context, id int) (Assignment, error)
		ByTeacher(ctx context.Context, teacherID int) ([]Assignment, error)
		ByClass(ctx context.Context, classID int) ([]Assignment, error)
		ForStudent(ctx context.Context, studentID int) ([]StudentAssignment, error)
		UpcomingForStudent(ctx context.Context, studentID int) ([]Assignment, error)

		Submit(ctx context.Context, actor user.User, si SubmitInput) (Submission, error)
		Grade(ctx context.Context, actor user.User, submissionID int, gi GradeInput) (Submission, error)
		Submissions(ctx context.Context, actor user.User, assignmentID int) ([]Submission, error)
		GradedByStudent(ctx context.Context, studentID int) ([]Submission, error)
		PendingCount(ctx context.Context, teacherID int) (int, error)
	}

	service struct {
		db        core.DB
		repo      Repository
		crsRepo   course.Repository
		usrRepo   user.Repository
		notifRepo notification.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, crsRepo course.Repository, usrRepo user.Repository, notifRepo notification.Repository) Service {
	return &service{
		db:        db,
		repo:      repo,
		crsRepo:   crsRepo,
		usrRepo:   usrRepo,
		notifRepo: notifRepo,
	}
}

// Create posts an assignment in one of the actor's classes and, in the same
// transaction, notifies the class's enrolled students and the admins.
func (svc *service) Create(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error) {
	if !actor.IsTeacher() {
		return Assignment{}, core.ErrForbidden
	}
	cls, err := svc.crsRepo.GetClass(ctx, na.ClassID)
	if err != nil {
		return Assignment{}, err
	}
	if cls.TeacherID != actor.ID {
		return Assignment{}, core.ErrForbidden
	}

	var asg Assignment
	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		asg, err = svc.repo.CreateAssignment(ctx, Assignment{
			Title:       na.Title,
			Description: na.Description,
			ClassID:     cls.ID,
			TeacherID:   actor.ID,
			DueDate:     na.DueDate.UTC(),
			MaxScore:    na.MaxScore,
			Attachment:  na.Attachment,
			CreatedAt:   time.Now().UTC(),
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating assignment")
		}

		enrollments, err := svc.crsRepo.QueryEnrollments(ctx, course.EnrollmentFilter{ClassID: cls.ID}, tx)
		if err != nil {
			return errors.Wrap(err, "querying enrollments")
		}
		notifs := make([]notification.Notification, 0, len(enrollments))
		for _, enr := range enrollments {
			notifs = append(notifs, notification.New(
				enr.StudentID,
				fmt.Sprintf("New assignment %q posted in %s.", asg.Title, cls.Name),
				"/assignments",
			))
		}

		adminNotifs, err := svc.adminNotifs(ctx, tx,
			fmt.Sprintf("New assignment %q created by %s.", asg.Title, actor.Name), "/admin/courses")
		if err != nil {
			return err
		}
		notifs = append(notifs, adminNotifs...)

		return errors.Wrap(svc.notifRepo.CreateNotifications(ctx, notifs, tx), "creating notifications")
	})
	if err != nil {
		return Assignment{}, err
	}
	return asg, nil
}

func (svc *service) GetByID(ctx context.Context, id int) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *service) ByTeacher(ctx context.Context, teacherID int) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, Filter{TeacherID: teacherID})
}

func (svc *service) ByClass(ctx context.Context, classID int) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, Filter{ClassID: classID})
}

// ForStudent returns every assignment in the student's enrolled classes,
// each paired with the student's own submission when one exists.
func (svc *service) ForStudent(ctx context.Context, studentID int) ([]StudentAssignment, error) {
	classes, err := svc.crsRepo.QueryClasses(ctx, course.ClassFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}

	res := make([]StudentAssignment, 0)
	for _, cls := range classes {
		asgs, err := svc.repo.QueryAssignments(ctx, Filter{ClassID: cls.ID})
		if err != nil {
			return nil, err
		}
		for _, asg := range asgs {
			sa := StudentAssignment{Assignment: asg}
			subs, err := svc.repo.QuerySubmissions(ctx, SubmissionFilter{AssignmentID: asg.ID, StudentID: studentID})
			if err != nil {
				return nil, err
			}
			if len(subs) > 0 {
				sa.Submission = &subs[0]
			}
			res = append(res, sa)
		}
	}
	return res, nil
}

// UpcomingForStudent returns the not-yet-due assignments the student has not
// submitted to.
func (svc *service) UpcomingForStudent(ctx context.Context, studentID int) ([]Assignment, error) {
	all, err := svc.ForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	upcoming := make([]Assignment, 0)
	for _, sa := range all {
		if sa.Submission == nil && !sa.Assignment.IsOverdue(now) {
			upcoming = append(upcoming, sa.Assignment)
		}
	}
	return upcoming, nil
}

// Submit records or replaces the actor's submission. Resubmitting clears any
// previous grade; the owning teacher and the admins are notified in the same
// transaction.
func (svc *service) Submit(ctx context.Context, actor user.User, si SubmitInput) (Submission, error) {
	if !actor.IsStudent() {
		return Submission{}, core.ErrForbidden
	}
	asg, err := svc.repo.GetAssignment(ctx, si.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if _, err = svc.crsRepo.GetEnrollment(ctx, actor.ID, asg.ClassID); err != nil {
		if err == course.ErrEnrollmentNotFound {
			return Submission{}, ErrNotEnrolled
		}
		return Submission{}, errors.Wrap(err, "checking enrollment")
	}

	var sub Submission
	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		sub, err = svc.repo.UpsertSubmission(ctx, Submission{
			AssignmentID: asg.ID,
			StudentID:    actor.ID,
			Text:         si.Text,
			File:         si.File,
			SubmittedAt:  time.Now().UTC(),
		}, tx)
		if err != nil {
			return errors.Wrap(err, "upserting submission")
		}

		notifs := []notification.Notification{
			notification.New(
				asg.TeacherID,
				fmt.Sprintf("%s submitted homework for %q.", actor.Name, asg.Title),
				"/submissions",
			),
		}
		adminNotifs, err := svc.adminNotifs(ctx, tx,
			fmt.Sprintf("%s submitted homework for %q.", actor.Name, asg.Title), "/admin/users")
		if err != nil {
			return err
		}
		notifs = append(notifs, adminNotifs...)

		return errors.Wrap(svc.notifRepo.CreateNotifications(ctx, notifs, tx), "creating notifications")
	})
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// Grade scores a submission on one of the actor's assignments.
func (svc *service) Grade(ctx context.Context, actor user.User, submissionID int, gi GradeInput) (Submission, error) {
	if !actor.IsTeacher() {
		return Submission{}, core.ErrForbidden
	}
	sub, err := svc.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	asg, err := svc.repo.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if asg.TeacherID != actor.ID {
		return Submission{}, core.ErrForbidden
	}
	if *gi.Score > asg.MaxScore {
		err := fmt.Errorf("score must not exceed %d", asg.MaxScore)
		return Submission{}, core.NewValidationError(err, core.FieldError{Field: "score", Error: err.Error()})
	}

	now := time.Now().UTC()
	sub.Score = gi.Score
	sub.Feedback = gi.Feedback
	sub.GradedAt = &now
	sub.GradedBy = &actor.ID
	return svc.repo.UpdateSubmission(ctx, sub)
}

// Submissions returns a teacher's view of an assignment's submissions;
// only the owning teacher may list them.
func (svc *service) Submissions(ctx context.Context, actor user.User, assignmentID int) ([]Submission, error) {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && asg.TeacherID != actor.ID {
		return nil, core.ErrForbidden
	}
	return svc.repo.QuerySubmissions(ctx, SubmissionFilter{AssignmentID: assignmentID})
}

func (svc *service) GradedByStudent(ctx context.Context, studentID int) ([]Submission, error) {
	graded := true
	return svc.repo.QuerySubmissions(ctx, SubmissionFilter{StudentID: studentID, Graded: &graded})
}

func (svc *service) PendingCount(ctx context.Context, teacherID int) (int, error) {
	return svc.repo.CountPendingByTeacher(ctx, teacherID)
}

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

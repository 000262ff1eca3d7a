package messaging

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/course"
	"github.com/trezcool/learntrack/core/user"
)

var (
	// errors
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrSelfMessage       = errors.New("cannot message yourself")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message, exec ...core.DBExecutor) (Message, error)
		// QueryConversation returns both directions of the exchange between
		// two users, ordered by timestamp ascending.
		QueryConversation(ctx context.Context, userID, otherID int, exec ...core.DBExecutor) ([]Message, error)
		CountUnread(ctx context.Context, receiverID, senderID int, exec ...core.DBExecutor) (int, error)
		MarkConversationRead(ctx context.Context, receiverID, senderID int, exec ...core.DBExecutor) error
		DeleteUserMessages(ctx context.Context, userID int, exec ...core.DBExecutor) error
	}

	Service interface {
		Send(ctx context.Context, actor user.User, si SendInput) (Message, error)
		Conversation(ctx context.Context, actor user.User, otherID int) ([]Message, error)
		Contacts(ctx context.Context, actor user.User) ([]Contact, error)
		MarkConversationRead(ctx context.Context, actor user.User, senderID int) error
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		crsRepo course.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, crsRepo course.Repository) Service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
		crsRepo: crsRepo,
	}
}

// Send delivers a direct message. Students may only message teachers;
// teachers and admins may message anyone but themselves.
func (svc *service) Send(ctx context.Context, actor user.User, si SendInput) (Message, error) {
	if si.ReceiverID == actor.ID {
		return Message{}, ErrSelfMessage
	}
	receiver, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: si.ReceiverID})
	if err != nil {
		return Message{}, ErrRecipientNotFound
	}
	if actor.IsStudent() && !receiver.IsTeacher() {
		return Message{}, core.ErrForbidden
	}

	return svc.repo.CreateMessage(ctx, Message{
		SenderID:   actor.ID,
		ReceiverID: si.ReceiverID,
		Content:    si.Content,
		Timestamp:  time.Now().UTC(),
	})
}

func (svc *service) Conversation(ctx context.Context, actor user.User, otherID int) ([]Message, error) {
	if _, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: otherID}); err != nil {
		return nil, ErrRecipientNotFound
	}
	return svc.repo.QueryConversation(ctx, actor.ID, otherID)
}

// Contacts returns the users the actor may start a conversation with:
// students see the teachers of their enrolled classes, teachers see the
// students enrolled in their classes plus the admins, admins see everyone.
func (svc *service) Contacts(ctx context.Context, actor user.User) ([]Contact, error) {
	var others []user.User
	var err error

	switch {
	case actor.IsStudent():
		others, err = svc.studentContacts(ctx, actor.ID)
	case actor.IsTeacher():
		others, err = svc.teacherContacts(ctx, actor.ID)
	default:
		others, err = svc.usrRepo.QueryUsers(ctx, nil, nil)
	}
	if err != nil {
		return nil, err
	}

	contacts := make([]Contact, 0, len(others))
	for _, other := range others {
		if other.ID == actor.ID {
			continue
		}
		unread, err := svc.repo.CountUnread(ctx, actor.ID, other.ID)
		if err != nil {
			return nil, errors.Wrap(err, "counting unread messages")
		}
		contacts = append(contacts, Contact{
			ID:     other.ID,
			Name:   other.Name,
			Role:   other.Role,
			Unread: unread,
		})
	}
	return contacts, nil
}

func (svc *service) MarkConversationRead(ctx context.Context, actor user.User, senderID int) error {
	return svc.repo.MarkConversationRead(ctx, actor.ID, senderID)
}

func (svc *service) studentContacts(ctx context.Context, studentID int) ([]user.User, error) {
	classes, err := svc.crsRepo.QueryClasses(ctx, course.ClassFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	teachers := make([]user.User, 0)
	for _, cls := range classes {
		if seen[cls.TeacherID] {
			continue
		}
		seen[cls.TeacherID] = true
		teacher, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: cls.TeacherID})
		if err != nil {
			return nil, errors.Wrap(err, "finding class teacher")
		}
		teachers = append(teachers, teacher)
	}
	return teachers, nil
}

func (svc *service) teacherContacts(ctx context.Context, teacherID int) ([]user.User, error) {
	classes, err := svc.crsRepo.QueryClasses(ctx, course.ClassFilter{TeacherID: teacherID})
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	contacts := make([]user.User, 0)
	for _, cls := range classes {
		enrollments, err := svc.crsRepo.QueryEnrollments(ctx, course.EnrollmentFilter{ClassID: cls.ID})
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
			contacts = append(contacts, student)
		}
	}

	admins, err := svc.usrRepo.QueryUsers(ctx, &user.QueryFilter{Role: user.RoleAdmin}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying admins")
	}
	for _, admin := range admins {
		if !seen[admin.ID] {
			contacts = append(contacts, admin)
		}
	}
	return contacts, nil
}

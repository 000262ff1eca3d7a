package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core"
)

var (
	// errors
	ErrNotFound          = errors.New("user not found")
	ErrEmailExists       = errors.New("a user with this email already exists")
	ErrCannotDeleteAdmin = errors.New("admin accounts cannot be deleted")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUser(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	// MessageDeleter removes all direct messages a user took part in.
	MessageDeleter interface {
		DeleteUserMessages(ctx context.Context, userID int, exec ...core.DBExecutor) error
	}

	// TeacherDataDeleter removes everything a teacher owns.
	TeacherDataDeleter interface {
		DeleteClassesByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) error
		DeleteAssignmentsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) error
	}

	Service interface {
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		Register(ctx context.Context, reg Registration) (User, error)
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		Update(ctx context.Context, id int, uu UpdateUser) (User, error)
		Delete(ctx context.Context, actor User, id int) error
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
	}

	service struct {
		db        core.DB
		repo      Repository
		msgRepo   MessageDeleter
		tdataRepo TeacherDataDeleter
		mailSvc   core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(
	db core.DB,
	repo Repository,
	msgRepo MessageDeleter,
	tdataRepo TeacherDataDeleter,
	mailSvc core.EmailService,
) Service {
	return &service{
		db:        db,
		repo:      repo,
		msgRepo:   msgRepo,
		tdataRepo: tdataRepo,
		mailSvc:   mailSvc,
	}
}

func (svc *service) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedUsers); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrNotFound
	}

	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Register(ctx context.Context, reg Registration) (User, error) {
	usr := User{
		Name:      reg.Name,
		Email:     reg.Email,
		Role:      reg.Role,
		CourseID:  reg.CourseID,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(reg.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		CourseID:  nu.CourseID,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}

	usr.Name = uu.Name
	usr.Email = uu.Email
	if uu.CourseID != nil {
		usr.CourseID = uu.CourseID
	}
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// Delete removes a user account and everything tied to it: their direct
// messages and, for teachers, their classes and assignments (storage-level
// cascades take care of the enrollments and submissions underneath).
// Admin accounts are never deleted.
func (svc *service) Delete(ctx context.Context, actor User, id int) error {
	if !actor.IsAdmin() {
		return core.ErrForbidden
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	if usr.IsAdmin() {
		return ErrCannotDeleteAdmin
	}

	return core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		if err := svc.msgRepo.DeleteUserMessages(ctx, usr.ID, tx); err != nil {
			return errors.Wrap(err, "deleting user messages")
		}
		if usr.IsTeacher() {
			if err := svc.tdataRepo.DeleteClassesByTeacher(ctx, usr.ID, tx); err != nil {
				return errors.Wrap(err, "deleting teacher classes")
			}
			if err := svc.tdataRepo.DeleteAssignmentsByTeacher(ctx, usr.ID, tx); err != nil {
				return errors.Wrap(err, "deleting teacher assignments")
			}
		}
		return svc.repo.DeleteUser(ctx, usr.ID, tx)
	})
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	uid, err := decodeUID(rp.UID)
	if err != nil {
		return errInvalidToken
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: uid})
	if err != nil {
		return errInvalidToken
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return err
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

func (svc *service) sendWelcomeMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: struct{ Name string }{usr.Name},
	})
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(usr)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			Name, UID, Token string
		}{usr.Name, EncodeUID(usr), token},
	})
}

package user

import (
	"context"

	"github.com/trezcool/learntrack/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service that sends emails synchronously, for tests.
func NewServiceMock(
	db core.DB,
	repo Repository,
	msgRepo MessageDeleter,
	tdataRepo TeacherDataDeleter,
	mailSvc core.EmailService,
) Service {
	return &serviceMock{
		service: service{
			db:        db,
			repo:      repo,
			msgRepo:   msgRepo,
			tdataRepo: tdataRepo,
			mailSvc:   mailSvc,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}

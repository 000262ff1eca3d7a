package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/learntrack/apps/api/echo"
	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/assignment"
	"github.com/trezcool/learntrack/core/course"
	"github.com/trezcool/learntrack/core/messaging"
	"github.com/trezcool/learntrack/core/notification"
	"github.com/trezcool/learntrack/core/user"
	emailsvc "github.com/trezcool/learntrack/services/email"
	logsvc "github.com/trezcool/learntrack/services/logger"
	"github.com/trezcool/learntrack/storage/database"
	pgrepos "github.com/trezcool/learntrack/storage/database/postgres"
	"github.com/trezcool/learntrack/storage/files"
	b2store "github.com/trezcool/learntrack/storage/files/b2"
	localstore "github.com/trezcool/learntrack/storage/files/local"
)

// teacherDataDeleter combines the course and assignment repositories so the
// user service can clear a teacher's data in one transaction.
type teacherDataDeleter struct {
	crsRepo course.Repository
	asgRepo assignment.Repository
}

var _ user.TeacherDataDeleter = teacherDataDeleter{}

func (d teacherDataDeleter) DeleteClassesByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) error {
	return d.crsRepo.DeleteClassesByTeacher(ctx, teacherID, exec...)
}

func (d teacherDataDeleter) DeleteAssignmentsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) error {
	return d.asgRepo.DeleteAssignmentsByTeacher(ctx, teacherID, exec...)
}

func main() {
	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!(conf.Debug || conf.TestMode))

	// set up DB
	sdb, err := setUpDB(conf)
	errAndDie(logger, err)
	defer func() { _ = sdb.Close() }()
	db := database.NewDB(sdb)

	// set up repos
	usrRepo := pgrepos.NewUserRepository(sdb)
	crsRepo := pgrepos.NewCourseRepository(sdb)
	asgRepo := pgrepos.NewAssignmentRepository(sdb)
	notifRepo := pgrepos.NewNotificationRepository(sdb)
	msgRepo := pgrepos.NewMessageRepository(sdb)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	tdataRepo := teacherDataDeleter{crsRepo: crsRepo, asgRepo: asgRepo}
	usrSvc := user.NewService(db, usrRepo, msgRepo, tdataRepo, mailSvc)
	crsSvc := course.NewService(db, crsRepo, usrRepo, notifRepo)
	asgSvc := assignment.NewService(db, asgRepo, crsRepo, usrRepo, notifRepo)
	notifSvc := notification.NewService(notifRepo)
	msgSvc := messaging.NewService(msgRepo, usrRepo, crsRepo)

	// set up file storage
	var fileStore files.Storage
	switch conf.Uploads.Backend {
	case "b2":
		fileStore, err = b2store.NewStorage(
			context.Background(),
			conf.Uploads.B2AccountID,
			conf.Uploads.B2AppKey,
			conf.Uploads.B2Bucket,
		)
	default:
		fileStore, err = localstore.NewStorage(conf.Uploads.Dir)
	}
	errAndDie(logger, err)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Address:       conf.Server.Address(),
			UserSvc:       usrSvc,
			CourseSvc:     crsSvc,
			AssignmentSvc: asgSvc,
			NotifSvc:      notifSvc,
			MessagingSvc:  msgSvc,
			FileStore:     fileStore,
			Logger:        logger,
			SignalShutdown: func() {
				shutdown <- syscall.SIGTERM
			},
		},
	)
	go app.Start()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("server shutdown", err)
	}
}

// setUpDB provisions the app user and database if needed, opens a connection
// and brings the schema up to date.
func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error())
	}
}

// Package dummydb provides in-memory repositories for tests. The repositories
// ignore the optional per-call executor: there are no real transactions, so
// services exercising core.Atomic get a no-op transactor.
package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/assignment"
	"github.com/trezcool/learntrack/core/course"
	"github.com/trezcool/learntrack/core/messaging"
	"github.com/trezcool/learntrack/core/notification"
	"github.com/trezcool/learntrack/core/user"
)

type (
	DB struct {
		user       *userTable
		course     *courseTable
		assignment *assignmentTable
		notif      *notificationTable
		message    *messageTable
	}

	userTable struct {
		sync.RWMutex
		pk    int
		table map[int]*user.User
	}

	courseTable struct {
		sync.RWMutex
		coursePK, classPK, enrollmentPK int
		courses                         map[int]*course.Course
		classes                         map[int]*course.Class
		enrollments                     map[int]*course.Enrollment
	}

	assignmentTable struct {
		sync.RWMutex
		assignmentPK, submissionPK int
		assignments                map[int]*assignment.Assignment
		submissions                map[int]*assignment.Submission
	}

	notificationTable struct {
		sync.RWMutex
		pk    int
		table map[int]*notification.Notification
	}

	messageTable struct {
		sync.RWMutex
		pk    int
		table map[int]*messaging.Message
	}
)

var _ core.DB = (*DB)(nil)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[int]*user.User)},
		course: &courseTable{
			courses:     make(map[int]*course.Course),
			classes:     make(map[int]*course.Class),
			enrollments: make(map[int]*course.Enrollment),
		},
		assignment: &assignmentTable{
			assignments: make(map[int]*assignment.Assignment),
			submissions: make(map[int]*assignment.Submission),
		},
		notif:   &notificationTable{table: make(map[int]*notification.Notification)},
		message: &messageTable{table: make(map[int]*messaging.Message)},
	}
	return db, nil
}

// Reset empties every table; shared fixtures call it between tests.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[int]*user.User)
	db.user.Unlock()

	db.course.Lock()
	db.course.courses = make(map[int]*course.Course)
	db.course.classes = make(map[int]*course.Class)
	db.course.enrollments = make(map[int]*course.Enrollment)
	db.course.Unlock()

	db.assignment.Lock()
	db.assignment.assignments = make(map[int]*assignment.Assignment)
	db.assignment.submissions = make(map[int]*assignment.Submission)
	db.assignment.Unlock()

	db.notif.Lock()
	db.notif.table = make(map[int]*notification.Notification)
	db.notif.Unlock()

	db.message.Lock()
	db.message.table = make(map[int]*messaging.Message)
	db.message.Unlock()
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (db *DB) Begin(ctx context.Context) (core.DBTransactor, error) {
	return noopTx{}, nil
}

type noopTx struct{}

func (noopTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (noopTx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (noopTx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

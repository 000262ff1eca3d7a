package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/learntrack/core/assignment"
	"github.com/trezcool/learntrack/core/course"
	"github.com/trezcool/learntrack/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
	courseID *int,
) user.User {
	t.Helper()

	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, name string) course.Course {
	t.Helper()

	crs, err := repo.CreateCourse(context.Background(), course.Course{Name: name})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateClass(t *testing.T, repo course.Repository, name string, teacherID, courseID int) course.Class {
	t.Helper()

	cls, err := repo.CreateClass(context.Background(), course.Class{
		Name:      name,
		TeacherID: teacherID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func Enroll(t *testing.T, repo course.Repository, studentID, classID int) course.Enrollment {
	t.Helper()

	enr, err := repo.CreateEnrollment(context.Background(), course.Enrollment{
		StudentID:  studentID,
		ClassID:    classID,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return enr
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	title string,
	classID, teacherID, maxScore int,
	dueDate time.Time,
) assignment.Assignment {
	t.Helper()

	asg, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		Title:     title,
		ClassID:   classID,
		TeacherID: teacherID,
		MaxScore:  maxScore,
		DueDate:   dueDate,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

func IntPtr(i int) *int { return &i }

package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CheckCourseNameUniqueness(ctx context.Context, name string, excludedCourses []course.Course, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[int]bool, len(excludedCourses))
	for _, crs := range excludedCourses {
		excluded[crs.ID] = true
	}
	for _, crs := range repo.db.courses {
		if strings.EqualFold(crs.Name, name) && !excluded[crs.ID] {
			return course.ErrCourseExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	if err := repo.CheckCourseNameUniqueness(ctx, crs.Name, nil); err != nil {
		return course.Course{}, err
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.coursePK++
	crs.ID = repo.db.coursePK
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetCourseFilter, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if crs, ok := repo.db.courses[filter.ID]; ok {
			return *crs, nil
		}
		return course.Course{}, course.ErrCourseNotFound
	}
	for _, crs := range repo.db.courses {
		if strings.EqualFold(crs.Name, filter.Name) {
			return *crs, nil
		}
	}
	return course.Course{}, course.ErrCourseNotFound
}

func (repo *courseRepository) QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[crs.ID]; !ok {
		return course.Course{}, course.ErrCourseNotFound
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id int, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.courses, id)
	return nil
}

func (repo *courseRepository) CreateClass(ctx context.Context, cls course.Class, exec ...core.DBExecutor) (course.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.classPK++
	cls.ID = repo.db.classPK
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *courseRepository) GetClass(ctx context.Context, id int, exec ...core.DBExecutor) (course.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return *cls, nil
	}
	return course.Class{}, course.ErrClassNotFound
}

func (repo *courseRepository) QueryClasses(ctx context.Context, filter course.ClassFilter, exec ...core.DBExecutor) ([]course.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var studentClasses map[int]bool
	if filter.StudentID != 0 {
		studentClasses = make(map[int]bool)
		for _, enr := range repo.db.enrollments {
			if enr.StudentID == filter.StudentID {
				studentClasses[enr.ClassID] = true
			}
		}
	}

	classes := make([]course.Class, 0)
	for _, cls := range repo.db.classes {
		if filter.TeacherID != 0 && cls.TeacherID != filter.TeacherID {
			continue
		}
		if filter.CourseID != 0 && cls.CourseID != filter.CourseID {
			continue
		}
		if studentClasses != nil && !studentClasses[cls.ID] {
			continue
		}
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID < classes[j].ID })
	return classes, nil
}

func (repo *courseRepository) DeleteClassesByCourse(ctx context.Context, courseID int, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, cls := range repo.db.classes {
		if cls.CourseID == courseID {
			repo.deleteClass(id)
		}
	}
	return nil
}

func (repo *courseRepository) DeleteClassesByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, cls := range repo.db.classes {
		if cls.TeacherID == teacherID {
			repo.deleteClass(id)
		}
	}
	return nil
}

// deleteClass mimics the FK cascade on enrollments. Callers must hold the lock.
func (repo *courseRepository) deleteClass(id int) {
	delete(repo.db.classes, id)
	for enrID, enr := range repo.db.enrollments {
		if enr.ClassID == id {
			delete(repo.db.enrollments, enrID)
		}
	}
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.enrollments {
		if existing.StudentID == enr.StudentID && existing.ClassID == enr.ClassID {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
	}

	repo.db.enrollmentPK++
	enr.ID = repo.db.enrollmentPK
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, studentID, classID int, exec ...core.DBExecutor) (course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, enr := range repo.db.enrollments {
		if enr.StudentID == studentID && enr.ClassID == classID {
			return *enr, nil
		}
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, filter course.EnrollmentFilter, exec ...core.DBExecutor) ([]course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]course.Enrollment, 0)
	for _, enr := range repo.db.enrollments {
		if filter.ClassID != 0 && enr.ClassID != filter.ClassID {
			continue
		}
		if filter.StudentID != 0 && enr.StudentID != filter.StudentID {
			continue
		}
		enrollments = append(enrollments, *enr)
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].ID < enrollments[j].ID })
	return enrollments, nil
}

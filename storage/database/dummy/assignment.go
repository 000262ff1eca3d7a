package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.assignmentPK++
	asg.ID = repo.db.assignmentPK
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id int, exec ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok {
		return *asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.Filter, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	asgs := make([]assignment.Assignment, 0)
	for _, asg := range repo.db.assignments {
		if filter.ClassID != 0 && asg.ClassID != filter.ClassID {
			continue
		}
		if filter.TeacherID != 0 && asg.TeacherID != filter.TeacherID {
			continue
		}
		asgs = append(asgs, *asg)
	}
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].DueDate.Before(asgs[j].DueDate) })
	return asgs, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, asg := range repo.db.assignments {
		if asg.TeacherID == teacherID {
			// mimic the FK cascade on submissions
			delete(repo.db.assignments, id)
			for subID, sub := range repo.db.submissions {
				if sub.AssignmentID == id {
					delete(repo.db.submissions, subID)
				}
			}
		}
	}
	return nil
}

func (repo *assignmentRepository) UpsertSubmission(ctx context.Context, sub assignment.Submission, exec ...core.DBExecutor) (assignment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID {
			sub.ID = existing.ID
			repo.db.submissions[sub.ID] = &sub
			return sub, nil
		}
	}

	repo.db.submissionPK++
	sub.ID = repo.db.submissionPK
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, id int, exec ...core.DBExecutor) (assignment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return *sub, nil
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, filter assignment.SubmissionFilter, exec ...core.DBExecutor) ([]assignment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]assignment.Submission, 0)
	for _, sub := range repo.db.submissions {
		if filter.AssignmentID != 0 && sub.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.StudentID != 0 && sub.StudentID != filter.StudentID {
			continue
		}
		if filter.Graded != nil && sub.IsGraded() != *filter.Graded {
			continue
		}
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission, exec ...core.DBExecutor) (assignment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.submissions[sub.ID]; !ok {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *assignmentRepository) CountPendingByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	count := 0
	for _, sub := range repo.db.submissions {
		if sub.IsGraded() {
			continue
		}
		if asg, ok := repo.db.assignments[sub.AssignmentID]; ok && asg.TeacherID == teacherID {
			count++
		}
	}
	return count, nil
}

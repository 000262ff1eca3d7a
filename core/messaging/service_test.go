package messaging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/course"
	"github.com/trezcool/learntrack/core/messaging"
	"github.com/trezcool/learntrack/core/user"
	dummydb "github.com/trezcool/learntrack/storage/database/dummy"
	testutil "github.com/trezcool/learntrack/tests"
)

type svcFixture struct {
	usrRepo user.Repository
	crsRepo course.Repository
	svc     messaging.Service

	admin, teacher, other, hero, king user.User
}

func setup(t *testing.T) svcFixture {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	f := svcFixture{
		usrRepo: dummydb.NewUserRepository(db),
		crsRepo: dummydb.NewCourseRepository(db),
	}
	f.svc = messaging.NewService(dummydb.NewMessageRepository(db), f.usrRepo, f.crsRepo)

	f.admin = testutil.CreateUser(t, f.usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, nil)
	f.teacher = testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, nil)
	f.other = testutil.CreateUser(t, f.usrRepo, "Other Teacher", "other@test.cd", "", user.RoleTeacher, nil)
	f.hero = testutil.CreateUser(t, f.usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, nil)
	f.king = testutil.CreateUser(t, f.usrRepo, "King", "king@test.cd", "", user.RoleStudent, nil)

	crs := testutil.CreateCourse(t, f.crsRepo, "Mathematics")
	cls := testutil.CreateClass(t, f.crsRepo, "Calculus I", f.teacher.ID, crs.ID)
	testutil.Enroll(t, f.crsRepo, f.hero.ID, cls.ID)
	return f
}

func TestService_Send(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		actor    user.User
		receiver int
		wantErr  error
	}{
		{name: "self message", actor: f.hero, receiver: f.hero.ID, wantErr: messaging.ErrSelfMessage},
		{name: "unknown receiver", actor: f.hero, receiver: 666, wantErr: messaging.ErrRecipientNotFound},
		{name: "student to student", actor: f.hero, receiver: f.king.ID, wantErr: core.ErrForbidden},
		{name: "student to admin", actor: f.hero, receiver: f.admin.ID, wantErr: core.ErrForbidden},
		{name: "student to teacher", actor: f.hero, receiver: f.teacher.ID},
		{name: "teacher to student", actor: f.teacher, receiver: f.hero.ID},
		{name: "teacher to teacher", actor: f.teacher, receiver: f.other.ID},
		{name: "admin to student", actor: f.admin, receiver: f.king.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := f.svc.Send(ctx, tt.actor, messaging.SendInput{ReceiverID: tt.receiver, Content: "hey"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.actor.ID, msg.SenderID)
			assert.Equal(t, tt.receiver, msg.ReceiverID)
			assert.False(t, msg.IsRead)
		})
	}
}

func TestService_Conversation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.hero, messaging.SendInput{ReceiverID: f.teacher.ID, Content: "question"})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.teacher, messaging.SendInput{ReceiverID: f.hero.ID, Content: "answer"})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.teacher, messaging.SendInput{ReceiverID: f.other.ID, Content: "unrelated"})
	require.NoError(t, err)

	t.Run("unknown other", func(t *testing.T) {
		_, err := f.svc.Conversation(ctx, f.hero, 666)
		assert.ErrorIs(t, err, messaging.ErrRecipientNotFound)
	})

	t.Run("both directions in timestamp order", func(t *testing.T) {
		msgs, err := f.svc.Conversation(ctx, f.hero, f.teacher.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "question", msgs[0].Content)
		assert.Equal(t, "answer", msgs[1].Content)
	})
}

func TestService_Contacts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	contactIDs := func(t *testing.T, actor user.User) []int {
		t.Helper()
		contacts, err := f.svc.Contacts(ctx, actor)
		require.NoError(t, err)
		ids := make([]int, 0, len(contacts))
		for _, c := range contacts {
			ids = append(ids, c.ID)
		}
		return ids
	}

	t.Run("student sees enrolled classes' teachers", func(t *testing.T) {
		assert.ElementsMatch(t, []int{f.teacher.ID}, contactIDs(t, f.hero))
	})

	t.Run("unenrolled student sees no one", func(t *testing.T) {
		assert.Empty(t, contactIDs(t, f.king))
	})

	t.Run("teacher sees enrolled students and admins", func(t *testing.T) {
		assert.ElementsMatch(t, []int{f.hero.ID, f.admin.ID}, contactIDs(t, f.teacher))
	})

	t.Run("admin sees everyone but self", func(t *testing.T) {
		assert.ElementsMatch(t, []int{f.teacher.ID, f.other.ID, f.hero.ID, f.king.ID}, contactIDs(t, f.admin))
	})

	t.Run("unread counts", func(t *testing.T) {
		_, err := f.svc.Send(ctx, f.hero, messaging.SendInput{ReceiverID: f.teacher.ID, Content: "one"})
		require.NoError(t, err)
		_, err = f.svc.Send(ctx, f.hero, messaging.SendInput{ReceiverID: f.teacher.ID, Content: "two"})
		require.NoError(t, err)

		contacts, err := f.svc.Contacts(ctx, f.teacher)
		require.NoError(t, err)
		for _, c := range contacts {
			if c.ID == f.hero.ID {
				assert.Equal(t, 2, c.Unread)
			} else {
				assert.Zero(t, c.Unread)
			}
		}

		require.NoError(t, f.svc.MarkConversationRead(ctx, f.teacher, f.hero.ID))
		contacts, err = f.svc.Contacts(ctx, f.teacher)
		require.NoError(t, err)
		for _, c := range contacts {
			assert.Zero(t, c.Unread)
		}
	})
}

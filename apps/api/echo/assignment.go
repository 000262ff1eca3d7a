package echoapi

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core/assignment"
	"github.com/trezcool/learntrack/core/user"
	"github.com/trezcool/learntrack/storage/files"
)

type assignmentApi struct {
	svc    assignment.Service
	usrSvc user.Service
	store  files.Storage
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc assignment.Service, usrSvc user.Service, store files.Storage) {
	api := assignmentApi{svc: svc, usrSvc: usrSvc, store: store}

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, teacherMiddleware())
	ag.GET("/upcoming", api.queryUpcoming, studentMiddleware())
	ag.GET("/pending-count", api.pendingCount, teacherMiddleware())
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/submissions", api.querySubmissions)
	ag.POST("/:id/submissions", api.submit, studentMiddleware())

	sg := g.Group("/submissions", jwt)
	sg.GET("/graded", api.queryGraded, studentMiddleware())
	sg.POST("/:id/grade", api.grade, teacherMiddleware())
}

// Handlers

// create accepts multipart form data so that teachers can attach a file to
// the assignment in the same request.
func (api *assignmentApi) create(ctx echo.Context) error {
	data := assignment.NewAssignment{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
	}
	data.ClassID, _ = strconv.Atoi(ctx.FormValue("class_id"))
	data.MaxScore, _ = strconv.Atoi(ctx.FormValue("max_score"))
	if due := ctx.FormValue("due_date"); due != "" {
		dueDate, err := time.Parse(time.RFC3339, due)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "due_date must be RFC3339")
		}
		data.DueDate = dueDate
	}

	if fh, err := ctx.FormFile("attachment"); err == nil {
		ref, err := api.saveUpload(ctx, fh)
		if err != nil {
			return err
		}
		data.Attachment = ref
	}

	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

// query lists assignments for the actor: a teacher's own, or a student's
// enrolled classes' assignments with submission status.
func (api *assignmentApi) query(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if actor.IsStudent() {
		asgs, err := api.svc.ForStudent(ctx.Request().Context(), actor.ID)
		if err != nil {
			return errors.Wrap(err, "querying student assignments")
		}
		return ctx.JSON(http.StatusOK, asgs)
	}

	asgs, err := api.svc.ByTeacher(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "querying teacher assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) queryUpcoming(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	asgs, err := api.svc.UpcomingForStudent(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "querying upcoming assignments")
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	asg, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	data := assignment.SubmitInput{
		AssignmentID: id,
		Text:         ctx.FormValue("text"),
	}
	if fh, err := ctx.FormFile("file"); err == nil {
		ref, err := api.saveUpload(ctx, fh)
		if err != nil {
			return err
		}
		data.File = ref
	}
	if err = data.Validate(); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) querySubmissions(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	subs, err := api.svc.Submissions(ctx.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var data assignment.GradeInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeInput")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Grade(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) queryGraded(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	subs, err := api.svc.GradedByStudent(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "querying graded submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assignmentApi) pendingCount(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	count, err := api.svc.PendingCount(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "counting pending submissions")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"pending": count})
}

func (api *assignmentApi) saveUpload(ctx echo.Context, fh *multipart.FileHeader) (string, error) {
	if fh.Size > files.MaxSize {
		return "", files.ErrFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer func() { _ = f.Close() }()

	return api.store.Save(ctx.Request().Context(), fh.Filename, f)
}

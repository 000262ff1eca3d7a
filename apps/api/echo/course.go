package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core/course"
	"github.com/trezcool/learntrack/core/user"
)

type courseApi struct {
	svc    course.Service
	usrSvc user.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc course.Service, usrSvc user.Service) {
	api := courseApi{svc: svc, usrSvc: usrSvc}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.queryCourses)
	cg.POST("", api.createCourse, adminMiddleware())
	cg.GET("/:id", api.retrieveCourse)
	cg.PUT("/:id", api.updateCourse, adminMiddleware())
	cg.DELETE("/:id", api.destroyCourse, adminMiddleware())

	kg := g.Group("/classes", jwt)
	kg.GET("", api.queryClasses)
	kg.POST("", api.createClass, teacherMiddleware())
	kg.GET("/:id", api.retrieveClass)
	kg.POST("/:id/enroll", api.enrollStudent, teacherMiddleware())
	kg.GET("/:id/enrollments", api.queryEnrollments, teacherOrAdminOnly())

	g.GET("/students", api.queryStudents, jwt, teacherMiddleware())
}

func teacherOrAdminOnly() echo.MiddlewareFunc {
	return roleMiddleware(func(claims Claims) bool { return claims.IsTeacher || claims.IsAdmin })
}

// Handlers

func (api *courseApi) createCourse(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	crs, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) queryCourses(ctx echo.Context) error {
	courses, err := api.svc.Courses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieveCourse(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	crs, err := api.svc.GetCourse(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) updateCourse(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	orig, err := api.svc.GetCourse(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(ctx.Request().Context(), orig, api.svc); err != nil {
		return err
	}

	crs, err := api.svc.UpdateCourse(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroyCourse(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.DeleteCourse(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) createClass(ctx echo.Context) error {
	var data course.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cls, err := api.svc.CreateClass(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cls)
}

// queryClasses lists the actor's classes: a teacher's own classes, a
// student's enrolled classes, everything for an admin.
func (api *courseApi) queryClasses(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var classes []course.Class
	switch {
	case actor.IsTeacher():
		classes, err = api.svc.ClassesByTeacher(ctx.Request().Context(), actor.ID)
	case actor.IsStudent():
		classes, err = api.svc.ClassesByStudent(ctx.Request().Context(), actor.ID)
	default:
		var filter course.ClassFilter
		if courseID, cErr := strconv.Atoi(ctx.QueryParam("course_id")); cErr == nil {
			filter.CourseID = courseID
		}
		classes, err = api.svc.Classes(ctx.Request().Context(), filter)
	}
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []course.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *courseApi) retrieveClass(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	cls, err := api.svc.GetClass(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *courseApi) enrollStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var data course.EnrollStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollStudent")
	}
	data.ClassID = id
	if err = data.Validate(); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.svc.EnrollStudent(ctx.Request().Context(), actor, data)
	if err != nil {
		if errors.Cause(err) == course.ErrAlreadyEnrolled {
			// soft outcome, not an error
			return ctx.JSON(http.StatusOK, WarningResponse{Warning: course.ErrAlreadyEnrolled.Error()})
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) queryEnrollments(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.Enrollments(ctx.Request().Context(), course.EnrollmentFilter{ClassID: id})
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *courseApi) queryStudents(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	students, err := api.svc.StudentsByTeacher(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

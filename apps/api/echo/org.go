package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/org"
)

type orgApi struct {
	svc *org.Service
}

func registerOrgAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *org.Service) {
	api := orgApi{svc: svc}

	og := g.Group("/org", jwt)

	og.GET("/institutions", api.queryInstitutions)
	og.POST("/institutions", api.createInstitution, adminMiddleware())
	og.GET("/institutions/:id", api.retrieveInstitution)

	og.GET("/courses", api.queryCourses)
	og.POST("/courses", api.createCourse, adminMiddleware())

	og.GET("/classes", api.queryClasses)
	og.POST("/classes", api.createClass, adminMiddleware())

	og.GET("/batches", api.queryBatches)
	og.POST("/batches", api.createBatch, adminMiddleware())
}

func (api *orgApi) queryInstitutions(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	insts, err := api.svc.QueryInstitutions(ctx.Request().Context(), tenant)
	if err != nil {
		return errors.Wrap(err, "querying institutions")
	}
	return ctx.JSON(http.StatusOK, insts)
}

func (api *orgApi) createInstitution(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	var data org.NewInstitution
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstitution")
	}
	inst, err := api.svc.CreateInstitution(ctx.Request().Context(), tenant, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, inst)
}

func (api *orgApi) retrieveInstitution(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	inst, err := api.svc.GetInstitution(ctx.Request().Context(), tenant, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == org.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting institution")
	}
	return ctx.JSON(http.StatusOK, inst)
}

func (api *orgApi) queryCourses(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	courses, err := api.svc.QueryCourses(ctx.Request().Context(), tenant)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *orgApi) createCourse(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	var data org.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	course, err := api.svc.CreateCourse(ctx.Request().Context(), tenant, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, course)
}

func (api *orgApi) queryClasses(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	classes, err := api.svc.QueryClasses(ctx.Request().Context(), tenant)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *orgApi) createClass(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	var data org.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	class, err := api.svc.CreateClass(ctx.Request().Context(), tenant, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *orgApi) queryBatches(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	batches, err := api.svc.QueryBatches(ctx.Request().Context(), tenant)
	if err != nil {
		return errors.Wrap(err, "querying batches")
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *orgApi) createBatch(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	var data org.NewBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}
	batch, err := api.svc.CreateBatch(ctx.Request().Context(), tenant, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, batch)
}

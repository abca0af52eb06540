package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

type scheduleApi struct {
	svc *schedule.Service
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *schedule.Service) {
	api := scheduleApi{svc: svc}

	ag := g.Group("", jwt)

	// calendar grid
	ag.GET("/calendar-grid", api.retrieveGrid)
	ag.PUT("/calendar-grid", api.upsertGrid, adminMiddleware())

	// terms
	tg := ag.Group("/terms")
	tg.GET("", api.queryTerms)
	tg.POST("", api.createTerm, adminMiddleware())
	tg.GET("/:id", api.retrieveTerm)
	tg.PUT("/:id", api.updateTerm, adminMiddleware())
	tg.DELETE("/:id", api.destroyTerm, adminMiddleware())

	// blocks
	bg := ag.Group("/blocks")
	bg.GET("", api.queryBlocks)
	bg.POST("", api.createBlock, adminMiddleware())
	bg.POST("/check-conflicts", api.checkConflicts)
	bg.GET("/:id", api.retrieveBlock)
	bg.PUT("/:id", api.updateBlock, adminMiddleware())
	bg.POST("/:id/toggle-active", api.toggleBlockActive, adminMiddleware())
	bg.DELETE("/:id", api.destroyBlock, adminMiddleware())

	// week projection
	ag.GET("/timetable/week", api.weekView)
}

// Handlers

func (api *scheduleApi) retrieveGrid(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	grid, err := api.svc.GetGrid(ctx.Request().Context(), tenant)
	if err != nil {
		if errors.Cause(err) == schedule.ErrGridNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting calendar grid")
	}
	return ctx.JSON(http.StatusOK, grid)
}

func (api *scheduleApi) upsertGrid(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	var data schedule.UpsertGrid
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertGrid")
	}

	grid, err := api.svc.UpsertGrid(ctx.Request().Context(), tenant, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grid)
}

func (api *scheduleApi) queryTerms(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	terms, err := api.svc.QueryTerms(ctx.Request().Context(), tenant)
	if err != nil {
		return errors.Wrap(err, "querying terms")
	}
	return ctx.JSON(http.StatusOK, terms)
}

func (api *scheduleApi) createTerm(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	var data schedule.NewTerm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTerm")
	}

	term, err := api.svc.CreateTerm(ctx.Request().Context(), tenant, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, term)
}

func (api *scheduleApi) retrieveTerm(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	term, err := api.svc.GetTerm(ctx.Request().Context(), tenant, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == schedule.ErrTermNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting term")
	}
	return ctx.JSON(http.StatusOK, term)
}

func (api *scheduleApi) updateTerm(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	var data schedule.UpdateTerm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTerm")
	}

	term, err := api.svc.UpdateTerm(ctx.Request().Context(), tenant, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == schedule.ErrTermNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, term)
}

func (api *scheduleApi) destroyTerm(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteTerm(ctx.Request().Context(), tenant, ctx.Param("id")); err != nil {
		if errors.Cause(err) == schedule.ErrTermNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) queryBlocks(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	var filter schedule.BlockFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to BlockFilter")
	}
	var ord Ordering
	ord.Bind(ctx)
	filter.Ordering = ord.Orderings
	filter.Clean()

	var blocks []schedule.Block
	if filter.IsEmpty() {
		blocks, err = api.svc.QueryBlocks(ctx.Request().Context(), tenant)
	} else {
		blocks, err = api.svc.FilterBlocks(ctx.Request().Context(), tenant, filter)
	}
	if err != nil {
		return errors.Wrap(err, "querying blocks")
	}
	return ctx.JSON(http.StatusOK, blocks)
}

func (api *scheduleApi) createBlock(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	var data schedule.NewBlock
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBlock")
	}

	block, err := api.svc.CreateBlock(ctx.Request().Context(), tenant, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, block)
}

func (api *scheduleApi) checkConflicts(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	var data schedule.NewBlock
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBlock")
	}

	reports, err := api.svc.CheckConflicts(ctx.Request().Context(), tenant, data)
	if err != nil {
		return err
	}
	if reports == nil {
		reports = make([]schedule.ConflictReport, 0)
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *scheduleApi) retrieveBlock(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	block, err := api.svc.GetBlock(ctx.Request().Context(), tenant, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == schedule.ErrBlockNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting block")
	}
	return ctx.JSON(http.StatusOK, block)
}

func (api *scheduleApi) updateBlock(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	var data schedule.UpdateBlock
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBlock")
	}

	block, err := api.svc.UpdateBlock(ctx.Request().Context(), tenant, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == schedule.ErrBlockNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, block)
}

func (api *scheduleApi) toggleBlockActive(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	block, err := api.svc.ToggleBlockActive(ctx.Request().Context(), tenant, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == schedule.ErrBlockNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, block)
}

func (api *scheduleApi) destroyBlock(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteBlock(ctx.Request().Context(), tenant, ctx.Param("id")); err != nil {
		if errors.Cause(err) == schedule.ErrBlockNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) weekView(ctx echo.Context) error {
	tenant, err := getContextTenant(ctx)
	if err != nil {
		return err
	}

	scope := schedule.Scope{
		Type: schedule.ScopeType(ctx.QueryParam("scope_type")),
		ID:   ctx.QueryParam("scope_id"),
	}
	weekStart, err := schedule.ParseDate(ctx.QueryParam("week_start"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "week_start", Error: "invalid date, expected YYYY-MM-DD"})
	}

	view, err := api.svc.WeekView(ctx.Request().Context(), tenant, scope, weekStart)
	if err != nil {
		if errors.Cause(err) == schedule.ErrGridNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/listing"
	"github.com/trezcool/schoolportal/core/records"
	"github.com/trezcool/schoolportal/core/user"
)

type recordsAPI struct {
	service *records.Service
}

// registerRecordsAPI serves the CRUD endpoints of every record kind under /api/{kind}.
func registerRecordsAPI(api *echo.Group, conf *core.Config, svc *records.Service) {
	h := recordsAPI{service: svc}
	canManage := permissionMiddleware(conf, user.User.CanManageRecords)

	for _, kind := range records.Kinds {
		grp := api.Group("/" + kind)
		grp.GET("", h.list(kind))
		grp.POST("", h.create(kind), canManage)
		grp.GET("/:id", h.retrieve(kind))
		grp.PUT("/:id", h.update(kind), canManage)
		grp.DELETE("/:id", h.delete(kind), canManage)
	}
}

// bindRecord decodes the JSON object of the request body.
func bindRecord(ctx echo.Context) (records.Record, error) {
	rec := make(records.Record)
	if err := json.NewDecoder(ctx.Request().Body).Decode(&rec); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid JSON object").SetInternal(err)
	}
	return rec, nil
}

func (h *recordsAPI) list(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var params listParams
		params.Bind(ctx)

		recs, err := h.service.Query(ctx.Request().Context(), kind, params.Filter)
		if err != nil {
			return err
		}
		recs = listing.Search(recs, params.Search)
		recs = listing.Sort(recs, params.Orderings...)
		return ctx.JSON(http.StatusOK, recs)
	}
}

func (h *recordsAPI) retrieve(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		rec, err := h.service.Get(ctx.Request().Context(), kind, ctx.Param("id"))
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, rec)
	}
}

func (h *recordsAPI) create(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		rec, err := bindRecord(ctx)
		if err != nil {
			return err
		}
		created, err := h.service.Create(ctx.Request().Context(), kind, rec)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusCreated, created)
	}
}

func (h *recordsAPI) update(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		rec, err := bindRecord(ctx)
		if err != nil {
			return err
		}
		updated, err := h.service.Update(ctx.Request().Context(), kind, ctx.Param("id"), rec)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, updated)
	}
}

func (h *recordsAPI) delete(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if err := h.service.Delete(ctx.Request().Context(), kind, ctx.Param("id")); err != nil {
			return err
		}
		return ctx.NoContent(http.StatusNoContent)
	}
}

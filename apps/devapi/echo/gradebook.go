package echoapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/user"
)

type gradebookAPI struct {
	service *gradebook.Service
	conf    *core.Config
	mailer  core.EmailService
	logger  core.Logger
}

func registerGradebookAPI(api *echo.Group, deps ServerDeps) {
	h := gradebookAPI{service: deps.GradebookSvc, conf: deps.Conf, mailer: deps.Mailer, logger: deps.Logger}
	canEnterMarks := permissionMiddleware(deps.Conf, user.User.CanEnterMarks)

	grp := api.Group("/gradebook")
	grp.GET("/students", h.students)
	grp.GET("/marks", h.marks)
	grp.POST("/save", h.save, canEnterMarks)
	grp.GET("/terms", h.terms)
}

func (h *gradebookAPI) students(ctx echo.Context) error {
	var filter gradebook.StudentFilter
	if err := ctx.Bind(&filter); err != nil {
		return err
	}
	students, err := h.service.Students(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	if students == nil {
		students = []gradebook.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

// marks returns the stored sheet of a key, an empty unlocked one when nothing was saved yet.
func (h *gradebookAPI) marks(ctx echo.Context) error {
	var key gradebook.SheetKey
	if err := ctx.Bind(&key); err != nil {
		return err
	}
	ms, err := h.service.OpenSheet(ctx.Request().Context(), key)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ms.Sheet())
}

func (h *gradebookAPI) save(ctx echo.Context) error {
	var sheet gradebook.Sheet
	if err := ctx.Bind(&sheet); err != nil {
		return err
	}
	saved, err := h.service.SaveSheet(ctx.Request().Context(), sheet)
	if err != nil {
		return err
	}
	if saved.IsLocked {
		h.notifyLocked(ctx.Request().Context(), saved)
	}
	return ctx.JSON(http.StatusOK, saved)
}

// notifyLocked emails the lock notice to the configured recipients.
func (h *gradebookAPI) notifyLocked(ctx context.Context, sheet gradebook.Sheet) {
	to := h.conf.NotifyAddresses()
	if h.mailer == nil || len(to) == 0 {
		return
	}
	name := sheet.SubjectID
	subjects, err := h.service.Subjects(ctx, gradebook.SubjectFilter{ClassID: sheet.ClassID})
	if err != nil {
		h.logger.Warn(fmt.Sprintf("lock notice: %v", err), err, sheet.SheetKey)
	}
	for _, subj := range subjects {
		if subj.ID == sheet.SubjectID && subj.Name != "" {
			name = subj.Name
		}
	}
	h.mailer.SendMessages(gradebook.LockNotice(sheet, name, to...))
}

func (h *gradebookAPI) terms(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, h.service.Terms())
}

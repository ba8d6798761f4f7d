package company

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ohclinic/ohclinic/internal/platform/session"
	"github.com/ohclinic/ohclinic/internal/platform/web"
	"github.com/ohclinic/ohclinic/pkg/pagination"
)

// ListPage is the data for the company_list template.
type ListPage struct {
	Companies []*Company
	Query     string
	Links     pagination.Links
}

// FormPage is the data for the company_form template.
type FormPage struct {
	Company *Company
	Error   string
}

type Handler struct {
	svc   *Service
	flash web.Flasher
}

func NewHandler(svc *Service, flash web.Flasher) *Handler {
	return &Handler{svc: svc, flash: flash}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/company_list", h.List)
	g.POST("/company_list/delete", h.Delete)
	g.GET("/company_form", h.ShowForm)
	g.POST("/company_form", h.SaveForm)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	q := c.QueryParam("q")
	companies, total, err := h.svc.List(c.Request().Context(), q, p)
	if err != nil {
		return web.ErrorPanel(c, "Could not load companies.", "/company_list")
	}
	return web.Render(c, "company_list", "Companies", ListPage{
		Companies: companies,
		Query:     q,
		Links:     p.BuildLinks("/company_list", c.QueryParams(), total),
	})
}

func (h *Handler) ShowForm(c echo.Context) error {
	raw := c.QueryParam("id")
	if raw == "" {
		return web.Render(c, "company_form", "New company", FormPage{Company: &Company{}})
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return web.ErrorPanel(c, "Invalid company id.", "/company_list")
	}
	co, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return web.ErrorPanel(c, "Company not found.", "/company_list")
	}
	return web.Render(c, "company_form", "Edit company", FormPage{Company: co})
}

func (h *Handler) SaveForm(c echo.Context) error {
	var co Company
	if err := c.Bind(&co); err != nil {
		return web.ErrorPanel(c, "The form could not be read.", "/company_list")
	}
	co.ID, _ = strconv.ParseInt(c.FormValue("id"), 10, 64)

	ctx := c.Request().Context()
	var err error
	if co.ID > 0 {
		err = h.svc.Update(ctx, &co)
	} else {
		err = h.svc.Create(ctx, &co)
	}

	switch {
	case err == nil:
		return web.RedirectWithFlash(c, h.flash, "/company_list", session.FlashSuccess, "Company "+co.Name+" saved.")
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrDuplicateName):
		return web.Render(c, "company_form", "Company", FormPage{Company: &co, Error: err.Error()})
	case errors.Is(err, ErrNotFound):
		return web.ErrorPanel(c, "Company not found.", "/company_list")
	default:
		return web.Render(c, "company_form", "Company", FormPage{Company: &co, Error: "Could not save the company."})
	}
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.FormValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return web.ErrorPanel(c, "Invalid company id.", "/company_list")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return web.RedirectWithFlash(c, h.flash, "/company_list", session.FlashError, "Could not delete the company.")
	}
	return web.RedirectWithFlash(c, h.flash, "/company_list", session.FlashSuccess, "Company deleted.")
}

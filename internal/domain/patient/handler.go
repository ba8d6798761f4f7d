package patient

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ohclinic/ohclinic/internal/domain/company"
	"github.com/ohclinic/ohclinic/internal/platform/session"
	"github.com/ohclinic/ohclinic/internal/platform/web"
	"github.com/ohclinic/ohclinic/pkg/pagination"
)

// CompanyLister supplies the employer choices on the occupational history
// form and the company header on rosters.
type CompanyLister interface {
	Get(ctx context.Context, id int64) (*company.Company, error)
	List(ctx context.Context, name string, p pagination.Params) ([]*company.Company, int, error)
}

// ListPage is the data for the patient_list template. Company is set when
// the list is an employee roster.
type ListPage struct {
	Patients []*Patient
	Roster   []RosterEntry
	Company  *company.Company
	Query    string
	Links    pagination.Links
}

// FormPage is the data for the patient_form template.
type FormPage struct {
	Form      Form
	History   []*OccupationalHistory
	Companies []*company.Company
	Error     string
}

type Handler struct {
	svc       *Service
	companies CompanyLister
	flash     web.Flasher
}

func NewHandler(svc *Service, companies CompanyLister, flash web.Flasher) *Handler {
	return &Handler{svc: svc, companies: companies, flash: flash}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patient_list", h.List)
	g.GET("/patient_form", h.ShowForm)
	g.POST("/patient_form", h.SaveForm)
	g.POST("/patient_form/occupational_history", h.AddHistory)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if raw := c.QueryParam("company_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return web.ErrorPanel(c, "Invalid company id.", "/company_list")
		}
		co, err := h.companies.Get(ctx, id)
		if err != nil {
			return web.ErrorPanel(c, "Company not found.", "/company_list")
		}
		roster, err := h.svc.ListByCompany(ctx, id)
		if err != nil {
			return web.ErrorPanel(c, "Could not load employees.", "/company_list")
		}
		return web.Render(c, "patient_list", "Employees of "+co.Name, ListPage{Roster: roster, Company: co})
	}

	p := pagination.FromContext(c)
	q := c.QueryParam("q")
	patients, total, err := h.svc.List(ctx, q, p)
	if err != nil {
		return web.ErrorPanel(c, "Could not load patients.", "/company_list")
	}
	return web.Render(c, "patient_list", "Patients", ListPage{
		Patients: patients,
		Query:    q,
		Links:    p.BuildLinks("/patient_list", c.QueryParams(), total),
	})
}

func (h *Handler) ShowForm(c echo.Context) error {
	raw := c.QueryParam("id")
	if raw == "" {
		return h.renderForm(c, Form{}, "")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return web.ErrorPanel(c, "Invalid patient id.", "/patient_list")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return web.ErrorPanel(c, "Patient not found.", "/patient_list")
	}
	return h.renderForm(c, FormFromPatient(p), "")
}

func (h *Handler) renderForm(c echo.Context, f Form, errMsg string) error {
	ctx := c.Request().Context()
	page := FormPage{Form: f, Error: errMsg}
	if id, _ := strconv.ParseInt(f.ID, 10, 64); id > 0 {
		page.History, _ = h.svc.OccupationalHistory(ctx, id)
		page.Companies, _, _ = h.companies.List(ctx, "", pagination.Params{Limit: pagination.MaxLimit})
	}
	title := "New patient"
	if f.ID != "" {
		title = "Patient record"
	}
	return web.Render(c, "patient_form", title, page)
}

func (h *Handler) SaveForm(c echo.Context) error {
	var f Form
	if err := c.Bind(&f); err != nil {
		return web.ErrorPanel(c, "The form could not be read.", "/patient_list")
	}
	p, err := f.Patient()
	if err == nil {
		if p.ID > 0 {
			err = h.svc.Update(c.Request().Context(), p)
		} else {
			err = h.svc.Create(c.Request().Context(), p)
		}
	}

	switch {
	case err == nil:
		return web.RedirectWithFlash(c, h.flash, "/patient_form?id="+strconv.FormatInt(p.ID, 10),
			session.FlashSuccess, "Patient "+p.FullName()+" saved.")
	case errors.Is(err, ErrInvalid):
		return h.renderForm(c, f, err.Error())
	case errors.Is(err, ErrNotFound):
		return web.ErrorPanel(c, "Patient not found.", "/patient_list")
	default:
		return h.renderForm(c, f, "Could not save the patient.")
	}
}

func (h *Handler) AddHistory(c echo.Context) error {
	var f HistoryForm
	if err := c.Bind(&f); err != nil {
		return web.ErrorPanel(c, "The form could not be read.", "/patient_list")
	}
	hist, err := f.History()
	if errors.Is(err, ErrNotFound) {
		return web.ErrorPanel(c, "Invalid patient id.", "/patient_list")
	}
	back := "/patient_form?id=" + strconv.FormatInt(mustID(f.PatientID), 10)
	if err == nil {
		err = h.svc.AddOccupationalHistory(c.Request().Context(), hist)
	}
	switch {
	case err == nil:
		return web.RedirectWithFlash(c, h.flash, back, session.FlashSuccess, "Occupational history updated.")
	case errors.Is(err, ErrNotFound):
		return web.ErrorPanel(c, "Patient not found.", "/patient_list")
	case errors.Is(err, ErrInvalid):
		return web.RedirectWithFlash(c, h.flash, back, session.FlashError, err.Error())
	default:
		return web.RedirectWithFlash(c, h.flash, back, session.FlashError, "Could not save occupational history.")
	}
}

func mustID(s string) int64 {
	id, _ := optionalID(s)
	return id
}

package surveillance

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ohclinic/ohclinic/internal/domain/company"
	"github.com/ohclinic/ohclinic/internal/domain/patient"
	"github.com/ohclinic/ohclinic/internal/platform/auth"
	"github.com/ohclinic/ohclinic/internal/platform/session"
	"github.com/ohclinic/ohclinic/internal/platform/web"
)

// CompanyGetter resolves the company a list or form is scoped to.
type CompanyGetter interface {
	Get(ctx context.Context, id int64) (*company.Company, error)
}

// ExaminerDefaulter supplies the examiner name of a new examination.
type ExaminerDefaulter interface {
	ExaminerName(ctx context.Context, u session.User) string
}

// FormPage is the data for the surveillance_form template.
type FormPage struct {
	Input SaveInput
	// Action posts back with the query the form was opened with, so the
	// save can fall back to its patient_id and company_id.
	Action  string
	Patient *patient.Patient
	Company *company.Company
	Error   string

	Symptoms    []Item
	Systems     []Item
	Conclusions []Item

	Chemicals          []string
	BiologicalOptions  []string
	ExaminationTypes   []string
	FitnessChoices     []string
	RespiratorChoices  []string
	RecommendationList []string
}

// ListPage is the data for the surveillance_list template.
type ListPage struct {
	Rows      []ListRow
	Company   *company.Company
	PatientID int64
	From      string
	To        string
	ExportURL string
}

type Handler struct {
	svc       *Service
	patients  PatientDirectory
	companies CompanyGetter
	examiner  ExaminerDefaulter
	flash     web.Flasher
}

func NewHandler(svc *Service, patients PatientDirectory, companies CompanyGetter, examiner ExaminerDefaulter, flash web.Flasher) *Handler {
	return &Handler{svc: svc, patients: patients, companies: companies, examiner: examiner, flash: flash}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/surveillance_form", h.ShowForm)
	g.POST("/surveillance_form", h.SaveForm)
	g.GET("/surveillance_list", h.List)
	g.GET("/surveillance_list/export.xlsx", h.Export)
	g.POST("/surveillance_list/delete", h.Delete, auth.RequireRole(session.RoleDoctor))
}

func newFormPage(in SaveInput) FormPage {
	return FormPage{
		Input:              in,
		Symptoms:           in.History.Items(),
		Systems:            in.Physical.Systems(),
		Conclusions:        in.Conclusion.Items(),
		Chemicals:          ChemicalOptions,
		BiologicalOptions:  BiologicalExposureOptions,
		ExaminationTypes:   ExaminationTypeOptions,
		FitnessChoices:     FitnessOptions,
		RespiratorChoices:  RespiratorResultOptions,
		RecommendationList: RecommendationOptions,
	}
}

// ShowForm pre-fills a new examination for the patient in the query.
func (h *Handler) ShowForm(c echo.Context) error {
	ctx := c.Request().Context()
	patientID := ParseID(c.QueryParam("patient_id"))
	if patientID == 0 {
		return web.ErrorPanel(c, "Select a patient before starting an examination.", "/patient_list")
	}

	in := SaveInput{
		PatientID:       strconv.FormatInt(patientID, 10),
		CompanyID:       c.QueryParam("company_id"),
		ExaminationDate: time.Now().Format(dateInputLayout),
	}
	if rc, err := session.FromContext(c); err == nil {
		in.ExaminerName = h.examiner.ExaminerName(ctx, rc.User)
	}
	return h.renderForm(c, in, "")
}

func (h *Handler) renderForm(c echo.Context, in SaveInput, errMsg string) error {
	ctx := c.Request().Context()
	page := newFormPage(in)
	page.Error = errMsg
	page.Action = formAction(c)

	patientID := ParseID(in.PatientID)
	if patientID == 0 {
		patientID = ParseID(c.QueryParam("patient_id"))
	}
	p, err := h.patients.Get(ctx, patientID)
	if err != nil {
		return web.ErrorPanel(c, "Patient not found.", "/patient_list")
	}
	page.Patient = p
	if page.Input.Workplace == "" {
		if oh, err := h.patients.CurrentOccupationalHistory(ctx, patientID); err == nil && oh != nil {
			page.Input.Workplace = oh.CompanyName
		}
	}
	if id := ParseID(in.CompanyID); id > 0 {
		page.Company, _ = h.companies.Get(ctx, id)
	}
	return web.Render(c, "surveillance_form", "Medical surveillance: "+p.FullName(), page)
}

func formAction(c echo.Context) string {
	if q := c.Request().URL.RawQuery; q != "" {
		return "/surveillance_form?" + q
	}
	return "/surveillance_form"
}

func (h *Handler) SaveForm(c echo.Context) error {
	var in SaveInput
	if err := c.Bind(&in); err != nil {
		return web.ErrorPanel(c, "The form could not be read.", "/surveillance_list")
	}

	res, err := h.svc.Save(c.Request().Context(), &in, h.query(c))
	var primary *PrimaryWriteError
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation) && ParseID(in.PatientID) == 0 && ParseID(c.QueryParam("patient_id")) == 0:
		return web.ErrorPanel(c, "No patient was selected, nothing was saved.", "/patient_list")
	case errors.Is(err, ErrValidation):
		return h.renderForm(c, in, err.Error())
	case errors.As(err, &primary):
		return h.renderForm(c, in, "The examination could not be saved. Please try again.")
	default:
		return h.renderForm(c, in, "The examination could not be saved.")
	}

	for _, w := range res.Warnings {
		web.AddFlash(c, h.flash, session.FlashWarning, "Saved without "+dependentLabel(w.Dependent)+".")
	}
	msg := "Examination " + strconv.FormatInt(res.SurveillanceID, 10) + " saved."
	if res.RedirectErr != nil {
		web.AddFlash(c, h.flash, session.FlashSuccess, msg)
		return web.ErrorPanel(c, res.RedirectErr.Error()+". Open the company list to continue.",
			"/surveillance_list?patient_id="+strconv.FormatInt(res.PatientID, 10))
	}
	if res.NotFit {
		msg += " The worker was assessed not fit; complete the medical removal protection form."
	}
	return web.RedirectWithFlash(c, h.flash, res.Redirect, session.FlashSuccess, msg)
}

func dependentLabel(d Dependent) string {
	switch d {
	case DependentTargetOrgan:
		return "target organ results"
	case DependentBiological:
		return "biological monitoring results"
	case DependentFitness:
		return "respirator fitness results"
	case DependentConclusion:
		return "the conclusion"
	case DependentRecommendation:
		return "the recommendation"
	}
	return string(d)
}

// query returns the GET parameters captured with the session, falling back
// to the raw URL.
func (h *Handler) query(c echo.Context) url.Values {
	if rc, err := session.FromContext(c); err == nil && rc.Query != nil {
		return rc.Query
	}
	return c.QueryParams()
}

func (h *Handler) filter(c echo.Context) (Filter, error) {
	f := Filter{
		CompanyID: ParseID(c.QueryParam("company_id")),
		PatientID: ParseID(c.QueryParam("patient_id")),
	}
	var err error
	if f.From, err = parseDate("from date", c.QueryParam("from")); err != nil {
		return f, err
	}
	if f.To, err = parseDate("to date", c.QueryParam("to")); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	f, err := h.filter(c)
	if err != nil {
		return web.ErrorPanel(c, err.Error(), "/surveillance_list")
	}

	page := ListPage{
		PatientID: f.PatientID,
		From:      c.QueryParam("from"),
		To:        c.QueryParam("to"),
		ExportURL: "/surveillance_list/export.xlsx?" + c.QueryParams().Encode(),
	}
	title := "Medical surveillance"
	if f.CompanyID > 0 {
		co, err := h.companies.Get(ctx, f.CompanyID)
		if err != nil {
			return web.ErrorPanel(c, "Company not found.", "/company_list")
		}
		page.Company = co
		title += ": " + co.Name
	}

	page.Rows, err = h.svc.List(ctx, f)
	if err != nil {
		return web.ErrorPanel(c, "Could not load surveillance records.", "/company_list")
	}
	return web.Render(c, "surveillance_list", title, page)
}

func (h *Handler) Export(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return web.ErrorPanel(c, err.Error(), "/surveillance_list")
	}
	rows, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return web.ErrorPanel(c, "Could not load surveillance records.", "/surveillance_list")
	}
	data, err := ExportXLSX(rows)
	if err != nil {
		return web.ErrorPanel(c, "Could not build the spreadsheet.", "/surveillance_list")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=surveillance.xlsx")
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) Delete(c echo.Context) error {
	back := "/surveillance_list"
	companyID := ParseID(c.FormValue("company_id"))
	patientID := ParseID(c.FormValue("patient_id"))
	if companyID > 0 {
		back = "/surveillance_list?company_id=" + strconv.FormatInt(companyID, 10)
		if patientID > 0 {
			back = ListURL(companyID, patientID)
		}
	}

	id := ParseID(c.FormValue("surveillance_id"))
	if id == 0 {
		return web.ErrorPanel(c, "Invalid surveillance id.", back)
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return web.ErrorPanel(c, "Surveillance record not found.", back)
		}
		return web.ErrorPanel(c, "The surveillance record could not be deleted.", back)
	}
	return web.RedirectWithFlash(c, h.flash, back, session.FlashSuccess,
		"Surveillance record "+strconv.FormatInt(id, 10)+" deleted.")
}

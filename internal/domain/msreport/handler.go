package msreport

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ohclinic/ohclinic/internal/domain/company"
	"github.com/ohclinic/ohclinic/internal/platform/pdf"
	"github.com/ohclinic/ohclinic/internal/platform/session"
	"github.com/ohclinic/ohclinic/internal/platform/web"
)

// DocumentName is the document template of the report.
const DocumentName = "ms_report_doc"

// Page is the data for the ms_report template.
type Page struct {
	Company     *company.Company
	Form        Input
	Indications []Indication
	Document    *Document
	Error       string
}

type Handler struct {
	svc    *Service
	docs   web.DocumentRenderer
	pdf    pdf.Renderer
	flash  web.Flasher
	logger zerolog.Logger
}

func NewHandler(svc *Service, docs web.DocumentRenderer, renderer pdf.Renderer, flash web.Flasher, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, docs: docs, pdf: renderer, flash: flash, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ms_report", h.Show)
	g.POST("/ms_report", h.Save)
	g.GET("/generate_ms_report_pdf", h.GeneratePDF)
}

func companyID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func formFromReport(r *Report) Input {
	in := Input{CompanyID: strconv.FormatInt(r.CompanyID, 10)}
	in.Indications = r.Indications
	in.OthersDetails = r.OthersDetails
	in.CHRAReportNo = r.CHRAReportNo
	if r.CHRADate != nil {
		in.CHRADate = r.CHRADate.Format(dateInputLayout)
	}
	in.AssessorName = r.AssessorName
	in.DecisionSummary = r.DecisionSummary
	in.RecommendationsSummary = r.RecommendationsSummary
	return in
}

func (h *Handler) Show(c echo.Context) error {
	id := companyID(c.QueryParam("company_id"))
	if id == 0 {
		return web.ErrorPanel(c, "Invalid company id.", "/company_list")
	}
	return h.render(c, id, nil, "")
}

func (h *Handler) render(c echo.Context, id int64, form *Input, errMsg string) error {
	ctx := c.Request().Context()
	doc, err := h.svc.Document(ctx, id)
	if err != nil {
		return web.ErrorPanel(c, "Company not found.", "/company_list")
	}

	page := Page{Indications: Indications, Document: doc, Error: errMsg}
	page.Company, _ = h.svc.companies.Get(ctx, id)
	switch {
	case form != nil:
		page.Form = *form
	default:
		rep, err := h.svc.Latest(ctx, id)
		if err != nil {
			h.logger.Warn().Err(err).Int64("company_id", id).Msg("ms report metadata lookup failed")
		}
		if rep != nil {
			page.Form = formFromReport(rep)
		} else {
			page.Form = Input{CompanyID: strconv.FormatInt(id, 10)}
		}
	}
	return web.Render(c, "ms_report", "Medical surveillance report", page)
}

func (h *Handler) Save(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return web.ErrorPanel(c, "The form could not be read.", "/company_list")
	}
	id := companyID(in.CompanyID)
	if id == 0 {
		return web.ErrorPanel(c, "Invalid company id.", "/company_list")
	}

	_, err := h.svc.Save(c.Request().Context(), id, in)
	switch {
	case err == nil:
		return web.RedirectWithFlash(c, h.flash, "/ms_report?company_id="+strconv.FormatInt(id, 10),
			session.FlashSuccess, "Report details saved.")
	case errors.Is(err, company.ErrNotFound):
		return web.ErrorPanel(c, "Company not found.", "/company_list")
	case errors.Is(err, ErrInvalid):
		return h.render(c, id, &in, err.Error())
	default:
		h.logger.Error().Err(err).Int64("company_id", id).Msg("ms report save failed")
		return h.render(c, id, &in, "The report details could not be saved.")
	}
}

func (h *Handler) GeneratePDF(c echo.Context) error {
	ctx := c.Request().Context()
	id := companyID(c.QueryParam("company_id"))
	if id == 0 {
		return web.ErrorPanel(c, "Invalid company id.", "/company_list")
	}
	back := "/ms_report?company_id=" + strconv.FormatInt(id, 10)

	doc, err := h.svc.Document(ctx, id)
	if err != nil {
		return web.ErrorPanel(c, "Company not found.", "/company_list")
	}
	html, err := h.docs.Document(DocumentName, doc)
	if err != nil {
		h.logger.Error().Err(err).Int64("company_id", id).Msg("ms report document failed")
		return web.ErrorPanel(c, "The report could not be prepared.", back)
	}
	out, err := h.pdf.Render(ctx, html)
	if err != nil {
		h.logger.Error().Err(err).Int64("company_id", id).Msg("ms report pdf failed")
		return web.ErrorPanel(c, "The PDF could not be generated. Please try again.", back)
	}
	return web.PDF(c, "ms_report_"+strconv.FormatInt(id, 10)+".pdf", out)
}

package usechh

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ohclinic/ohclinic/internal/domain/surveillance"
	"github.com/ohclinic/ohclinic/internal/platform/pdf"
	"github.com/ohclinic/ohclinic/internal/platform/web"
)

// Document template names.
const (
	USECHH1Document = "usechh1"
	MRPDocument     = "mrp_letter"
)

const listURL = "/surveillance_list"

// MRPPage is the data for the mrp_form template.
type MRPPage struct {
	Form  MRPInput
	Error string
}

type Handler struct {
	svc    *Service
	docs   web.DocumentRenderer
	pdf    pdf.Renderer
	logger zerolog.Logger
}

func NewHandler(svc *Service, docs web.DocumentRenderer, renderer pdf.Renderer, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, docs: docs, pdf: renderer, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/usechh1_view", h.View)
	g.GET("/generate_usechh1_pdf", h.GeneratePDF)
	g.GET("/mrp_form", h.MRPForm)
	g.POST("/generate_mrp_pdf", h.GenerateMRP)
}

// load reads the examination named by the query, or renders the error panel
// and returns nil.
func (h *Handler) load(c echo.Context) (*USECHH1, error) {
	sid := surveillance.ParseID(c.QueryParam("surveillance_id"))
	if sid == 0 {
		return nil, web.ErrorPanel(c, "A valid surveillance id is required.", listURL)
	}
	declID, _ := strconv.ParseInt(c.QueryParam("declaration_id"), 10, 64)

	doc, err := h.svc.USECHH1(c.Request().Context(), sid, declID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, web.ErrorPanel(c, "Surveillance record not found.", listURL)
		}
		h.logger.Error().Err(err).Int64("surveillance_id", sid).Msg("USECHH 1 lookup failed")
		return nil, web.ErrorPanel(c, "The surveillance record could not be loaded.", listURL)
	}
	return doc, nil
}

// View shows USECHH 1 as a standalone HTML document.
func (h *Handler) View(c echo.Context) error {
	doc, err := h.load(c)
	if doc == nil {
		return err
	}
	html, err := h.docs.Document(USECHH1Document, doc)
	if err != nil {
		h.logger.Error().Err(err).Int64("surveillance_id", doc.Record.SurveillanceID).Msg("USECHH 1 render failed")
		return web.ErrorPanel(c, "The document could not be prepared.", listURL)
	}
	return c.HTML(http.StatusOK, html)
}

func (h *Handler) GeneratePDF(c echo.Context) error {
	doc, err := h.load(c)
	if doc == nil {
		return err
	}
	sid := doc.Record.SurveillanceID
	html, err := h.docs.Document(USECHH1Document, doc)
	if err != nil {
		h.logger.Error().Err(err).Int64("surveillance_id", sid).Msg("USECHH 1 render failed")
		return web.ErrorPanel(c, "The document could not be prepared.", listURL)
	}
	out, err := h.pdf.Render(c.Request().Context(), html)
	if err != nil {
		h.logger.Error().Err(err).Int64("surveillance_id", sid).Msg("USECHH 1 pdf failed")
		return web.ErrorPanel(c, "The PDF could not be generated. Please try again.",
			"/usechh1_view?surveillance_id="+strconv.FormatInt(sid, 10))
	}
	return web.PDF(c, "usechh1_"+strconv.FormatInt(sid, 10)+".pdf", out)
}

func (h *Handler) MRPForm(c echo.Context) error {
	in := MRPInput{
		SurveillanceID: c.QueryParam("surveillance_id"),
		PatientName:    c.QueryParam("patient_name"),
		EmployerName:   c.QueryParam("employer_name"),
	}
	form, err := h.svc.PrefillMRP(c.Request().Context(), in)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalid):
		return web.ErrorPanel(c, "A valid surveillance id is required.", listURL)
	case errors.Is(err, ErrNotFound):
		return web.ErrorPanel(c, "Surveillance record not found.", listURL)
	default:
		h.logger.Error().Err(err).Str("surveillance_id", in.SurveillanceID).Msg("MRP prefill failed")
		return web.ErrorPanel(c, "The surveillance record could not be loaded.", listURL)
	}
	return web.Render(c, "mrp_form", "Medical removal protection", MRPPage{Form: form})
}

func (h *Handler) GenerateMRP(c echo.Context) error {
	var in MRPInput
	if err := c.Bind(&in); err != nil {
		return web.ErrorPanel(c, "The form could not be read.", listURL)
	}
	ctx := c.Request().Context()

	letter, err := h.svc.MRPLetter(ctx, in)
	if err != nil {
		if errors.Is(err, ErrInvalid) {
			return web.Render(c, "mrp_form", "Medical removal protection", MRPPage{Form: in, Error: err.Error()})
		}
		return web.ErrorPanel(c, "The letter could not be prepared.", listURL)
	}
	html, err := h.docs.Document(MRPDocument, letter)
	if err != nil {
		h.logger.Error().Err(err).Msg("MRP letter render failed")
		return web.ErrorPanel(c, "The letter could not be prepared.", listURL)
	}
	out, err := h.pdf.Render(ctx, html)
	if err != nil {
		h.logger.Error().Err(err).Msg("MRP letter pdf failed")
		return web.Render(c, "mrp_form", "Medical removal protection",
			MRPPage{Form: in, Error: "The PDF could not be generated. Please try again."})
	}
	return web.PDF(c, "mrp_letter.pdf", out)
}

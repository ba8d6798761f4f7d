package blobstore

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ohclinic/ohclinic/internal/platform/session"
	"github.com/ohclinic/ohclinic/internal/platform/web"
)

// Handler accepts header document uploads from the company form.
type Handler struct {
	store  Store
	flash  web.Flasher
	logger zerolog.Logger
}

func NewHandler(store Store, flash web.Flasher, logger zerolog.Logger) *Handler {
	return &Handler{store: store, flash: flash, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/company_form/header_document", h.handleUpload)
	g.POST("/company_form/header_document/delete", h.handleDelete)
}

func (h *Handler) companyID(c echo.Context) (int64, string) {
	id, err := strconv.ParseInt(c.FormValue("company_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, "/company_list"
	}
	return id, "/company_form?id=" + strconv.FormatInt(id, 10)
}

func (h *Handler) handleUpload(c echo.Context) error {
	id, back := h.companyID(c)
	if id == 0 {
		return web.ErrorPanel(c, "Invalid company id.", back)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return web.ErrorPanel(c, "Choose a PDF or JPEG file to upload.", back)
	}
	src, err := file.Open()
	if err != nil {
		return web.ErrorPanel(c, "The uploaded file could not be read.", back)
	}
	defer src.Close()

	meta, err := h.store.Save(c.Request().Context(), id, file.Filename, src)
	switch {
	case err == nil:
	case errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrInvalidContentType), errors.Is(err, ErrMissingFileName):
		return web.ErrorPanel(c, err.Error(), back)
	default:
		h.logger.Error().Err(err).Int64("company_id", id).Msg("header document upload failed")
		return web.ErrorPanel(c, "The header document could not be stored.", back)
	}

	h.logger.Info().
		Int64("company_id", id).
		Str("content_type", meta.ContentType).
		Int64("size", meta.Size).
		Str("sha256", meta.Hash).
		Msg("header document stored")
	return web.RedirectWithFlash(c, h.flash, back, session.FlashSuccess, "Header document uploaded.")
}

func (h *Handler) handleDelete(c echo.Context) error {
	id, back := h.companyID(c)
	if id == 0 {
		return web.ErrorPanel(c, "Invalid company id.", back)
	}
	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return web.ErrorPanel(c, "This company has no header document.", back)
		}
		h.logger.Error().Err(err).Int64("company_id", id).Msg("header document delete failed")
		return web.ErrorPanel(c, "The header document could not be removed.", back)
	}
	return web.RedirectWithFlash(c, h.flash, back, session.FlashSuccess, "Header document removed.")
}

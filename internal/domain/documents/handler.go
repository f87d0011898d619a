package documents

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/samersec/deWin-i/internal/platform/auth"
	"github.com/samersec/deWin-i/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patient := api.Group("", auth.RequireRole(auth.RolePatient))
	patient.POST("/documents", h.Upload)
	patient.GET("/documents", h.ListMine)
	patient.DELETE("/documents/:id", h.Delete)

	both := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	both.GET("/documents/:id/download", h.Download)

	doctor := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/patients/:patient_id/documents", h.ListForPatient)
}

func (h *Handler) Upload(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "a file field is required")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}
	defer src.Close()

	d, err := h.svc.Upload(c.Request().Context(), ident.ID, fh.Filename,
		fh.Header.Get(echo.HeaderContentType), fh.Size, src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) Download(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	ident := auth.IdentityFromContext(c.Request().Context())
	// patients download their own files; doctors may review any patient's
	if ident.Role == auth.RolePatient && d.OwnerID != ident.ID {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}

	_, rc, err := h.svc.Open(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, d.FileName))
	return c.Stream(http.StatusOK, d.ContentType, rc)
}

func (h *Handler) Delete(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil || d.OwnerID != ident.ID {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListMine(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	return h.list(c, ident.ID)
}

func (h *Handler) ListForPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return h.list(c, patientID)
}

func (h *Handler) list(c echo.Context, ownerID uuid.UUID) error {
	pg := pagination.FromContext(c)
	docs, total, err := h.svc.ListForOwner(c.Request().Context(), ownerID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(docs, total, pg.Limit, pg.Offset))
}

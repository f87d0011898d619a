package triage

import (
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
	patient.POST("/diagnose", h.Diagnose)
	patient.GET("/triage-reports", h.ListMine)

	both := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	both.GET("/triage-reports/:id", h.Get)

	doctor := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/patients/:patient_id/triage-reports", h.ListForPatient)
}

func (h *Handler) Diagnose(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	var in struct {
		Symptoms string `json:"symptoms"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rep, err := h.svc.Diagnose(c.Request().Context(), ident.ID, in.Symptoms)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rep, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}

	ident := auth.IdentityFromContext(c.Request().Context())
	if ident.Role == auth.RolePatient && rep.PatientID != ident.ID {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	return c.JSON(http.StatusOK, rep)
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

func (h *Handler) list(c echo.Context, patientID uuid.UUID) error {
	pg := pagination.FromContext(c)
	reports, total, err := h.svc.ListForPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(reports, total, pg.Limit, pg.Offset))
}

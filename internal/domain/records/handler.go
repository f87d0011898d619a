package records

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
	doctor := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.POST("/records", h.Create)
	doctor.PUT("/records/:id", h.Update)
	doctor.DELETE("/records/:id", h.Delete)
	doctor.GET("/patients/:patient_id/records", h.ListForPatient)

	patient := api.Group("", auth.RequireRole(auth.RolePatient))
	patient.GET("/records", h.ListMine)

	both := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	both.GET("/records/:id", h.Get)
}

func (h *Handler) Create(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	var rec MedicalRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// the authoring doctor is always the caller
	rec.DoctorID = ident.ID

	if err := h.svc.Create(c.Request().Context(), &rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}

	ident := auth.IdentityFromContext(c.Request().Context())
	// patients see their own chart; doctors see records they authored
	if ident.Role == auth.RolePatient && rec.PatientID != ident.ID {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	if ident.Role == auth.RoleDoctor && rec.DoctorID != ident.ID {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Update(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	existing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	if existing.DoctorID != ident.ID {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}

	var rec MedicalRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec.ID = id
	rec.PatientID = existing.PatientID
	rec.DoctorID = existing.DoctorID
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = existing.RecordedAt
	}

	if err := h.svc.Update(c.Request().Context(), &rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Delete(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	existing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	if existing.DoctorID != ident.ID {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
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

func (h *Handler) list(c echo.Context, patientID uuid.UUID) error {
	pg := pagination.FromContext(c)
	recs, total, err := h.svc.ListForPatient(c.Request().Context(), patientID, c.QueryParam("type"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(recs, total, pg.Limit, pg.Offset))
}

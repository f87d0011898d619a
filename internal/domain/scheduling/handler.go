package scheduling

import (
	"errors"
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
	patient.POST("/appointments", h.Book)

	both := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	both.GET("/appointments", h.List)
	both.GET("/appointments/:id", h.Get)
	both.PATCH("/appointments/:id/status", h.UpdateStatus)
}

func (h *Handler) Book(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// the booking patient is always the caller
	a.PatientID = ident.ID

	if err := h.svc.Book(c.Request().Context(), &a); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	if !h.mayView(c, a) {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	pg := pagination.FromContext(c)

	var (
		appts []*Appointment
		total int
		err   error
	)
	if ident.Role == auth.RoleDoctor {
		appts, total, err = h.svc.ListForDoctor(c.Request().Context(), ident.ID, pg.Limit, pg.Offset)
	} else {
		appts, total, err = h.svc.ListForPatient(c.Request().Context(), ident.ID, pg.Limit, pg.Offset)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var in struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	if !h.mayView(c, a) {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	// patients may only cancel; the doctor drives the rest of the lifecycle
	if ident.Role == auth.RolePatient && in.Status != StatusCancelled {
		return echo.NewHTTPError(http.StatusForbidden, "patients may only cancel appointments")
	}

	a, err = h.svc.UpdateStatus(c.Request().Context(), id, in.Status)
	if err != nil {
		if errors.Is(err, ErrBadTransition) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

// mayView restricts appointments to their two participants. Outsiders get a
// 404 rather than a 403 so IDs cannot be probed.
func (h *Handler) mayView(c echo.Context, a *Appointment) bool {
	ident := auth.IdentityFromContext(c.Request().Context())
	return a.PatientID == ident.ID || a.DoctorID == ident.ID
}

package visit

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/visitdesk/visitdesk/internal/platform/auth"
	"github.com/visitdesk/visitdesk/internal/platform/response"
	"github.com/visitdesk/visitdesk/pkg/pagination"
)

const (
	msgCreated       = "Appointment added successfully"
	msgUpdated       = "Appointment updated successfully"
	msgFetched       = "Appointment fetched successfully"
	msgStatusUpdated = "Status updated successfully"
	msgNotFound      = "Appointment not found"
	msgNotUpdated    = "Status not updated"
	msgNotAllowed    = "Status change not allowed"
	msgBadPatient    = "patientId does not reference an existing patient"
	msgBadBody       = "Invalid request body"
	msgBadID         = "id must be a positive integer"
	msgBadStatus     = "status must be one of [pending, confirm, complete, cancel]"
)

// Policy holds the HTTP statuses chosen for visit lookups that match nothing.
type Policy struct {
	NotFoundStatus  int
	UnmatchedStatus int
}

func DefaultPolicy() Policy {
	return Policy{NotFoundStatus: http.StatusBadRequest, UnmatchedStatus: http.StatusUnauthorized}
}

type Handler struct {
	svc    *Service
	policy Policy
}

func NewHandler(svc *Service, policy Policy) *Handler {
	return &Handler{svc: svc, policy: policy}
}

// RegisterRoutes mounts the clinician endpoints on clinician and the
// patient listing on patient. Both groups must already carry their role guard.
func (h *Handler) RegisterRoutes(clinician, patient *echo.Group) {
	clinician.POST("/visit", h.Create)
	clinician.GET("/visit/:id", h.Get)
	clinician.PUT("/visit/:id", h.Update)
	clinician.PATCH("/visit/:id", h.ChangeStatus)
	clinician.POST("/visits", h.List)

	patient.POST("/visits", h.List)
}

type listResponse struct {
	*pagination.Response
	Message string `json:"message"`
}

func (h *Handler) List(c echo.Context) error {
	caller, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, auth.MsgNoToken)
	}
	var req ListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	page, err := h.svc.List(c.Request().Context(), caller, req)
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, listResponse{Response: page})
}

func (h *Handler) Create(c echo.Context) error {
	caller, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, auth.MsgNoToken)
	}
	var in Input
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	if _, err := h.svc.Create(c.Request().Context(), caller, in); err != nil {
		return h.mapErr(err)
	}
	return response.Created(c, msgCreated, nil)
}

func (h *Handler) Get(c echo.Context) error {
	caller, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, auth.MsgNoToken)
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.Get(c.Request().Context(), caller, id)
	if err != nil {
		return h.mapErr(err)
	}
	return response.OK(c, msgFetched, v)
}

func (h *Handler) Update(c echo.Context) error {
	caller, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, auth.MsgNoToken)
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	v, err := h.svc.Update(c.Request().Context(), caller, id, in)
	if err != nil {
		return h.mapErr(err)
	}
	return response.OK(c, msgUpdated, v)
}

func (h *Handler) ChangeStatus(c echo.Context) error {
	caller, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, auth.MsgNoToken)
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in StatusInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	if err := h.svc.ChangeStatus(c.Request().Context(), caller, id, in.Status); err != nil {
		return h.mapErr(err)
	}
	return response.Ack(c, msgStatusUpdated)
}

func (h *Handler) mapErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return response.NewStatusError(h.policy.NotFoundStatus, msgNotFound, err)
	case errors.Is(err, ErrNotOwned):
		return response.NewStatusError(h.policy.UnmatchedStatus, msgNotUpdated, err)
	case errors.Is(err, ErrTransitionNotAllowed):
		return response.NewStatusError(http.StatusConflict, msgNotAllowed, err)
	case errors.Is(err, ErrUnknownPatient):
		return response.NewValidationError(response.FieldError{Field: "patientId", Message: msgBadPatient})
	}
	return err
}

func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgBadBody)
	}
	return c.Validate(dst)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, msgBadID)
	}
	return id, nil
}

package identity

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/visitdesk/visitdesk/internal/platform/auth"
	"github.com/visitdesk/visitdesk/internal/platform/blobstore"
	"github.com/visitdesk/visitdesk/internal/platform/response"
)

const (
	msgLoggedIn       = "Login successful"
	msgBadCredentials = "Invalid email or password"
	msgBadBody        = "Invalid request body"
	msgProfileUpdated = "Profile updated successfully"
	msgAccountGone    = "Account not found"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts login on api and the profile endpoints on the
// role-guarded clinician and patient groups.
func (h *Handler) RegisterRoutes(api, clinician, patient *echo.Group) {
	api.POST("/login", h.Login)

	clinician.GET("/profile", h.ClinicianProfile)
	clinician.PUT("/profile", h.UpdateClinicianProfile)
	clinician.GET("/visit/patients", h.PatientOptions)

	patient.GET("/profile", h.PatientProfile)
	patient.PUT("/profile", h.UpdatePatientProfile)
}

type loginResponse struct {
	Data    interface{} `json:"data"`
	Token   string      `json:"token"`
	Message string      `json:"message"`
	Success bool        `json:"success"`
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	session, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, loginResponse{
		Data:    session.Account,
		Token:   session.Token,
		Message: msgLoggedIn,
		Success: true,
	})
}

func (h *Handler) ClinicianProfile(c echo.Context) error {
	caller, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, auth.MsgNoToken)
	}
	cl, err := h.svc.Clinician(c.Request().Context(), caller.ID)
	if err != nil {
		return mapErr(err)
	}
	return response.OK(c, "", cl)
}

func (h *Handler) PatientProfile(c echo.Context) error {
	caller, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, auth.MsgNoToken)
	}
	p, err := h.svc.Patient(c.Request().Context(), caller.ID)
	if err != nil {
		return mapErr(err)
	}
	return response.OK(c, "", p)
}

func (h *Handler) UpdateClinicianProfile(c echo.Context) error {
	caller, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, auth.MsgNoToken)
	}
	var in ClinicianProfileInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	img, release, err := formImage(c)
	if err != nil {
		return err
	}
	defer release()
	cl, err := h.svc.UpdateClinicianProfile(c.Request().Context(), caller.ID, in, img)
	if err != nil {
		return mapErr(err)
	}
	return response.OK(c, msgProfileUpdated, cl)
}

func (h *Handler) UpdatePatientProfile(c echo.Context) error {
	caller, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, auth.MsgNoToken)
	}
	var in PatientProfileInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	img, release, err := formImage(c)
	if err != nil {
		return err
	}
	defer release()
	p, err := h.svc.UpdatePatientProfile(c.Request().Context(), caller.ID, in, img)
	if err != nil {
		return mapErr(err)
	}
	return response.OK(c, msgProfileUpdated, p)
}

func (h *Handler) PatientOptions(c echo.Context) error {
	opts, err := h.svc.PatientOptions(c.Request().Context())
	if err != nil {
		return err
	}
	return response.OK(c, "", opts)
}

func noop() {}

// formImage returns the optional multipart "image" file and a func that
// releases it.
func formImage(c echo.Context) (*Image, func(), error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, noop, nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, echo.NewHTTPError(http.StatusBadRequest, msgBadBody)
	}
	if fh.Size > blobstore.MaxImageSize {
		return nil, noop, mapErr(blobstore.ErrFileTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &Image{FileName: fh.Filename, Content: f}, func() { f.Close() }, nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return response.NewStatusError(http.StatusUnauthorized, msgBadCredentials, err)
	case errors.Is(err, ErrNotFound):
		return response.NewStatusError(http.StatusUnauthorized, msgAccountGone, err)
	case errors.Is(err, blobstore.ErrFileTooLarge),
		errors.Is(err, blobstore.ErrInvalidContentType),
		errors.Is(err, blobstore.ErrMissingFileName):
		return response.NewValidationError(response.FieldError{Field: "image", Message: err.Error()})
	}
	return err
}

func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgBadBody)
	}
	return c.Validate(dst)
}

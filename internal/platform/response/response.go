// Package response holds the JSON envelope every endpoint answers with and the
// echo error handler that renders failures into it.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the {message, data, success} body.
type Envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Success bool        `json:"success"`
}

// Empty is rendered as {}.
var Empty = struct{}{}

func OK(c echo.Context, message string, data interface{}) error {
	return write(c, http.StatusOK, message, data)
}

func Created(c echo.Context, message string, data interface{}) error {
	return write(c, http.StatusCreated, message, data)
}

func Fail(c echo.Context, code int, message string) error {
	return c.JSON(code, Envelope{Message: message, Data: Empty, Success: false})
}

func write(c echo.Context, code int, message string, data interface{}) error {
	if data == nil {
		data = Empty
	}
	return c.JSON(code, Envelope{Message: message, Data: data, Success: true})
}

// Ack answers 200 with only {message, success:true}.
func Ack(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, struct {
		Message string `json:"message"`
		Success bool   `json:"success"`
	}{message, true})
}

package handler

import (
	"net/http"

	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorCodeToHTTPStatus maps application error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EGATEWAY:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// ErrorResponse writes a JSON error envelope for an application error.
// Internal errors are logged with their operation and never leak detail
// to the client.
func ErrorResponse(c echo.Context, logger zerolog.Logger, err error) error {
	code := domain.ErrorCode(err)
	if domain.IsValidationError(err) {
		code = domain.EINVALID
	}
	status := ErrorCodeToHTTPStatus(code)

	body := errorBody{
		Code:    code,
		Message: domain.ErrorMessage(err),
	}
	if domain.IsValidationError(err) {
		body.Message = "validation failed"
		body.Fields = domain.GetValidationFields(err)
	}
	if status >= http.StatusInternalServerError {
		logger.Error().
			Err(err).
			Str("op", domain.ErrorOp(err)).
			Str("path", c.Request().URL.Path).
			Msg("request failed")
		body.Message = "An internal error occurred."
	}

	return c.JSON(status, errorEnvelope{Error: body})
}

// ErrorHandler is the echo-level fallback for errors returned by handlers
// and middleware that were not already written.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if he, ok := err.(*echo.HTTPError); ok {
			msg, _ := he.Message.(string)
			if msg == "" {
				msg = http.StatusText(he.Code)
			}
			_ = c.JSON(he.Code, errorEnvelope{Error: errorBody{
				Code:    domain.EINTERNAL,
				Message: msg,
			}})
			return
		}
		_ = ErrorResponse(c, logger, err)
	}
}

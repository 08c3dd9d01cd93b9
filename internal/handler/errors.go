package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/docstore"
	"github.com/stemsi/rollbook/internal/identity"
	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/response"
	"github.com/stemsi/rollbook/internal/roster"
	"github.com/stemsi/rollbook/internal/service"
)

// statusClientClosedRequest is the nginx convention for a caller that went away.
const statusClientClosedRequest = 499

// classify maps a service error to an HTTP status, an error code and the
// message shown to the teacher.
func classify(err error) (int, response.ErrCode, string) {
	var (
		fe *docstore.FetchError
		we *docstore.WriteError
	)

	switch {
	case errors.Is(err, service.ErrAttendanceInit):
		return http.StatusBadGateway, response.ErrAttendanceInit, response.GetMessage(response.ErrAttendanceInit)
	case errors.Is(err, service.ErrSaveAttendance):
		return http.StatusBadGateway, response.ErrAttendanceSave, err.Error()
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, response.ErrRequestCanceled, response.GetMessage(response.ErrRequestCanceled)
	case errors.As(err, &fe):
		return http.StatusBadGateway, response.ErrStoreRead, fe.Message
	case errors.As(err, &we):
		return http.StatusBadGateway, response.ErrStoreWrite, we.Message
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials, response.GetMessage(response.ErrInvalidCredentials)
	case errors.Is(err, identity.ErrUnavailable):
		return http.StatusServiceUnavailable, response.ErrIdentityDown, response.GetMessage(response.ErrIdentityDown)
	case errors.Is(err, model.ErrUnknownStudent):
		return http.StatusNotFound, response.ErrUnknownStudent, response.GetMessage(response.ErrUnknownStudent)
	case errors.Is(err, model.ErrDayOutOfRange):
		return http.StatusBadRequest, response.ErrDayOutOfRange, response.GetMessage(response.ErrDayOutOfRange)
	default:
		return http.StatusInternalServerError, response.ErrInternal, response.GetMessage(response.ErrInternal)
	}
}

// fail writes err as an error envelope. Validation errors carry their fields.
func fail(c *gin.Context, err error) {
	var ve *roster.ValidationError
	if errors.As(err, &ve) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Fields)
		return
	}

	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("code", string(code)).Msg("Request failed")
	}
	response.FailWithMessage(c, status, code, msg)
}

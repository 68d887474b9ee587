package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/studioplanar/planar-backend/internal/services"
)

type APIError struct {
  Message string `json:"message"`
  Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service failure taxonomy onto HTTP statuses.
func RespondServiceError(c *gin.Context, err error) {
  status, code := statusFor(err)
  RespondError(c, status, code, err)
}

func statusFor(err error) (int, string) {
  switch {
  case errors.Is(err, services.ErrValidation):
    return http.StatusBadRequest, "validation_error"
  case errors.Is(err, services.ErrMissingContext):
    return http.StatusBadRequest, "missing_context"
  case errors.Is(err, services.ErrNotFound):
    return http.StatusNotFound, "not_found"
  case errors.Is(err, services.ErrUpstreamIncomplete):
    return http.StatusBadGateway, "upstream_incomplete_response"
  case errors.Is(err, services.ErrUpstreamFailure):
    return http.StatusBadGateway, "upstream_failure"
  case errors.Is(err, services.ErrStorageFailure):
    return http.StatusInternalServerError, "storage_failure"
  default:
    return http.StatusInternalServerError, "internal_error"
  }
}

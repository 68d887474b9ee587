package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/studioplanar/planar-backend/internal/services"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation",
			err:        fmt.Errorf("%w: instruction required", services.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_error",
		},
		{
			name:       "missing_context",
			err:        services.ErrMissingContext,
			wantStatus: http.StatusBadRequest,
			wantCode:   "missing_context",
		},
		{
			name:       "not_found",
			err:        fmt.Errorf("%w: version x", services.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "upstream_incomplete",
			err:        services.ErrUpstreamIncomplete,
			wantStatus: http.StatusBadGateway,
			wantCode:   "upstream_incomplete_response",
		},
		{
			name:       "upstream_failure",
			err:        fmt.Errorf("%w: quota", services.ErrUpstreamFailure),
			wantStatus: http.StatusBadGateway,
			wantCode:   "upstream_failure",
		},
		{
			name:       "storage_failure",
			err:        services.ErrStorageFailure,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "storage_failure",
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := statusFor(tc.err)
			if status != tc.wantStatus || code != tc.wantCode {
				t.Fatalf("statusFor(%v)=(%d, %q), want (%d, %q)", tc.err, status, code, tc.wantStatus, tc.wantCode)
			}
		})
	}
}

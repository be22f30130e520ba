package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"musafir/internal/domain"

	"github.com/gin-gonic/gin"
)

func TestRespondDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.ValidationError{Field: "amount", Msg: "must be positive"}, http.StatusBadRequest, "validation_error"},
		{"not found", domain.NotFoundError{Resource: "registration"}, http.StatusNotFound, "not_found"},
		{"conflict keeps code", domain.ConflictError{Code: domain.CodePaymentAlreadyPending, Msg: "pending"}, http.StatusConflict, domain.CodePaymentAlreadyPending},
		{"conflict without code", domain.ConflictError{Msg: "x"}, http.StatusConflict, "conflict"},
		{"wrapped conflict", wrap(domain.Conflict(domain.CodeVersionMismatch, "stale")), http.StatusConflict, domain.CodeVersionMismatch},
		{"transient", domain.TransientError{Op: "payment submit"}, http.StatusServiceUnavailable, "temporarily_unavailable"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		RespondDomainError(c, tc.err)
		if w.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.name, w.Code, tc.status)
		}
		var body ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if body.Code != tc.code {
			t.Fatalf("%s: code = %q, want %q", tc.name, body.Code, tc.code)
		}
	}
}

func wrap(err error) error { return errors.Join(errors.New("context"), err) }

package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chatline/backend/internal/domain"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]string{"k": "v"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	resp := decode(t, rec)
	if !resp.Success || resp.Error != nil {
		t.Errorf("resp = %+v, want success with no error", resp)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.Validationf("bad input"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{domain.NotFoundf("missing"), http.StatusNotFound, "NOT_FOUND"},
		{domain.Conflictf("taken"), http.StatusConflict, "CONFLICT"},
		{domain.Forbiddenf("not yours"), http.StatusForbidden, "FORBIDDEN"},
		{domain.Internal("boom", nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{errors.New("plain"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		DomainError(rec, tt.err)

		if rec.Code != tt.wantStatus {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.wantStatus)
		}
		resp := decode(t, rec)
		if resp.Error == nil || resp.Error.Code != tt.wantCode {
			t.Errorf("%v: error = %+v, want code %s", tt.err, resp.Error, tt.wantCode)
		}
	}
}

func TestDomainErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	DomainError(rec, domain.Internal("pgx: connection refused", errors.New("dial tcp")))

	resp := decode(t, rec)
	if resp.Error == nil || resp.Error.Message != "internal server error" {
		t.Errorf("message = %+v, want generic internal text", resp.Error)
	}
}

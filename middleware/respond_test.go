package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"TMProject/tools/errs"

	"github.com/gin-gonic/gin"
)

func writeErrRecorder(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	WriteErr(c, err)
	return w
}

func TestWriteErrHidesInfraDetail(t *testing.T) {
	driverErr := "dial tcp 10.0.0.5:5432: connection refused (password=hunter2)"
	w := writeErrRecorder(t, errs.ErrStorageUnavailable.WrapMsg("postgres", "err", driverErr))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "dial tcp") || strings.Contains(body, "10.0.0.5") || strings.Contains(body, "hunter2") {
		t.Fatalf("driver text leaked to client: %s", body)
	}

	var resp errs.CodeError
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if resp.Code != errs.StorageUnavailableCode || resp.Msg != "storage unavailable" {
		t.Fatalf("body = %+v", resp)
	}
	if resp.Detail != "" {
		t.Fatalf("detail should be empty, got %q", resp.Detail)
	}
}

func TestWriteErrHidesPlainErrorText(t *testing.T) {
	w := writeErrRecorder(t, errs.New("pool exhausted", "host", "10.0.0.9"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "10.0.0.9") {
		t.Fatalf("internal text leaked: %s", w.Body.String())
	}
}

func TestWriteErrKeepsValidationDetail(t *testing.T) {
	w := writeErrRecorder(t, errs.ErrInvalidParticipants.WithDetail("participant id is empty"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp errs.CodeError
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	// 校验类错误的 detail 是给调用方看的，保留
	if resp.Detail != "participant id is empty" {
		t.Fatalf("detail = %q", resp.Detail)
	}
}

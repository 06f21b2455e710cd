package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Set(ContextKeyRequestID, "req-123")
	handler(c)

	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	return w, body
}

func TestSuccess(t *testing.T) {
	w, body := perform(t, func(c *gin.Context) {
		Success(c, http.StatusCreated, gin.H{"message": "ok"})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if body.Error != nil {
		t.Errorf("expected no error body, got %+v", body.Error)
	}
	if body.Metadata.RequestID != "req-123" {
		t.Errorf("expected request ID from context, got %q", body.Metadata.RequestID)
	}
	if body.Metadata.Timestamp == "" {
		t.Error("expected timestamp in metadata")
	}
}

func TestFail(t *testing.T) {
	w, body := perform(t, func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrNotFound)
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if body.Error == nil {
		t.Fatal("expected error body")
	}
	if body.Error.Code != ErrNotFound {
		t.Errorf("expected code %s, got %s", ErrNotFound, body.Error.Code)
	}
	if body.Error.Message != GetMessage(ErrNotFound) {
		t.Errorf("unexpected message %q", body.Error.Message)
	}
}

func TestFailWithFields(t *testing.T) {
	fields := map[string]string{"email": "must be a valid email address"}
	_, body := perform(t, func(c *gin.Context) {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, fields)
	})

	if body.Error == nil {
		t.Fatal("expected error body")
	}
	if body.Error.Fields["email"] == "" {
		t.Error("expected field details to survive serialization")
	}
}

func TestMetadataFallbackRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	Success(c, http.StatusOK, nil)

	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if body.Metadata.RequestID == "" {
		t.Error("expected generated request ID when middleware is absent")
	}
}

func TestGetMessageUnknownCode(t *testing.T) {
	if msg := GetMessage(ErrCode("NO_SUCH_CODE")); msg == "" {
		t.Error("expected a fallback message for unknown codes")
	}
}

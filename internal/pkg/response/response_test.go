package response

import (
	"ConectaYa/internal/service"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func record(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	return w
}

func TestError_HTTPStatusMatchesBusinessCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidTransition, http.StatusBadRequest},
		{service.ErrNotBookingActor, http.StatusForbidden},
		{service.ErrBookingNotFound, http.StatusNotFound},
		{service.UnauthorizedError, http.StatusUnauthorized},
		{service.UnExpectedError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := record(func(c *gin.Context) { Error(c, tc.err) })
		if w.Code != tc.want {
			t.Fatalf("%v: expected HTTP %d, got %d", tc.err, tc.want, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"code":`) {
			t.Fatalf("%v: envelope body missing business code: %s", tc.err, w.Body.String())
		}
	}
}

func TestSuccess_Returns200Envelope(t *testing.T) {
	w := record(func(c *gin.Context) { Success(c, gin.H{"ok": true}) })
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

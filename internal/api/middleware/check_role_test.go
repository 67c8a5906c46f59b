package middleware

import (
	"ConectaYa/internal/model"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func roleRouter(t *testing.T, userRoles []string, required ...model.Role) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("roles", userRoles)
	})
	r.POST("/guarded", CheckRoles(required...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestCheckRoles_AllowsMatchingRole(t *testing.T) {
	r := roleRouter(t, []string{"CUSTOMER"}, model.RoleCustomer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/guarded", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected pass-through for customer, got %d", w.Code)
	}
}

func TestCheckRoles_RejectsMissingRole(t *testing.T) {
	r := roleRouter(t, []string{"PROVIDER"}, model.RoleCustomer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/guarded", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for provider on a customer-only route, got %d", w.Code)
	}
}

func TestCheckRoles_AnyOfSeveral(t *testing.T) {
	r := roleRouter(t, []string{"PROVIDER"}, model.RoleCustomer, model.RoleProvider)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/guarded", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected pass-through when any required role matches, got %d", w.Code)
	}
}

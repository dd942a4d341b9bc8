package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"minishop-gateway/internal/apiclient"
	"minishop-gateway/internal/navigation"
	operatorsvc "minishop-gateway/internal/service/operator"
)

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if deps.Carts == nil {
		deps.Carts = &stubCartService{}
	}
	if deps.Storefront == nil {
		deps.Storefront = &stubStorefront{}
	}
	if deps.Operator == nil {
		deps.Operator = operatorsvc.New(apiclient.New("http://127.0.0.1:1", nil))
	}
	router, err := buildRouter(zap.NewNop(), nil, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	rec := serve(newTestRouter(t, Deps{}), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter(t, Deps{})
	if rec := serve(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without dependencies, got %d", rec.Code)
	}

	down := PingFunc(func(context.Context) error { return errors.New("redis down") })
	router = newTestRouter(t, Deps{Ready: []Pinger{down}})
	rec := serve(router, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if got := decodeJSON(t, rec)["reason"]; got != "redis down" {
		t.Fatalf("unexpected reason %v", got)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := newTestRouter(t, Deps{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestNavigate(t *testing.T) {
	router := newTestRouter(t, Deps{})
	rec := serve(router, http.MethodGet, "/api/v1/navigate?path=/provider/shop/branch/b1/edit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var route navigation.Route
	if err := json.Unmarshal(rec.Body.Bytes(), &route); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if route.Shell != navigation.ShellProvider || route.View != navigation.ViewBranchEdit || route.Params["branchId"] != "b1" {
		t.Fatalf("unexpected route %+v", route)
	}

	rec = serve(router, http.MethodGet, "/api/v1/navigate?path=/provider/nowhere", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &route); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if route.Redirect != navigation.DefaultProviderPath {
		t.Fatalf("expected redirect to %s, got %+v", navigation.DefaultProviderPath, route)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	rec := serve(newTestRouter(t, Deps{}), http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if decodeJSON(t, rec)["error"] != "not found" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestPanicIsRecovered(t *testing.T) {
	router := newTestRouter(t, Deps{})
	router.GET("/boom", func(*gin.Context) { panic("kaboom") })
	rec := serve(router, http.MethodGet, "/boom", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	if _, err := buildRouter(zap.NewNop(), nil, Deps{}); err == nil {
		t.Fatalf("expected error for missing services")
	}
}

func TestBuildRouter_RejectsBadOrigins(t *testing.T) {
	_, err := buildRouter(zap.NewNop(), nil, Deps{
		Carts:       &stubCartService{},
		Storefront:  &stubStorefront{},
		Operator:    operatorsvc.New(apiclient.New("http://127.0.0.1:1", nil)),
		CORSOrigins: []string{"example.com"},
	})
	if err == nil {
		t.Fatalf("expected error for origin without scheme")
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	router := newTestRouter(t, Deps{CORSOrigins: []string{"https://app.example"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/stores/s1", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
}

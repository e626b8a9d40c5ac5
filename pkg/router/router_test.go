package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_New(t *testing.T) {
	r := New()
	if r == nil {
		t.Fatal("New() returned nil")
	}
	if r.routes == nil {
		t.Error("routes map is nil")
	}
	if r.notFound == nil {
		t.Error("notFound handler is nil")
	}
}

func TestRouter_MethodShortcuts(t *testing.T) {
	r := New()
	r.GET("/a", okHandler())
	r.POST("/a", okHandler())
	r.PUT("/a", okHandler())
	r.PATCH("/a", okHandler())
	r.DELETE("/a", okHandler())

	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		if len(r.routes[m]) != 1 {
			t.Errorf("expected 1 %s route, got %d", m, len(r.routes[m]))
		}
	}
}

func TestRouter_ServeHTTP_ExactMatch(t *testing.T) {
	r := New()
	r.GET("/api/v1/fs", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tree"))
	}))

	w := serve(r, http.MethodGet, "/api/v1/fs")
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Body.String() != "tree" {
		t.Errorf("expected body 'tree', got '%s'", w.Body.String())
	}
}

func TestRouter_ServeHTTP_NotFound(t *testing.T) {
	r := New()
	r.GET("/test", okHandler())

	w := serve(r, http.MethodGet, "/notfound")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	w = serve(r, http.MethodPatch, "/notfound")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown path with unknown method: expected %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestRouter_ServeHTTP_MethodNotAllowed(t *testing.T) {
	r := New()
	r.GET("/test", okHandler())
	r.DELETE("/test", okHandler())
	r.POST("/other", okHandler())

	w := serve(r, http.MethodPost, "/test")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}
	if got := w.Header().Get("Allow"); got != "DELETE, GET" {
		t.Errorf("expected Allow 'DELETE, GET', got '%s'", got)
	}
}

func TestRouter_NamedParameter(t *testing.T) {
	r := New()
	r.GET("/api/v1/fs/nodes/:id", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, ok := ParamsFromContext(r.Context())
		if !ok {
			t.Error("expected params in context")
			return
		}
		if params["id"] != "file-01J" {
			t.Errorf("expected id 'file-01J', got '%s'", params["id"])
		}
		w.Write([]byte("OK"))
	}))

	w := serve(r, http.MethodGet, "/api/v1/fs/nodes/file-01J")
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRouter_NestedParameters(t *testing.T) {
	r := New()
	r.POST("/windows/:windowId/gestures/:gestureKind", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := Param(r.Context(), "windowId"); got != "w1" {
			t.Errorf("expected windowId 'w1', got '%s'", got)
		}
		if got := Param(r.Context(), "gestureKind"); got != "resize" {
			t.Errorf("expected gestureKind 'resize', got '%s'", got)
		}
		w.Write([]byte("OK"))
	}))

	w := serve(r, http.MethodPost, "/windows/w1/gestures/resize")
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	routes := r.Routes()
	if len(routes[0].Params) != 2 || routes[0].Params[0] != "windowId" {
		t.Errorf("expected params [windowId gestureKind], got %v", routes[0].Params)
	}
}

func TestRouter_ParameterDoesNotCrossSegments(t *testing.T) {
	r := New()
	r.GET("/nodes/:id", okHandler())

	w := serve(r, http.MethodGet, "/nodes/a/b")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestRoute_Match(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    Params
	}{
		{"/", "/", Params{}},
		{"/", "/x", nil},
		{"/health", "/health", Params{}},
		{"/health", "/health/", nil},
		{"/health", "/healthz", nil},
		{"/nodes/:id", "/nodes/n1", Params{"id": "n1"}},
		{"/nodes/:id", "/nodes/", nil},
		{"/nodes/:id", "/nodes//", nil},
		{"/nodes/:id/children", "/nodes/n1/children", Params{"id": "n1"}},
		{"/nodes/:id/children", "/nodes/n1", nil},
		{"/raw/*", "/raw/Documents/a.txt", Params{"wildcard": "/Documents/a.txt"}},
		{"/raw/*", "/raw/", Params{"wildcard": "/"}},
		{"/raw/*", "/raw", nil},
		{"/*", "/anything/at/all", Params{"wildcard": "/anything/at/all"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			route := compile(tt.pattern)
			got := route.match(tt.path)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("match(%q) = %v, want %v", tt.path, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("param %s = %q, want %q", k, got[k], v)
				}
			}
			if len(got) != len(tt.want) {
				t.Errorf("got %d params, want %d", len(got), len(tt.want))
			}
		})
	}
}

func TestRouter_Wildcard(t *testing.T) {
	r := New()
	r.GET("/static/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := Param(r.Context(), "wildcard"); got != "/css/app.css" {
			t.Errorf("expected wildcard '/css/app.css', got '%s'", got)
		}
		w.Write([]byte("OK"))
	}))

	w := serve(r, http.MethodGet, "/static/css/app.css")
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRouter_PatternInContext(t *testing.T) {
	r := New()
	var pattern string
	r.GET("/api/v1/windows/:id", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pattern, _ = PatternFromContext(r.Context())
	}))

	serve(r, http.MethodGet, "/api/v1/windows/abc")
	if pattern != "/api/v1/windows/:id" {
		t.Errorf("expected pattern '/api/v1/windows/:id', got '%s'", pattern)
	}
}

func TestRouter_UseAndRouteMiddleware(t *testing.T) {
	r := New()
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	r.Use(tag("global"))
	r.GET("/test", okHandler(), tag("route"))

	serve(r, http.MethodGet, "/test")
	if strings.Join(order, ",") != "global,route" {
		t.Errorf("expected order global,route, got %v", order)
	}

	order = nil
	serve(r, http.MethodGet, "/missing")
	if strings.Join(order, ",") != "global" {
		t.Errorf("global middleware should wrap the not found handler, got %v", order)
	}
}

func TestRouter_SetNotFoundHandler(t *testing.T) {
	r := New()
	r.SetNotFoundHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	r.GET("/test", okHandler())

	if w := serve(r, http.MethodGet, "/notfound"); w.Code != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, w.Code)
	}
}

func TestRouter_SetMethodNotAllowedHandler(t *testing.T) {
	r := New()
	r.SetMethodNotAllowedHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	r.GET("/test", okHandler())

	if w := serve(r, http.MethodPost, "/test"); w.Code != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, w.Code)
	}
}

func TestRouter_Routes(t *testing.T) {
	r := New()
	r.POST("/b", okHandler())
	r.GET("/a", okHandler())

	routes := r.Routes()
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if routes[0].Pattern != "/a" || routes[1].Pattern != "/b" {
		t.Errorf("expected routes sorted by pattern, got %s, %s", routes[0].Pattern, routes[1].Pattern)
	}
}

func TestParams(t *testing.T) {
	params := Params{"key": "value"}
	if params.Get("key") != "value" {
		t.Errorf("expected 'value', got '%s'", params.Get("key"))
	}
	if params.Get("missing") != "" {
		t.Error("expected empty string for missing key")
	}
	if !params.Has("key") || params.Has("missing") {
		t.Error("Has returned the wrong answer")
	}

	ctx := WithParams(context.Background(), params)
	got, ok := ParamsFromContext(ctx)
	if !ok || got["key"] != "value" {
		t.Errorf("expected params round trip, got %v", got)
	}
	if Param(context.Background(), "key") != "" {
		t.Error("expected empty param without routing")
	}
}

func TestLoggingMiddleware(t *testing.T) {
	handler := LoggingMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestMetricsMiddleware(t *testing.T) {
	r := New()
	r.Use(MetricsMiddleware())
	r.GET("/api/v1/windows/:id", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	if w := serve(r, http.MethodGet, "/api/v1/windows/x"); w.Code != http.StatusAccepted {
		t.Errorf("expected status %d, got %d", http.StatusAccepted, w.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	// This should not panic
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware()(okHandler())

	w := serve(handler, http.MethodOptions, "/api/v1/fs")
	if w.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS origin header")
	}

	w = serve(handler, http.MethodGet, "/api/v1/fs")
	if w.Body.String() != "OK" {
		t.Errorf("expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestMaxBodyMiddleware(t *testing.T) {
	handler := MaxBodyMiddleware(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		_, err := r.Body.Read(buf)
		for err == nil {
			_, err = r.Body.Read(buf)
		}
		if err.Error() == "EOF" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status %d, got %d", http.StatusRequestEntityTooLarge, w.Code)
	}
}

func TestChain(t *testing.T) {
	callOrder := []string{}
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				callOrder = append(callOrder, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mw("1"), mw("2"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callOrder = append(callOrder, "3")
	}))
	serve(handler, http.MethodGet, "/test")

	if strings.Join(callOrder, "") != "123" {
		t.Errorf("expected call order 123, got %v", callOrder)
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	var deadline bool
	handler := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
	}))
	serve(handler, http.MethodGet, "/test")

	if !deadline {
		t.Error("expected a deadline on the request context")
	}
}

func TestHandlerType(t *testing.T) {
	called := false
	h := Handler(func(w http.ResponseWriter, r *http.Request) { called = true })
	serve(h, http.MethodGet, "/")
	if !called {
		t.Error("Handler adapter did not call the function")
	}
}

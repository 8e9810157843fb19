package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Yulian302/lfusys-services-crmrelay/config"
	"github.com/Yulian302/lfusys-services-crmrelay/logging"
	"github.com/Yulian302/lfusys-services-crmrelay/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	observer, err := metrics.NewPrometheusObserver("test", registry)
	require.NoError(t, err)

	app := &App{
		Config: config.Config{
			Env:       "DEV",
			RelayAddr: ":0",
			CRMConfig: config.CRMConfig{Timeout: 2 * time.Second},
			ServiceConfig: config.ServiceConfig{
				MaxBodyBytes: 1 << 20,
			},
		},
		Registry: registry,
		Metrics:  observer,
		Logger:   logging.Nop(),
	}
	app.Services = BuildServices(app)
	return app
}

// fakeBitrix stores files whose name starts with "ok" and rejects the rest
// without an id.
func fakeBitrix(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		methods = append(methods, method)

		switch method {
		case "disk.storage.uploadfile":
			if strings.Contains(string(raw), `"NAME":"ok`) {
				_, _ = io.WriteString(w, `{"result":{"ID":77,"DOWNLOAD_URL":"https://portal/d/77"}}`)
				return
			}
			_, _ = io.WriteString(w, `{"error":"DISK_ERROR"}`)
		case "crm.activity.add":
			_, _ = io.WriteString(w, `{"result":5}`)
		case "crm.deal.update":
			_, _ = io.WriteString(w, `{"result":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &methods
}

func TestRouterRelaysEndToEnd(t *testing.T) {
	crm, methods := fakeBitrix(t)
	r := BuildRouter(newTestApp(t))

	body := `{"files":[{"name":"ok.png","size":3,"data":"QUJD"},{"name":"bad.png","size":1,"data":"QQ=="}],"dealId":"9","webhook":"` + crm.URL + `/rest/1/t/"}`
	req := httptest.NewRequest(http.MethodPost, "/upload-to-bitrix", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"success": true,
		"uploaded": 2,
		"files": [
			{"name":"ok.png","size":3,"id":"77","downloadUrl":"https://portal/d/77"},
			{"name":"bad.png","size":1,"base64":"QQ==","fallback":true}
		]
	}`, w.Body.String())
	assert.Equal(t, []string{
		"disk.storage.uploadfile",
		"disk.storage.uploadfile",
		"crm.activity.add",
		"crm.deal.update",
	}, *methods)
}

func TestRouterVersionedRoute(t *testing.T) {
	r := BuildRouter(newTestApp(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload-to-bitrix", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"No files provided"}`, w.Body.String())
}

func TestRouterCorsPreflight(t *testing.T) {
	r := BuildRouter(newTestApp(t))

	req := httptest.NewRequest(http.MethodOptions, "/upload-to-bitrix", nil)
	req.Header.Set("Origin", "https://forms.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRouterMethodNotAllowed(t *testing.T) {
	r := BuildRouter(newTestApp(t))

	req := httptest.NewRequest(http.MethodGet, "/upload-to-bitrix", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
}

func TestRouterAmbientEndpoints(t *testing.T) {
	r := BuildRouter(newTestApp(t))

	for path, want := range map[string]string{
		"/test":    `"message":"ok"`,
		"/metrics": "test_files_total",
	} {
		// make sure the counter vec has a series to export
		if path == "/metrics" {
			req := httptest.NewRequest(http.MethodPost, "/upload-to-bitrix",
				strings.NewReader(`{"files":[{"name":"a","size":1,"data":"QQ=="}],"dealId":"1","webhook":"http://127.0.0.1:1/"}`))
			r.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), want, path)
	}
}

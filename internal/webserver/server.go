package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/talkincode/catalogd/internal/app"
	"github.com/talkincode/catalogd/pkg/metrics"
)

// ContextAppKey is the echo context key under which the application
// context travels to handlers.
const ContextAppKey = "catalogd_app"

var server *WebServer

// WebServer wraps the echo instance serving the catalog API.
type WebServer struct {
	root   *echo.Echo
	api    *echo.Group
	appCtx app.AppContext
}

// Init builds the global web server bound to the application context.
func Init(appCtx app.AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(injectAppContext(appCtx))
	e.Use(requestLogger())

	server = &WebServer{
		root:   e,
		api:    e.Group(""),
		appCtx: appCtx,
	}
	return server
}

// Instance returns the global web server.
func Instance() *WebServer {
	return server
}

// Listen starts serving and blocks until the server stops.
func Listen() error {
	cfg := server.appCtx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.S().Infof("catalog api listening on %s", addr)
	err := server.root.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func Shutdown(ctx context.Context) error {
	if server == nil {
		return nil
	}
	return server.root.Shutdown(ctx)
}

// ApiGET registers a GET route on the root group.
func ApiGET(path string, h echo.HandlerFunc) {
	server.api.GET(path, h)
}

// ApiPOST registers a POST route on the root group.
func ApiPOST(path string, h echo.HandlerFunc) {
	server.api.POST(path, h)
}

// ApiPUT registers a PUT route on the root group.
func ApiPUT(path string, h echo.HandlerFunc) {
	server.api.PUT(path, h)
}

// ApiPATCH registers a PATCH route on the root group.
func ApiPATCH(path string, h echo.HandlerFunc) {
	server.api.PATCH(path, h)
}

// ApiDELETE registers a DELETE route on the root group.
func ApiDELETE(path string, h echo.HandlerFunc) {
	server.api.DELETE(path, h)
}

func injectAppContext(appCtx app.AppContext) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextAppKey, appCtx)
			return next(c)
		}
	}
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// commit the error response so the logged status is real
				c.Error(err)
			}
			status := c.Response().Status
			metrics.IncrCounter("api_requests_total")
			if status >= http.StatusInternalServerError {
				metrics.IncrCounter("api_requests_5xx")
			} else if status >= http.StatusBadRequest {
				metrics.IncrCounter("api_requests_4xx")
			}
			zap.L().Debug("api request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)))
			return err
		}
	}
}

// jsonSerializer plugs json-iterator in as the echo JSON codec.
type jsonSerializer struct{}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsonAPI.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := jsonAPI.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

package catalogapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/catalogd/internal/app"
	"github.com/talkincode/catalogd/internal/catalog"
	"github.com/talkincode/catalogd/internal/webserver"
)

// InitRouter registers every catalog API route.
func InitRouter() {
	registerProductRoutes()
	registerTransferRoutes()
	registerStatusRoutes()
}

// GetApp returns the application context injected by the web server.
func GetApp(c echo.Context) app.AppContext {
	return c.Get(webserver.ContextAppKey).(app.AppContext)
}

// GetDB returns the request database handle.
func GetDB(c echo.Context) *gorm.DB {
	return GetApp(c).DB()
}

// GetCatalog returns the product catalog service.
func GetCatalog(c echo.Context) *catalog.Service {
	return GetApp(c).Catalog()
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// fail writes the error envelope: {status:false, message, error}.
func fail(c echo.Context, status int, message, detail string) error {
	return c.JSON(status, echo.Map{
		"status":  false,
		"message": message,
		"error":   detail,
	})
}

// failErr maps a service error onto the HTTP contract: NotFound → 404,
// Internal/unknown → 500, every other kind → 400.
func failErr(c echo.Context, err error) error {
	var status int
	message := "Internal server error"
	detail := err.Error()

	if se, ok := err.(*catalog.Error); ok {
		message = se.Message
		detail = se.Detail()
		switch se.Kind {
		case catalog.KindNotFound:
			status = http.StatusNotFound
		case catalog.KindInternal:
			status = http.StatusInternalServerError
		default:
			status = http.StatusBadRequest
		}
	} else {
		status = http.StatusInternalServerError
	}
	return fail(c, status, message, detail)
}

package catalogapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/talkincode/catalogd/internal/domain"
	"github.com/talkincode/catalogd/internal/webserver"
	"github.com/talkincode/catalogd/pkg/metrics"
)

var startTime = time.Now()

// registerStatusRoutes registers the service status endpoint
func registerStatusRoutes() {
	webserver.ApiGET("/status", getStatus)
}

// getStatus reports process health plus catalog counters.
func getStatus(c echo.Context) error {
	data := echo.Map{
		"uptime_sec":         int64(time.Since(startTime).Seconds()),
		"api_requests_total": metrics.CounterValue("api_requests_total"),
	}

	if cpuuse, err := cpu.Percent(0, false); err == nil && len(cpuuse) > 0 {
		data["cpu_percent"] = cpuuse[0]
	}
	if meminfo, err := mem.VirtualMemory(); err == nil {
		data["mem_used_mb"] = meminfo.Used / 1024 / 1024
	}

	var total, inStock int64
	db := GetDB(c)
	if err := db.Model(&domain.Product{}).Count(&total).Error; err == nil {
		data["products_total"] = total
	}
	if err := db.Model(&domain.Product{}).Where("quantity > 0").Count(&inStock).Error; err == nil {
		data["products_in_stock"] = inStock
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": true,
		"data":   data,
	})
}

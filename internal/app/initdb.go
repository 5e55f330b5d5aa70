package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/talkincode/catalogd/internal/domain"
	"github.com/talkincode/catalogd/pkg/common"
)

// checkProducts initializes a few demo catalog rows so a fresh install
// has something to list. Existing names are never overwritten.
func (a *Application) checkProducts() {
	defaultProducts := []domain.Product{
		{Name: "demo-widget-basic", Description: "Entry level widget", Type: "consumable", Price: 9.99, Quantity: 100},
		{Name: "demo-widget-pro", Description: "Widget for professionals", Type: "consumable", Price: 24.5, Quantity: 50},
		{Name: "demo-service-annual", Description: "Annual service plan", Type: "service", Price: 199.0, Quantity: 1},
		{Name: "demo-addon-support", Description: "Priority support addon", Type: "service", Price: 49.95, Quantity: 200},
	}

	for _, p := range defaultProducts {
		var count int64
		a.gormDB.Model(&domain.Product{}).Where("name = ?", p.Name).Count(&count)
		if count == 0 {
			p.ID = common.UUIDint64()
			p.CreatedAt = time.Now()
			p.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&p).Error; err != nil {
				zap.L().Error("failed to create default product", zap.String("name", p.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized default product", zap.String("name", p.Name))
			}
		}
	}
}

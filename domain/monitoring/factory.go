package monitoring

import (
	"github.com/wayfarermaps/landing/config/router"
	"github.com/wayfarermaps/landing/internal/log"
	"gorm.io/gorm"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

// DefaultMonitoringControllerFactory wires the monitoring surface. Both db and
// cache may be nil; the health report then marks them unconfigured.
type DefaultMonitoringControllerFactory struct {
	db     *gorm.DB
	logger *log.Logger
	cache  Cache
}

func NewMonitoringControllerFactory(db *gorm.DB, logger *log.Logger, cache Cache) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{db: db, logger: logger, cache: cache}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.db, f.logger, f.cache)
}

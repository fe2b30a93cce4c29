package domain

import (
	"github.com/wayfarermaps/landing/config"
	"github.com/wayfarermaps/landing/domain/auth"
	"github.com/wayfarermaps/landing/domain/experiment"
	"github.com/wayfarermaps/landing/domain/monitoring"
	"github.com/wayfarermaps/landing/domain/pages"
	"github.com/wayfarermaps/landing/domain/waitlist"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	experimentService := experiment.NewExperimentService(appConfig.Logger)

	// Cohort assignment must run ahead of every controller handler so the
	// page render and the signup API observe the same variant.
	appConfig.RouterService.GetEngine().Use(experiment.Middleware(experimentService, appConfig.Logger))

	appConfig.RouterService.MountController(monitoring.NewMonitoringController(appConfig.DB, appConfig.Logger, appConfig.Cache))
	appConfig.RouterService.MountController(pages.NewPagesController(appConfig.Logger))
	appConfig.RouterService.MountController(auth.NewAuthController(appConfig.Logger))
	appConfig.RouterService.MountController(waitlist.NewWaitlistController(appConfig.DB, appConfig.Logger))
}

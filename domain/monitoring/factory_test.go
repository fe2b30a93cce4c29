package monitoring

import (
	"testing"

	"github.com/wayfarermaps/landing/internal/log"
	"github.com/stretchr/testify/assert"
)

func TestMonitoringControllerFactory_BuildsWithoutDependencies(t *testing.T) {
	factory := NewMonitoringControllerFactory(nil, log.NewLoggerWithJSONOutput(), nil)

	// Both the database and the cache are optional for this deployment shape.
	assert.NotNil(t, factory.CreateController())
}

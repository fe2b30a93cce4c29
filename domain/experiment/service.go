package experiment

import (
	"crypto/rand"

	"github.com/wayfarermaps/landing/internal/log"
	"github.com/wayfarermaps/landing/pkg/constants"
)

// Service assigns visitors to an A/B cohort.
type Service interface {
	// Assign picks a variant for a new visitor with a fair coin flip.
	Assign() string
	// Validate reports whether raw is a recognised variant, returning the
	// value when it is.
	Validate(raw string) (string, bool)
}

type experimentService struct {
	logger *log.Logger
}

func NewExperimentService(logger *log.Logger) Service {
	return &experimentService{logger: logger}
}

func (s *experimentService) Assign() string {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		// never fail a page load over entropy; lean on variant A instead
		s.logger.Error("Failed to read randomness for variant assignment", "error", err)
		return constants.VariantA
	}

	if b[0]&1 == 0 {
		return constants.VariantA
	}
	return constants.VariantB
}

func (s *experimentService) Validate(raw string) (string, bool) {
	if constants.IsValidVariant(raw) {
		return raw, true
	}
	return "", false
}

package waitlist

import (
	"bytes"
	"context"
	"encoding/csv"
	"regexp"
	"strconv"
	"strings"

	"github.com/wayfarermaps/landing/internal/log"
	"github.com/wayfarermaps/landing/internal/models"
	"github.com/wayfarermaps/landing/pkg/constants"
	apperrors "github.com/wayfarermaps/landing/pkg/errors"
)

// emailPattern is deliberately loose: something before a single @, and a
// domain containing at least one dot. Deliverability is the confirmation
// email's problem, not the form's.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

const (
	signupSuccessMessage = "You're on the list! We'll let you know the moment Wayfarer is ready."

	defaultPageSize = 50
)

type WaitlistService interface {
	// Signup validates and records a signup. Duplicate emails are reported as
	// successes so the endpoint stays idempotent and leaks nothing about which
	// addresses already signed up.
	Signup(ctx context.Context, req *SignupRequest, meta *SignupMetadata) (*SignupResult, error)

	// ListEntries returns one page of entries together with the total count.
	ListEntries(ctx context.Context, page, perPage int) (*EntryListResponse, error)

	// VariantStats returns signup totals grouped by experiment variant.
	VariantStats(ctx context.Context) (*StatsResponse, error)

	// ExportCSV renders every entry as a CSV document.
	ExportCSV(ctx context.Context) ([]byte, error)

	// DeleteEntry removes a waitlist entry identified by its ID.
	DeleteEntry(ctx context.Context, id uint) error
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository) WaitlistService {
	return &waitlistService{logger: logger, repository: repository}
}

func (s *waitlistService) Signup(ctx context.Context, req *SignupRequest, meta *SignupMetadata) (*SignupResult, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("Signup received empty request")
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		logger.Warn("Signup rejected invalid email", "email", req.Email)
		return nil, apperrors.NewInvalidRequestError("Please enter a valid email address", nil)
	}

	variant, err := resolveVariant(req.Variant, meta)
	if err != nil {
		logger.Warn("Signup rejected invalid variant", "variant", req.Variant)
		return nil, err
	}

	entry := &models.WaitlistEntry{
		Email:   email,
		Variant: variant,
	}
	if meta != nil {
		entry.SourceIP = meta.SourceIP
		entry.UserAgent = meta.UserAgent
	}

	if _, err := s.repository.CreateEntry(ctx, entry); err != nil {
		if apperrors.GetErrorType(err) == apperrors.ErrorTypeConflict {
			logger.Info("Duplicate signup treated as success", "variant", variant)
			return &SignupResult{Message: signupSuccessMessage, Variant: variant, Created: false}, nil
		}

		logger.Error("Failed to record signup", "error", err)
		return nil, err
	}

	logger.Info("Waitlist signup recorded", "variant", variant)
	return &SignupResult{Message: signupSuccessMessage, Variant: variant, Created: true}, nil
}

// resolveVariant prefers the value submitted with the form, then the
// experiment cookie, and finally defaults to variant A.
func resolveVariant(bodyVariant string, meta *SignupMetadata) (string, error) {
	if bodyVariant != "" {
		if !constants.IsValidVariant(bodyVariant) {
			return "", apperrors.NewInvalidRequestError("Variant must be A or B", nil)
		}
		return bodyVariant, nil
	}

	if meta != nil && constants.IsValidVariant(meta.CookieVariant) {
		return meta.CookieVariant, nil
	}

	return constants.VariantA, nil
}

func (s *waitlistService) ListEntries(ctx context.Context, page, perPage int) (*EntryListResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPageSize
	}

	entries, total, err := s.repository.ListEntries(ctx, (page-1)*perPage, perPage)
	if err != nil {
		logger.Error("Failed to list waitlist entries", "error", err)
		return nil, err
	}

	response := ToEntryListResponse(entries, total, page, perPage)
	return &response, nil
}

func (s *waitlistService) VariantStats(ctx context.Context) (*StatsResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	counts, err := s.repository.CountByVariant(ctx)
	if err != nil {
		logger.Error("Failed to count entries by variant", "error", err)
		return nil, err
	}

	// Both variants are always present in the response, even at zero.
	stats := map[string]int64{
		constants.VariantA: 0,
		constants.VariantB: 0,
	}
	var total int64
	for variant, count := range counts {
		stats[variant] = count
		total += count
	}

	return &StatsResponse{Total: total, Variants: stats}, nil
}

func (s *waitlistService) ExportCSV(ctx context.Context) ([]byte, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	entries, err := s.repository.GetAllEntries(ctx)
	if err != nil {
		logger.Error("Failed to fetch entries for export", "error", err)
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	records := make([][]string, 0, len(entries)+1)
	records = append(records, []string{"id", "email", "variant", "created_at"})
	for _, entry := range entries {
		records = append(records, []string{
			strconv.FormatUint(uint64(entry.ID), 10),
			entry.Email,
			entry.Variant,
			entry.CreatedAt.Format(constants.RFC3339DateTimeFormat),
		})
	}

	if err := writer.WriteAll(records); err != nil {
		logger.Error("Failed to render CSV export", "error", err)
		return nil, apperrors.NewInternalServerError("unable to render export", err)
	}

	logger.Info("Waitlist export rendered", "entries", len(entries))
	return buf.Bytes(), nil
}

func (s *waitlistService) DeleteEntry(ctx context.Context, id uint) error {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if id == 0 {
		logger.Error("DeleteEntry received invalid ID")
		return apperrors.NewInvalidRequestError("invalid entry ID", nil)
	}

	if err := s.repository.DeleteEntry(ctx, id); err != nil {
		logger.Error("Failed to delete waitlist entry", "id", id, "error", err)
		return err
	}

	return nil
}

package waitlist

import (
	"github.com/wayfarermaps/landing/internal/models"
	"github.com/wayfarermaps/landing/pkg/constants"
)

// SignupRequest intentionally avoids the validator's email tag. The service
// applies its own pattern so the accepted addresses match what the form and
// the docs promise.
type SignupRequest struct {
	Email   string `json:"email" binding:"required,max=254"`
	Variant string `json:"variant" binding:"omitempty,oneof=A B"`
}

// SignupMetadata carries request attributes the handler extracts for the
// service: caller address, user agent, and the experiment cookie value.
type SignupMetadata struct {
	SourceIP      string
	UserAgent     string
	CookieVariant string
}

type SignupResult struct {
	Message string
	Variant string
	Created bool
}

type EntryResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Variant   string `json:"variant"`
	CreatedAt string `json:"created_at"`
}

type EntryListResponse struct {
	Entries []EntryResponse `json:"entries"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

type StatsResponse struct {
	Total    int64            `json:"total"`
	Variants map[string]int64 `json:"variants"`
}

// ========================================
// Mappers
// ========================================

func ToEntryResponse(entry *models.WaitlistEntry) EntryResponse {
	if entry == nil {
		return EntryResponse{}
	}
	return EntryResponse{
		ID:        entry.ID,
		Email:     entry.Email,
		Variant:   entry.Variant,
		CreatedAt: entry.CreatedAt.Format(constants.RFC3339DateTimeFormat),
	}
}

func ToEntryListResponse(entries []*models.WaitlistEntry, total int64, page, perPage int) EntryListResponse {
	responses := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ToEntryResponse(entry))
	}
	return EntryListResponse{
		Entries: responses,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
}

package persistence

import (
	"strings"

	"github.com/printshop/backend/internal/domain/shared"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	return sortOrderOr(orderDir, "DESC")
}

func sortOrderOr(orderDir, fallback string) string {
	switch strings.ToUpper(strings.TrimSpace(orderDir)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	return fallback
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a whitelisted ORDER BY with id as the tie-breaker so
// pages stay stable.
func orderClause(filter shared.Filter, allowed map[string]bool, defaultField, defaultDir string) string {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := sortOrderOr(filter.OrderDir, defaultDir)
	return field + " " + dir + ", id " + dir
}

// MaterialSortFields contains allowed sort fields for materials
var MaterialSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"category":   true,
}

// PurchaseSortFields contains allowed sort fields for purchase documents
var PurchaseSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"doc_date":   true,
	"supplier":   true,
	"posted_at":  true,
	"status":     true,
}

// WriteoffSortFields contains allowed sort fields for write-off documents
var WriteoffSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"reason":     true,
	"total_cost": true,
}

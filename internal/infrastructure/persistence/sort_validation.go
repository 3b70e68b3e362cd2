package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
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

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// DueSortFields contains allowed sort fields for dues
var DueSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"pharmacy_id":    true,
	"due_type_id":    true,
	"year":           true,
	"title":          true,
	"total_amount":   true,
	"amount_paid":    true,
	"balance":        true,
	"payment_status": true,
	"assigned_at":    true,
	"due_date":       true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"due_id":          true,
	"pharmacy_id":     true,
	"amount":          true,
	"payment_method":  true,
	"approval_status": true,
	"submitted_at":    true,
	"approved_at":     true,
}

// PharmacySortFields contains allowed sort fields for pharmacies
var PharmacySortFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"registration_number": true,
	"name":                true,
	"email":               true,
	"status":              true,
	"registered_at":       true,
}

// DueTypeSortFields contains allowed sort fields for due types
var DueTypeSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"name":           true,
	"default_amount": true,
	"is_active":      true,
}

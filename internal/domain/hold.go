package domain

import "time"

// HoldType distinguishes why billable work was paused.
type HoldType string

const (
	HoldTypeParts HoldType = "PARTS"
	HoldTypeIssue HoldType = "ISSUE"
)

// HoldUrgency grades how quickly a parts hold needs resolution.
type HoldUrgency string

const (
	HoldUrgencyLow      HoldUrgency = "LOW"
	HoldUrgencyMedium   HoldUrgency = "MEDIUM"
	HoldUrgencyHigh     HoldUrgency = "HIGH"
	HoldUrgencyCritical HoldUrgency = "CRITICAL"
)

// ValidHoldUrgency reports whether the urgency is a known grade.
func ValidHoldUrgency(u HoldUrgency) bool {
	switch u {
	case HoldUrgencyLow, HoldUrgencyMedium, HoldUrgencyHigh, HoldUrgencyCritical:
		return true
	}
	return false
}

// IssueCategory classifies reported field issues.
type IssueCategory string

const (
	IssueCategoryEquipmentFailure    IssueCategory = "EQUIPMENT_FAILURE"
	IssueCategoryAccessDenied        IssueCategory = "ACCESS_DENIED"
	IssueCategorySafetyConcern       IssueCategory = "SAFETY_CONCERN"
	IssueCategoryScopeChange         IssueCategory = "SCOPE_CHANGE"
	IssueCategoryCustomerUnavailable IssueCategory = "CUSTOMER_UNAVAILABLE"
	IssueCategoryTechnicalLimitation IssueCategory = "TECHNICAL_LIMITATION"
	IssueCategoryOther               IssueCategory = "OTHER"
)

// ValidIssueCategory reports whether the category is known.
func ValidIssueCategory(c IssueCategory) bool {
	switch c {
	case IssueCategoryEquipmentFailure, IssueCategoryAccessDenied,
		IssueCategorySafetyConcern, IssueCategoryScopeChange,
		IssueCategoryCustomerUnavailable, IssueCategoryTechnicalLimitation,
		IssueCategoryOther:
		return true
	}
	return false
}

// IssueSeverity grades a reported issue.
type IssueSeverity string

const (
	IssueSeverityLow      IssueSeverity = "LOW"
	IssueSeverityMedium   IssueSeverity = "MEDIUM"
	IssueSeverityHigh     IssueSeverity = "HIGH"
	IssueSeverityCritical IssueSeverity = "CRITICAL"
)

// ValidIssueSeverity reports whether the severity is a known grade.
func ValidIssueSeverity(s IssueSeverity) bool {
	switch s {
	case IssueSeverityLow, IssueSeverityMedium, IssueSeverityHigh, IssueSeverityCritical:
		return true
	}
	return false
}

// Hold pauses a ticket's billable work pending parts or issue
// resolution. A ticket carries at most one active hold; resolved holds
// stay on record as an audit trail.
type Hold struct {
	ID              string
	TicketID        string
	Type            HoldType
	Urgency         HoldUrgency
	Summary         string
	Notes           string
	Active          bool
	CreatedAt       time.Time
	ResolvedAt      *time.Time
	ResolutionNotes *string
}

// PartsRequest is the detail record behind a parts hold.
type PartsRequest struct {
	ID        string
	HoldID    string
	TicketID  string
	Items     []PartsRequestItem
	CreatedAt time.Time
}

// PartsRequestItem is one requested part line.
type PartsRequestItem struct {
	ID              string
	PartID          string
	Quantity        int
	Notes           string
	PreferredSource *string
}

// IssueReport is the detail record behind an issue hold.
type IssueReport struct {
	ID          string
	HoldID      string
	TicketID    string
	Category    IssueCategory
	Severity    IssueSeverity
	Description string
	Metadata    map[string]any
	CreatedAt   time.Time
}

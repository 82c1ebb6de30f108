package models

import (
	"gorm.io/gorm"
)

// DiscoveryRecord persists one email discovery outcome per person and
// domain. Checks carries the raw verification signals as JSON so failed
// lookups stay explainable after the fact.
type DiscoveryRecord struct {
	gorm.Model
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`
	Domain    string `gorm:"not null;index:idx_discovery_person" json:"domain"`

	Email      string  `gorm:"index" json:"email,omitempty"`
	Status     string  `gorm:"not null" json:"status"` // found, not_found, no_mx, resolve_timeout
	Confidence float64 `gorm:"default:0" json:"confidence"`
	Mechanism  string  `json:"mechanism,omitempty"`
	Checks     string  `gorm:"type:jsonb" json:"checks,omitempty"`
	LatencyMS  int64   `json:"latency_ms"`
}

// Prospect is a company surfaced by research for a product pitch, with the
// decision makers found for it.
type Prospect struct {
	gorm.Model
	CompanyName string `gorm:"not null;uniqueIndex" json:"company_name"`
	Website     string `json:"website"`
	Industry    string `json:"industry"`
	Reason      string `gorm:"type:text" json:"reason"` // why this company fits the product

	DecisionMakers []DecisionMaker `gorm:"foreignKey:ProspectID" json:"decision_makers,omitempty"`
}

// DecisionMaker is a person worth contacting at a prospect company.
type DecisionMaker struct {
	gorm.Model
	ProspectID uint   `gorm:"not null;index" json:"prospect_id"`
	Name       string `gorm:"not null" json:"name"`
	Position   string `json:"position"`
	Email      string `json:"email,omitempty"`
	LinkedIn   string `json:"linkedin,omitempty"`
}

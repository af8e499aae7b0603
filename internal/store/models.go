package store

import (
	"fmt"
	"time"
)

// Company is a record imported from the companies dataset. Rows are loaded in
// bulk and treated as immutable afterwards.
type Company struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	Name             string `gorm:"column:company_name;size:500;not null" json:"company_name"`
	ActivityLabel    string `gorm:"column:cae_primary_label" json:"cae_primary_label,omitempty"`
	TradeDescription string `gorm:"column:trade_description_native" json:"trade_description_native,omitempty"`
	Website          string `gorm:"size:500" json:"website,omitempty"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Company) TableName() string { return "companies" }

// Incentive is a record imported from the incentives dataset.
type Incentive struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	AIDescription   string     `gorm:"column:ai_description" json:"ai_description,omitempty"`
	DocumentURLs    string     `gorm:"column:document_urls" json:"document_urls,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	TotalBudget     *float64   `json:"total_budget,omitempty"`
	SourceLink      string     `json:"source_link,omitempty"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Incentive) TableName() string { return "incentives" }

// Correspondence asserts that a company is a plausible match for an incentive.
// Rows are append-only: every finder invocation writes under a fresh run id and
// existing rows are never mutated. A pair appears at most once per run.
type Correspondence struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RunID       string    `gorm:"column:run_id;size:36;not null;index;uniqueIndex:idx_correspondences_run_pair,priority:1" json:"run_id"`
	CompanyID   uint      `gorm:"not null;uniqueIndex:idx_correspondences_run_pair,priority:2" json:"company_id"`
	IncentiveID uint      `gorm:"not null;uniqueIndex:idx_correspondences_run_pair,priority:3" json:"incentive_id"`
	Score       float64   `gorm:"not null" json:"score"`
	Rationale   string    `json:"rationale,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Company   Company   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Incentive Incentive `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Correspondence) TableName() string { return "correspondences" }

// Label returns a short human-readable description of the company for prompt
// and chat context building.
func (c *Company) Label() string {
	if c.ActivityLabel == "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.ActivityLabel)
}

type Companies []Company

func (c Companies) Len() int { return len(c) }

func (c Companies) IDs() []uint {
	ids := make([]uint, 0, len(c))
	for _, company := range c {
		ids = append(ids, company.ID)
	}
	return ids
}

type Incentives []Incentive

func (i Incentives) Len() int { return len(i) }

func (i Incentives) IDs() []uint {
	ids := make([]uint, 0, len(i))
	for _, incentive := range i {
		ids = append(ids, incentive.ID)
	}
	return ids
}

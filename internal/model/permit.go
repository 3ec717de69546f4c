// Package model defines the land-transaction-permit records shared across the pipeline.
package model

import (
	"time"
)

// ResidentialUse is the use-purpose value of rows the pipeline keeps.
const ResidentialUse = "주거용"

// HandlingDateLayout is the display form of a permit handling date.
const HandlingDateLayout = "2006-01-02"

// District is a Seoul autonomous district (gu) and its registry code.
type District struct {
	Name string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Code string `json:"code" yaml:"code" mapstructure:"code" validate:"required,numeric"`
}

// DefaultDistricts are the districts queried when none are configured.
var DefaultDistricts = []District{
	{Name: "서초구", Code: "11650"},
	{Name: "강남구", Code: "11680"},
	{Name: "송파구", Code: "11710"},
	{Name: "용산구", Code: "11170"},
}

// PermitRecord is one land-transaction-permit entry.
//
// Records are created by the fetcher, mutated in place by enrichment and
// read-only from deduplication onward.
type PermitRecord struct {
	HandlingDate *time.Time `json:"handling_date,omitempty"` // nil when the source date was unparsable
	Category     string     `json:"category"`
	UsePurpose   string     `json:"use_purpose"`
	Address      string     `json:"address"`
	SerialNo     string     `json:"serial_no"`

	// Derived during enrichment.
	NeighborhoodName string     `json:"neighborhood_name"`
	ApartmentName    string     `json:"apartment_name"`
	Building         Resolution `json:"-"`

	// Assigned by the orchestrator, constant per batch.
	DistrictName string `json:"district_name,omitempty"`
}

// HandlingDateString formats the handling date, or "" when unknown.
func (r PermitRecord) HandlingDateString() string {
	if r.HandlingDate == nil {
		return ""
	}
	return r.HandlingDate.Format(HandlingDateLayout)
}

// PermitBatch is the ordered record set for one district and date range.
type PermitBatch []PermitRecord

// Reasons a district contributes no records.
const (
	SkipEmpty       = "empty"
	SkipFetchError  = "fetch_error"
	SkipEnrichError = "enrich_error"
)

// DistrictStats summarizes one district's pass through the pipeline.
// SkipReason is set whenever Skipped is.
type DistrictStats struct {
	District   District `json:"district"`
	Fetched    int      `json:"fetched"`
	Deduped    int      `json:"deduped"`
	Skipped    bool     `json:"skipped"`
	SkipReason string   `json:"skip_reason,omitempty"`
	Error      string   `json:"error,omitempty"`
}

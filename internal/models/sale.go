package models

import (
	"fmt"
	"strings"
	"time"
)

// Provenance identifies the source a sale record was ingested from.
// It is decided once at ingestion and never inferred downstream.
type Provenance string

const (
	ProvenanceValuerGeneral Provenance = "valuer_general"
	ProvenanceListingSite   Provenance = "listing_site"
	ProvenanceManual        Provenance = "manual"
)

// Sale is a single recorded property sale. Records are append-only
// facts: the compute layer reads them but never mutates them.
type Sale struct {
	ID               int64      `json:"id"`
	DealingNumber    string     `json:"dealing_number"`
	PropertyID       string     `json:"property_id"`
	UnitNumber       *string    `json:"unit_number"`
	HouseNumber      string     `json:"house_number"`
	StreetName       string     `json:"street_name"`
	Suburb           string     `json:"suburb"`
	Postcode         string     `json:"postcode"`
	AreaSqm          *float64   `json:"area_sqm"`
	ZoneCode         string     `json:"zone_code"`
	NatureOfProperty string     `json:"nature_of_property"`
	StrataLotNumber  *string    `json:"strata_lot_number"`
	ContractDate     time.Time  `json:"contract_date"`
	SettlementDate   *time.Time `json:"settlement_date"`
	PurchasePrice    int        `json:"purchase_price"`
	PropertyType     string     `json:"property_type"`
	DistrictCode     int        `json:"district_code"`
	Provenance       Provenance `json:"provenance"`
	SourceFile       string     `json:"source_file"`
	IngestedAt       time.Time  `json:"ingested_at"`

	// Set by the external review process; read-only for the compute layer.
	IsVerifiedComparable bool `json:"is_verified_comparable"`
}

// Address returns a display address for the sale.
func (s *Sale) Address() string {
	var b strings.Builder
	if s.UnitNumber != nil && *s.UnitNumber != "" {
		fmt.Fprintf(&b, "%s/", *s.UnitNumber)
	}
	fmt.Fprintf(&b, "%s %s, %s", s.HouseNumber, s.StreetName, s.Suburb)
	return b.String()
}

// IngestRun records a single ingestion run for auditing.
type IngestRun struct {
	RunID            string     `json:"run_id"`
	RunType          string     `json:"run_type"`
	Trigger          string     `json:"trigger"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	Status           string     `json:"status"`
	RecordsProcessed int        `json:"records_processed"`
	ErrorMessage     string     `json:"error_message"`
}

package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"proptrack/server/internal/models"
)

// saleRow is the persistence shape for raw_sales writes. Dates are
// stored as plain YYYY-MM-DD strings so the read path can compare
// them lexically against window bounds.
type saleRow struct {
	ID               int64    `gorm:"column:id;primaryKey;autoIncrement"`
	DealingNumber    string   `gorm:"column:dealing_number"`
	PropertyID       string   `gorm:"column:property_id"`
	UnitNumber       *string  `gorm:"column:unit_number"`
	HouseNumber      string   `gorm:"column:house_number"`
	StreetName       string   `gorm:"column:street_name"`
	Suburb           string   `gorm:"column:suburb"`
	Postcode         string   `gorm:"column:postcode"`
	AreaSqm          *float64 `gorm:"column:area_sqm"`
	ZoneCode         string   `gorm:"column:zone_code"`
	NatureOfProperty string   `gorm:"column:nature_of_property"`
	StrataLotNumber  *string  `gorm:"column:strata_lot_number"`
	ContractDate     string   `gorm:"column:contract_date"`
	SettlementDate   *string  `gorm:"column:settlement_date"`
	PurchasePrice    int      `gorm:"column:purchase_price"`
	PropertyType     string   `gorm:"column:property_type"`
	DistrictCode     int      `gorm:"column:district_code"`
	Provenance       string   `gorm:"column:provenance"`
	SourceFile       string   `gorm:"column:source_file"`
	IngestedAt       string   `gorm:"column:ingested_at"`
}

func (saleRow) TableName() string {
	return "raw_sales"
}

func newSaleRow(s *models.Sale) saleRow {
	row := saleRow{
		DealingNumber:    s.DealingNumber,
		PropertyID:       s.PropertyID,
		UnitNumber:       s.UnitNumber,
		HouseNumber:      s.HouseNumber,
		StreetName:       s.StreetName,
		Suburb:           s.Suburb,
		Postcode:         s.Postcode,
		AreaSqm:          s.AreaSqm,
		ZoneCode:         s.ZoneCode,
		NatureOfProperty: s.NatureOfProperty,
		StrataLotNumber:  s.StrataLotNumber,
		ContractDate:     s.ContractDate.Format("2006-01-02"),
		PurchasePrice:    s.PurchasePrice,
		PropertyType:     s.PropertyType,
		DistrictCode:     s.DistrictCode,
		Provenance:       string(s.Provenance),
		SourceFile:       s.SourceFile,
	}

	if s.SettlementDate != nil {
		settlement := s.SettlementDate.Format("2006-01-02")
		row.SettlementDate = &settlement
	}

	ingestedAt := s.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now().UTC()
	}
	row.IngestedAt = ingestedAt.Format(time.RFC3339)

	return row
}

// UpsertSales writes a batch of sales inside an existing transaction.
// Conflicts on (dealing_number, property_id) replace the stored record,
// so re-ingesting a source file is idempotent.
func UpsertSales(tx *gorm.DB, sales []*models.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	rows := make([]saleRow, 0, len(sales))
	for _, s := range sales {
		rows = append(rows, newSaleRow(s))
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dealing_number"}, {Name: "property_id"}},
		UpdateAll: true,
	}).CreateInBatches(rows, 500).Error
	if err != nil {
		return fmt.Errorf("failed to upsert sales: %w", err)
	}

	return nil
}

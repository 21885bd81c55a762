package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"proptrack/server/internal/models"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}

const saleColumns = `
        s.id, s.dealing_number, s.property_id, s.unit_number, s.house_number,
        s.street_name, s.suburb, s.postcode, s.area_sqm, s.zone_code,
        s.nature_of_property, s.strata_lot_number, s.contract_date,
        s.settlement_date, s.purchase_price, s.property_type, s.district_code,
        s.provenance, s.source_file,
        COALESCE(s.ingested_at, CURRENT_TIMESTAMP) as ingested_at`

// PeriodPrices returns the sale prices matching the segment filter
// within [start, end] inclusive.
func (d *Database) PeriodPrices(filter models.SegmentFilter, start, end time.Time) ([]int, error) {
	query := `
        SELECT s.purchase_price
        FROM raw_sales s
        WHERE s.contract_date BETWEEN ? AND ?
    `
	args := []interface{}{start.Format("2006-01-02"), end.Format("2006-01-02")}

	clause, clauseArgs := buildFilterClause(filter)
	query += clause
	args = append(args, clauseArgs...)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query period prices: %v", err)
	}
	defer rows.Close()

	var prices []int
	for rows.Next() {
		var price int
		if err := rows.Scan(&price); err != nil {
			return nil, fmt.Errorf("failed to scan price: %v", err)
		}
		prices = append(prices, price)
	}

	return prices, rows.Err()
}

// SalesInRange returns the full sale rows matching the segment filter
// within [start, end] inclusive.
func (d *Database) SalesInRange(filter models.SegmentFilter, start, end time.Time) ([]models.Sale, error) {
	query := `
        SELECT ` + saleColumns + `
        FROM raw_sales s
        WHERE s.contract_date BETWEEN ? AND ?
    `
	args := []interface{}{start.Format("2006-01-02"), end.Format("2006-01-02")}

	clause, clauseArgs := buildFilterClause(filter)
	query += clause
	args = append(args, clauseArgs...)
	query += " ORDER BY s.contract_date"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %v", err)
	}
	defer rows.Close()

	return scanSales(rows, false)
}

// VerifiedComparables returns every sale matching the segment filter
// that the review process approved for median use. The full verified
// history is returned, not a window: verified sales feed the
// time-adjusted estimator, which handles age itself.
func (d *Database) VerifiedComparables(filter models.SegmentFilter) ([]models.Sale, error) {
	query := `
        SELECT ` + saleColumns + `
        FROM raw_sales s
        JOIN sale_classifications sc
          ON sc.dealing_number = s.dealing_number
        WHERE sc.review_status = 'comparable'
          AND sc.use_in_median = 1
    `
	var args []interface{}

	clause, clauseArgs := buildFilterClause(filter)
	query += clause
	args = append(args, clauseArgs...)
	query += " ORDER BY s.contract_date"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query verified comparables: %v", err)
	}
	defer rows.Close()

	return scanSales(rows, true)
}

func scanSales(rows *sql.Rows, verified bool) ([]models.Sale, error) {
	var sales []models.Sale
	for rows.Next() {
		var s models.Sale
		var unitNumber, strataLot, zoneCode, nature, provenance, sourceFile sql.NullString
		var settlementDate, contractDate, ingestedAt sql.NullString
		var areaSqm sql.NullFloat64

		err := rows.Scan(
			&s.ID,
			&s.DealingNumber,
			&s.PropertyID,
			&unitNumber,
			&s.HouseNumber,
			&s.StreetName,
			&s.Suburb,
			&s.Postcode,
			&areaSqm,
			&zoneCode,
			&nature,
			&strataLot,
			&contractDate,
			&settlementDate,
			&s.PurchasePrice,
			&s.PropertyType,
			&s.DistrictCode,
			&provenance,
			&sourceFile,
			&ingestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %v", err)
		}

		if unitNumber.Valid {
			s.UnitNumber = &unitNumber.String
		}
		if strataLot.Valid {
			s.StrataLotNumber = &strataLot.String
		}
		if zoneCode.Valid {
			s.ZoneCode = zoneCode.String
		}
		if nature.Valid {
			s.NatureOfProperty = nature.String
		}
		if provenance.Valid {
			s.Provenance = models.Provenance(provenance.String)
		}
		if sourceFile.Valid {
			s.SourceFile = sourceFile.String
		}
		if areaSqm.Valid {
			area := areaSqm.Float64
			s.AreaSqm = &area
		}

		if contractDate.Valid && contractDate.String != "" {
			if t, err := time.Parse("2006-01-02", contractDate.String); err == nil {
				s.ContractDate = t
			}
		}
		if settlementDate.Valid && settlementDate.String != "" {
			if t, err := time.Parse("2006-01-02", settlementDate.String); err == nil {
				s.SettlementDate = &t
			}
		}
		if ingestedAt.Valid && ingestedAt.String != "" {
			if t, err := time.Parse(time.RFC3339, ingestedAt.String); err == nil {
				s.IngestedAt = t
			}
		}

		s.IsVerifiedComparable = verified
		sales = append(sales, s)
	}

	return sales, rows.Err()
}

// SetReviewStatus records the outcome of a manual comparable review
// for a sale.
func (d *Database) SetReviewStatus(dealingNumber string, comparable bool, reviewedBy string) error {
	status := "not_comparable"
	useInMedian := 0
	if comparable {
		status = "comparable"
		useInMedian = 1
	}

	_, err := d.db.Exec(`
        INSERT INTO sale_classifications (dealing_number, review_status, use_in_median, reviewed_by, reviewed_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(dealing_number) DO UPDATE SET
            review_status = excluded.review_status,
            use_in_median = excluded.use_in_median,
            reviewed_by = excluded.reviewed_by,
            reviewed_at = excluded.reviewed_at
    `, dealingNumber, status, useInMedian, reviewedBy, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to set review status: %v", err)
	}

	return nil
}

// StartRun records the beginning of an ingestion run and returns its ID.
func (d *Database) StartRun(runType, trigger string) (string, error) {
	runID := uuid.New().String()

	_, err := d.db.Exec(`
        INSERT INTO ingest_runs (run_id, run_type, triggered_by, started_at, status)
        VALUES (?, ?, ?, ?, 'running')
    `, runID, runType, trigger, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("failed to start run: %v", err)
	}

	return runID, nil
}

// CompleteRun marks an ingestion run as finished.
func (d *Database) CompleteRun(runID, status string, recordsProcessed int, errorMessage string) error {
	_, err := d.db.Exec(`
        UPDATE ingest_runs
        SET completed_at = ?, status = ?, records_processed = ?, error_message = ?
        WHERE run_id = ?
    `, time.Now().UTC().Format(time.RFC3339), status, recordsProcessed, errorMessage, runID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %v", err)
	}

	return nil
}

// GetLastSuccessfulRun returns the most recent completed run of the
// given type, or nil if none exists.
func (d *Database) GetLastSuccessfulRun(runType string) (*models.IngestRun, error) {
	var run models.IngestRun
	var completedAt, errorMessage sql.NullString
	var startedAt string

	err := d.db.QueryRow(`
        SELECT run_id, run_type, triggered_by, started_at, completed_at, status,
               records_processed, error_message
        FROM ingest_runs
        WHERE run_type = ? AND status = 'completed'
        ORDER BY started_at DESC
        LIMIT 1
    `, runType).Scan(
		&run.RunID,
		&run.RunType,
		&run.Trigger,
		&startedAt,
		&completedAt,
		&run.Status,
		&run.RecordsProcessed,
		&errorMessage,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last run: %v", err)
	}

	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}
	if completedAt.Valid && completedAt.String != "" {
		if t, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
			run.CompletedAt = &t
		}
	}
	if errorMessage.Valid {
		run.ErrorMessage = errorMessage.String
	}

	return &run, nil
}

// CountSales returns the total number of raw sales.
func (d *Database) CountSales() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM raw_sales").Scan(&count)
	return count, err
}

package database

import "fmt"

func (d *Database) RunMigrations() error {
	// Core sales table: append-only facts from the sale record feeds
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS raw_sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dealing_number TEXT NOT NULL,
			property_id TEXT DEFAULT '',
			unit_number TEXT,
			house_number TEXT,
			street_name TEXT NOT NULL,
			suburb TEXT NOT NULL,
			postcode TEXT NOT NULL,
			area_sqm REAL,
			zone_code TEXT,
			nature_of_property TEXT,
			strata_lot_number TEXT,
			contract_date DATE NOT NULL,
			settlement_date DATE,
			purchase_price INTEGER NOT NULL,
			property_type TEXT CHECK(property_type IN ('house', 'unit', 'land', 'other')),
			district_code INTEGER NOT NULL DEFAULT 0,
			provenance TEXT DEFAULT 'valuer_general',
			source_file TEXT,
			ingested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(dealing_number, property_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create raw_sales table: %v", err)
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_raw_sales_suburb_date
		ON raw_sales(suburb, contract_date);
	`)
	if err != nil {
		return fmt.Errorf("failed to create suburb/date index: %v", err)
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_raw_sales_type_suburb
		ON raw_sales(property_type, suburb, contract_date);
	`)
	if err != nil {
		return fmt.Errorf("failed to create type/suburb index: %v", err)
	}

	// Review outcomes: set by the manual comparable review, read by
	// the metrics engine
	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS sale_classifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dealing_number TEXT NOT NULL UNIQUE,
			review_status TEXT DEFAULT 'pending'
				CHECK(review_status IN ('pending', 'comparable', 'not_comparable')),
			use_in_median BOOLEAN DEFAULT FALSE,
			reviewed_by TEXT,
			reviewed_at TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create sale_classifications table: %v", err)
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sale_classifications_median
		ON sale_classifications(use_in_median);
	`)
	if err != nil {
		return fmt.Errorf("failed to create classification index: %v", err)
	}

	// Ingestion run bookkeeping
	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS ingest_runs (
			run_id TEXT PRIMARY KEY,
			run_type TEXT NOT NULL,
			triggered_by TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			status TEXT DEFAULT 'running'
				CHECK(status IN ('running', 'completed', 'failed')),
			records_processed INTEGER DEFAULT 0,
			error_message TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create ingest_runs table: %v", err)
	}

	return nil
}

package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"proptrack/server/internal/models"
)

// District codes for the tracked council areas.
// Canterbury-Bankstown (Revesby): 108
// North Sydney (Wollstonecraft): 118
// Lane Cove: 87
// Willoughby (Chatswood): 145
var TargetDistricts = map[int]bool{
	108: true,
	118: true,
	87:  true,
	145: true,
}

// Tracked suburbs, lowercase for matching.
var TargetSuburbs = map[string]bool{
	"revesby":         true,
	"revesby heights": true,
	"wollstonecraft":  true,
	"lane cove":       true,
	"lane cove north": true,
	"lane cove west":  true,
	"chatswood":       true,
	"chatswood west":  true,
}

const maxSanePrice = 100_000_000

// Parser reads bulk sale record CSV exports and normalises them into
// Sale records. Feeds publish the same data under both snake_case and
// Title Case headers, so lookups try both.
type Parser struct {
	districts map[int]bool
	suburbs   map[string]bool
	logger    *logrus.Logger
}

// NewParser creates a parser restricted to the given districts and
// suburbs. Nil maps fall back to the tracked defaults.
func NewParser(districts map[int]bool, suburbs map[string]bool, logger *logrus.Logger) *Parser {
	if districts == nil {
		districts = TargetDistricts
	}
	if suburbs == nil {
		suburbs = TargetSuburbs
	}
	return &Parser{
		districts: districts,
		suburbs:   suburbs,
		logger:    logger,
	}
}

// ParseFile parses a single CSV file and returns the sales that pass
// the district and suburb filters. Invalid rows are skipped, not fatal.
func (p *Parser) ParseFile(path string) ([]*models.Sale, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	p.logger.WithField("file", path).Info("Parsing sales file")
	return p.parse(f, filepath.Base(path))
}

// ParseDir parses every CSV file in a directory in name order.
func (p *Parser) ParseDir(dir string) ([]*models.Sale, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(matches)

	p.logger.WithFields(logrus.Fields{
		"directory": dir,
		"files":     len(matches),
	}).Info("Found sales files")

	var sales []*models.Sale
	for _, path := range matches {
		parsed, err := p.ParseFile(path)
		if err != nil {
			return nil, err
		}
		sales = append(sales, parsed...)
	}
	return sales, nil
}

func (p *Parser) parse(r io.Reader, sourceFile string) ([]*models.Sale, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normaliseHeader(name)] = i
	}

	var sales []*models.Sale
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.logger.WithError(err).Warn("Skipping malformed row")
			continue
		}

		row := rowReader{columns: columns, record: record}

		districtCode := safeInt(row.get("district_code"))
		if len(p.districts) > 0 && !p.districts[districtCode] {
			continue
		}

		suburb := strings.ToLower(strings.TrimSpace(row.get("suburb")))
		if len(p.suburbs) > 0 && !p.suburbs[suburb] {
			continue
		}

		sale := p.parseRow(row, sourceFile)
		if sale != nil {
			sales = append(sales, sale)
		}
	}

	return sales, nil
}

func (p *Parser) parseRow(row rowReader, sourceFile string) *models.Sale {
	dealingNumber := strings.TrimSpace(row.get("dealing_number"))
	if dealingNumber == "" {
		return nil
	}

	price := safeInt(row.get("purchase_price"))
	if price <= 0 || price > maxSanePrice {
		return nil
	}

	contractDate, ok := parseDate(row.get("contract_date"))
	if !ok {
		p.logger.WithField("dealing_number", dealingNumber).Warn("Skipping sale without contract date")
		return nil
	}

	var settlementDate *time.Time
	if t, ok := parseDate(row.get("settlement_date")); ok {
		settlementDate = &t
	}

	var unitNumber *string
	if u := strings.TrimSpace(row.get("unit_number")); u != "" {
		unitNumber = &u
	}

	strataLot := strings.TrimSpace(row.get("strata_lot_number"))
	var strataLotNumber *string
	if strataLot != "" {
		strataLotNumber = &strataLot
	}
	nature := strings.TrimSpace(row.get("nature_of_property"))

	return &models.Sale{
		DealingNumber:    dealingNumber,
		PropertyID:       strings.TrimSpace(row.get("property_id")),
		UnitNumber:       unitNumber,
		HouseNumber:      strings.TrimSpace(row.get("house_number")),
		StreetName:       strings.TrimSpace(row.get("street_name")),
		Suburb:           strings.TrimSpace(row.get("suburb")),
		Postcode:         strings.TrimSpace(row.get("postcode")),
		AreaSqm:          safeFloat(row.get("area")),
		ZoneCode:         strings.TrimSpace(row.get("zone_code")),
		NatureOfProperty: nature,
		StrataLotNumber:  strataLotNumber,
		ContractDate:     contractDate,
		SettlementDate:   settlementDate,
		PurchasePrice:    price,
		PropertyType:     ClassifyPropertyType(strataLot, nature),
		DistrictCode:     safeInt(row.get("district_code")),
		Provenance:       models.ProvenanceValuerGeneral,
		SourceFile:       sourceFile,
	}
}

// ClassifyPropertyType buckets a sale as house, unit, land, or other.
// A strata lot number always means a unit; otherwise the free-text
// nature field decides, defaulting residential to house.
func ClassifyPropertyType(strataLot, nature string) string {
	natureLower := strings.ToLower(nature)

	if strataLot != "" {
		return "unit"
	}

	if strings.Contains(natureLower, "vacant") || strings.Contains(natureLower, "land") {
		return "land"
	}

	// Residence without a strata lot reads as a house
	if strings.Contains(natureLower, "residence") {
		return "house"
	}

	if strings.Contains(natureLower, "unit") ||
		strings.Contains(natureLower, "flat") ||
		strings.Contains(natureLower, "apartment") {
		return "unit"
	}

	if strings.Contains(natureLower, "house") || strings.Contains(natureLower, "dwelling") {
		return "house"
	}

	if strings.Contains(natureLower, "commercial") || strings.Contains(natureLower, "industrial") {
		return "other"
	}

	return "house"
}

// rowReader looks a field up by its snake_case name, falling back to
// the Title Case variant some exports use.
type rowReader struct {
	columns map[string]int
	record  []string
}

func (r rowReader) get(name string) string {
	idx, ok := r.columns[name]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return r.record[idx]
}

func normaliseHeader(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return strings.ReplaceAll(name, " ", "_")
}

var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func safeInt(value string) int {
	clean := cleanNumber(value)
	if clean == "" {
		return 0
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func safeFloat(value string) *float64 {
	clean := cleanNumber(value)
	if clean == "" {
		return nil
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil
	}
	return &f
}

func cleanNumber(value string) string {
	value = strings.ReplaceAll(value, ",", "")
	value = strings.ReplaceAll(value, "$", "")
	return strings.TrimSpace(value)
}

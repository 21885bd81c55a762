package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptrack/server/internal/models"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestClassifyPropertyType(t *testing.T) {
	tests := []struct {
		name      string
		strataLot string
		nature    string
		expected  string
	}{
		{"strata lot is unit", "SP12345", "Residence", "unit"},
		{"residence without strata is house", "", "Residence", "house"},
		{"vacant land", "", "Vacant Land", "land"},
		{"unit in nature", "", "Unit", "unit"},
		{"flat in nature", "", "Flat", "unit"},
		{"house in nature", "", "House", "house"},
		{"commercial is other", "", "Commercial", "other"},
		{"empty defaults to house", "", "", "house"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyPropertyType(tt.strataLot, tt.nature))
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		ok       bool
	}{
		{"iso format", "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"au format", "15/01/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"au format with dashes", "15-01-2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"whitespace trimmed", "  2024-01-15  ", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"invalid", "not-a-date", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, ok := parseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, parsed)
			}
		})
	}
}

func TestSafeInt(t *testing.T) {
	assert.Equal(t, 123, safeInt("123"))
	assert.Equal(t, 1234567, safeInt("1,234,567"))
	assert.Equal(t, 1500000, safeInt("$1,500,000"))
	assert.Equal(t, 123, safeInt("123.45"))
	assert.Equal(t, 0, safeInt(""))
	assert.Equal(t, 0, safeInt("abc"))
}

func TestSafeFloat(t *testing.T) {
	v := safeFloat("123.45")
	require.NotNil(t, v)
	assert.Equal(t, 123.45, *v)

	v = safeFloat("1,234.56")
	require.NotNil(t, v)
	assert.Equal(t, 1234.56, *v)

	assert.Nil(t, safeFloat(""))
	assert.Nil(t, safeFloat("abc"))
}

func TestParser_ParseFile(t *testing.T) {
	csvContent := `dealing_number,property_id,unit_number,house_number,street_name,suburb,postcode,area,zone_code,nature_of_property,strata_lot_number,contract_date,settlement_date,purchase_price,district_code
DN123456,P001,,11,Alliance Ave,Revesby,2212,500,R2,Residence,,2024-01-15,2024-02-15,1500000,108
DN123457,P002,2,10,Smith St,Wollstonecraft,2065,80,R3,Residence,SP12345,2024-01-20,2024-02-20,850000,118
`
	path := writeCSV(t, csvContent)

	parser := NewParser(
		map[int]bool{108: true, 118: true},
		map[string]bool{"revesby": true, "wollstonecraft": true},
		logrus.New(),
	)

	sales, err := parser.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, sales, 2)

	house := sales[0]
	assert.Equal(t, "DN123456", house.DealingNumber)
	assert.Equal(t, "Revesby", house.Suburb)
	assert.Equal(t, 1500000, house.PurchasePrice)
	assert.Equal(t, "house", house.PropertyType)
	assert.Equal(t, models.ProvenanceValuerGeneral, house.Provenance)
	assert.Equal(t, "test.csv", house.SourceFile)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), house.ContractDate)
	require.NotNil(t, house.SettlementDate)
	require.NotNil(t, house.AreaSqm)
	assert.Equal(t, 500.0, *house.AreaSqm)

	unit := sales[1]
	assert.Equal(t, "DN123457", unit.DealingNumber)
	require.NotNil(t, unit.UnitNumber)
	assert.Equal(t, "2", *unit.UnitNumber)
	assert.Equal(t, "unit", unit.PropertyType)
	assert.Equal(t, "2/10 Smith St, Wollstonecraft", unit.Address())
}

func TestParser_TitleCaseHeaders(t *testing.T) {
	csvContent := `Dealing Number,House Number,Street Name,Suburb,Postcode,Contract Date,Purchase Price,District Code,Nature Of Property,Strata Lot Number
DN001,1,Test St,Revesby,2212,2024-01-15,1000000,108,Residence,
`
	path := writeCSV(t, csvContent)

	parser := NewParser(map[int]bool{108: true}, map[string]bool{"revesby": true}, logrus.New())
	sales, err := parser.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "DN001", sales[0].DealingNumber)
}

func TestParser_FiltersByDistrict(t *testing.T) {
	csvContent := `dealing_number,house_number,street_name,suburb,postcode,contract_date,purchase_price,district_code,nature_of_property,strata_lot_number
DN001,1,Test St,Revesby,2212,2024-01-15,1000000,108,Residence,
DN002,2,Other St,Revesby,2000,2024-01-15,2000000,999,Residence,
`
	path := writeCSV(t, csvContent)

	parser := NewParser(map[int]bool{108: true}, map[string]bool{"revesby": true}, logrus.New())
	sales, err := parser.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "DN001", sales[0].DealingNumber)
}

func TestParser_FiltersBySuburb(t *testing.T) {
	csvContent := `dealing_number,house_number,street_name,suburb,postcode,contract_date,purchase_price,district_code,nature_of_property,strata_lot_number
DN001,1,Test St,Revesby,2212,2024-01-15,1000000,108,Residence,
DN002,2,Other St,Sydney,2000,2024-01-15,2000000,108,Residence,
`
	path := writeCSV(t, csvContent)

	parser := NewParser(map[int]bool{108: true}, map[string]bool{"revesby": true}, logrus.New())
	sales, err := parser.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "Revesby", sales[0].Suburb)
}

func TestParser_SkipsInvalidRows(t *testing.T) {
	csvContent := `dealing_number,house_number,street_name,suburb,postcode,contract_date,purchase_price,district_code,nature_of_property,strata_lot_number
DN001,1,Test St,Revesby,2212,2024-01-15,0,108,Residence,
,2,Test St,Revesby,2212,2024-01-15,1000000,108,Residence,
DN003,3,Test St,Revesby,2212,,1000000,108,Residence,
DN004,4,Test St,Revesby,2212,2024-01-15,1000000,108,Residence,
`
	path := writeCSV(t, csvContent)

	parser := NewParser(map[int]bool{108: true}, map[string]bool{"revesby": true}, logrus.New())
	sales, err := parser.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "DN004", sales[0].DealingNumber)
}

func TestParser_ParseDir(t *testing.T) {
	dir := t.TempDir()
	header := "dealing_number,house_number,street_name,suburb,postcode,contract_date,purchase_price,district_code,nature_of_property,strata_lot_number\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"),
		[]byte(header+"DN002,2,Test St,Revesby,2212,2024-02-15,1100000,108,Residence,\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"),
		[]byte(header+"DN001,1,Test St,Revesby,2212,2024-01-15,1000000,108,Residence,\n"), 0644))

	parser := NewParser(nil, nil, logrus.New())
	sales, err := parser.ParseDir(dir)
	require.NoError(t, err)
	require.Len(t, sales, 2)

	// Files are read in name order
	assert.Equal(t, "DN001", sales[0].DealingNumber)
	assert.Equal(t, "a.csv", sales[0].SourceFile)
	assert.Equal(t, "DN002", sales[1].DealingNumber)
}

package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"goperm/domain/core"
	"goperm/domain/dataset"
)

// Columns whose values all parse as numbers are read as numeric unless their
// cardinality is this low, in which case they are treated as categorical codes.
const (
	maxCategoricalLevels = 20
	categoricalRatio     = 0.1
)

// DataReader loads an Excel or CSV file into a dataset. Column kinds are
// inferred from the cell values: a column where every non-empty cell parses as
// a number becomes numeric, everything else becomes categorical.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
}

// NewDataReader creates a reader for an .xlsx or .csv file
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, sheet: "Sheet1"}
}

// WithSheet overrides the worksheet name used for xlsx files
func (r *DataReader) WithSheet(sheet string) *DataReader {
	if sheet != "" {
		r.sheet = sheet
	}
	return r
}

// ReadDataset reads the file into a dataset
func (r *DataReader) ReadDataset() (*dataset.Dataset, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}

	return r.buildDataset(rows)
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.sheet, err)
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", r.sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	startTime := time.Now()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return rows, nil
}

// buildDataset converts raw string rows into typed columns
func (r *DataReader) buildDataset(rows [][]string) (*dataset.Dataset, error) {
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
		if headers[i] == "" {
			return nil, core.NewInvalidArgumentError("header", fmt.Sprintf("column %d has an empty name", i+1))
		}
	}

	nRows := len(rows) - 1
	raw := make([][]string, len(headers))
	for j := range raw {
		raw[j] = make([]string, nRows)
	}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		for j := range headers {
			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			if cell == "" {
				return nil, core.NewInvalidArgumentError(headers[j], fmt.Sprintf("empty cell at row %d", i+1))
			}
			raw[j][i-1] = cell
		}
	}

	cols := make([]dataset.Column, len(headers))
	for j, name := range headers {
		cols[j] = inferColumn(name, raw[j])
	}

	ds, err := dataset.New(cols...)
	if err != nil {
		return nil, err
	}

	numeric := 0
	for _, c := range cols {
		if c.Kind == dataset.KindNumeric {
			numeric++
		}
	}
	log.Printf("[DataReader] %s file processed (%d columns: %d numeric, %d categorical; %d rows)",
		strings.ToUpper(r.fileType), len(cols), numeric, len(cols)-numeric, nRows)

	return ds, nil
}

// inferColumn types a column from its string values
func inferColumn(name string, values []string) dataset.Column {
	nums := make([]float64, len(values))
	unique := make(map[string]bool, len(values))
	allNumeric := true
	allInteger := true

	for i, v := range values {
		unique[v] = true
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			allNumeric = false
			break
		}
		if f != math.Trunc(f) {
			allInteger = false
		}
		nums[i] = f
	}

	if allNumeric {
		// Low-cardinality integer columns are usually coded categories
		uniqueRatio := float64(len(unique)) / float64(len(values))
		if allInteger && len(unique) <= maxCategoricalLevels && uniqueRatio < categoricalRatio {
			return dataset.Column{Name: name, Kind: dataset.KindCategorical, Cats: append([]string(nil), values...)}
		}
		return dataset.Column{Name: name, Kind: dataset.KindNumeric, Nums: nums}
	}

	return dataset.Column{Name: name, Kind: dataset.KindCategorical, Cats: append([]string(nil), values...)}
}

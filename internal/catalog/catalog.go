package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrMissingColumns = errors.New("candidate sheet needs brand and item id columns")

var (
	brandHeaders = []string{"brand", "brand_name", "shop", "品牌"}
	itemHeaders  = []string{"item_id", "itemid", "item id", "id", "num_iid", "product_id", "商品id"}
)

// Candidate is one row of the candidate sheet.
type Candidate struct {
	Brand  string
	ItemID string
}

type BrandCount struct {
	Brand string
	Count int
}

// Sheet is the list of marketplace items queued for import.
type Sheet struct {
	Candidates []Candidate
}

// Load reads an .xlsx (first worksheet) or .csv candidate sheet.
func Load(path string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadXLSX(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open candidate sheet: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	}
	return nil, fmt.Errorf("unsupported candidate sheet format %q", filepath.Ext(path))
}

func loadXLSX(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open candidate sheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("candidate sheet has no worksheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", sheets[0], err)
	}
	return fromRows(rows)
}

// ReadCSV parses a CSV candidate sheet with a header row.
func ReadCSV(r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (*Sheet, error) {
	if len(rows) == 0 {
		return nil, ErrMissingColumns
	}
	brandCol := findColumn(rows[0], brandHeaders)
	itemCol := findColumn(rows[0], itemHeaders)
	if brandCol < 0 || itemCol < 0 {
		return nil, fmt.Errorf("%w (header: %v)", ErrMissingColumns, rows[0])
	}

	sheet := &Sheet{}
	for _, row := range rows[1:] {
		brand := cell(row, brandCol)
		item := normalizeItemID(cell(row, itemCol))
		if brand == "" || item == "" {
			continue
		}
		sheet.Candidates = append(sheet.Candidates, Candidate{Brand: brand, ItemID: item})
	}
	return sheet, nil
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// normalizeItemID undoes spreadsheet float formatting ("6.5e11", "123.0").
func normalizeItemID(s string) string {
	s = strings.TrimSuffix(s, ".0")
	if strings.ContainsAny(s, "eE") {
		var f float64
		if _, err := fmt.Sscanf(s, "%g", &f); err == nil {
			return fmt.Sprintf("%.0f", f)
		}
	}
	return s
}

// ItemsForBrand returns the distinct item IDs of a brand (case-insensitive)
// in sheet order.
func (s *Sheet) ItemsForBrand(brand string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range s.Candidates {
		if !strings.EqualFold(c.Brand, strings.TrimSpace(brand)) || seen[c.ItemID] {
			continue
		}
		seen[c.ItemID] = true
		ids = append(ids, c.ItemID)
	}
	return ids
}

// BrandStats counts distinct items per brand, most items first.
func (s *Sheet) BrandStats() []BrandCount {
	counts := make(map[string]map[string]bool)
	names := make(map[string]string)
	for _, c := range s.Candidates {
		k := strings.ToLower(c.Brand)
		if counts[k] == nil {
			counts[k] = make(map[string]bool)
			names[k] = c.Brand
		}
		counts[k][c.ItemID] = true
	}

	stats := make([]BrandCount, 0, len(counts))
	for k, items := range counts {
		stats = append(stats, BrandCount{Brand: names[k], Count: len(items)})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Brand < stats[j].Brand
	})
	return stats
}

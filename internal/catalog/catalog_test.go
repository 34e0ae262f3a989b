package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sheetCSV = `Brand,Item ID,notes
ADER,1001,
ader,1002,restock
Quiet Lines,2001,
ADER,1001,duplicate
,3001,no brand
Quiet Lines,6.5e+11,
`

func TestReadCSV(t *testing.T) {
	s, err := ReadCSV(strings.NewReader(sheetCSV))
	require.NoError(t, err)
	assert.Len(t, s.Candidates, 5)

	assert.Equal(t, []string{"1001", "1002"}, s.ItemsForBrand("Ader"))
	assert.Equal(t, []string{"2001", "650000000000"}, s.ItemsForBrand("quiet lines"))
	assert.Empty(t, s.ItemsForBrand("nobody"))

	assert.Equal(t, []BrandCount{{Brand: "ADER", Count: 2}, {Brand: "Quiet Lines", Count: 2}}, s.BrandStats())
}

func TestReadCSVMissingColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("name,price\nx,1\n"))
	require.ErrorIs(t, err, ErrMissingColumns)

	_, err = ReadCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrMissingColumns)
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"品牌", "商品ID"},
		{"ADER", "1001"},
		{"ADER", "1003"},
		{"Quiet Lines", "2001"},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1001", "1003"}, s.ItemsForBrand("ADER"))
	assert.Equal(t, "ADER", s.BrandStats()[0].Brand)
}

func TestLoadCSVFileAndUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.csv")
	require.NoError(t, os.WriteFile(path, []byte(sheetCSV), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Candidates, 5)

	_, err = Load("candidates.json")
	require.Error(t, err)
}

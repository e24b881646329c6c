package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	enc "github.com/halaqahq/halaqa/internal/encoding"
	"github.com/halaqahq/halaqa/internal/hijri"
	"github.com/halaqahq/halaqa/internal/student"
)

// Importer reads student roster CSV exports and produces student params.
// The header language (Arabic or English) is auto-detected by matching
// column names against known profiles.
type Importer struct{}

func New() *Importer {
	return &Importer{}
}

func (i *Importer) Parse(r io.Reader) ([]student.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching roster format found: expected a name column (الاسم or name)")
	}

	return parseRows(profile, cols, rows[headerIdx+1:])
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[strings.ToLower(name)] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[strings.ToLower(name)]; !ok {
			return false
		}
	}

	return true
}

func parseRows(p *Profile, cols colIndex, rows [][]string) ([]student.CreateParams, error) {
	nameIdx := cols[strings.ToLower(p.NameCol)]

	ageIdx, hasAge := cols[strings.ToLower(p.AgeCol)]
	surahIdx, hasSurah := cols[strings.ToLower(p.SurahCol)]

	var out []student.CreateParams

	for _, row := range rows {
		name := cellValue(row, nameIdx)
		if name == "" {
			continue
		}

		params := student.CreateParams{Name: name}

		if hasAge {
			if age, ok := parseAge(cellValue(row, ageIdx)); ok {
				params.Age = &age
			}
		}

		if hasSurah {
			params.CurrentSurah = cellValue(row, surahIdx)
		}

		out = append(out, params)
	}

	return out, nil
}

// parseAge tolerates Arabic-Indic digits in exported cells.
func parseAge(s string) (int, bool) {
	if s == "" {
		return 0, false
	}

	age, err := strconv.Atoi(hijri.NormalizeDigits(s))
	if err != nil || age <= 0 || age > 120 {
		return 0, false
	}

	return age, true
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

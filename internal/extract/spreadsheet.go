package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/rafaelqm/concilia/internal/common"
	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/parse"
)

// Rows read from a spreadsheet carry structure the text paths have to guess
// at, so they start with a higher baseline confidence.
const spreadsheetRowConfidence = 0.8

// columnRole is the semantic meaning assigned to a spreadsheet column.
type columnRole int

const (
	roleDate columnRole = iota
	roleAmount
	roleDescription
	roleType
	roleCategory
)

// Header keywords per role, lowercase. Checked by substring so "Data da
// Compra" still maps to the date role.
var headerKeywords = map[columnRole][]string{
	roleDate:        {"data", "date", "dt", "when", "dia", "período", "periodo", "tempo", "time"},
	roleAmount:      {"valor", "amount", "quantia", "total", "vlr", "money", "preço", "preco", "price"},
	roleDescription: {"descrição", "descricao", "description", "histórico", "historico", "memo", "obs", "detalhes", "produto", "item"},
	roleType:        {"tipo", "type", "operação", "operacao"},
	roleCategory:    {"categoria", "category", "cat", "grupo", "classificação", "classificacao"},
}

// SpreadsheetExtractor reads CSV and XLSX files. CSV dialect (encoding and
// separator) is auto-detected; columns are mapped to semantic roles by
// header keywords with a positional fallback.
type SpreadsheetExtractor struct{}

// NewSpreadsheetExtractor creates a spreadsheet extractor.
func NewSpreadsheetExtractor() *SpreadsheetExtractor {
	return &SpreadsheetExtractor{}
}

// Extract parses the file into rows, maps the columns and extracts one
// candidate per data row. Rows that fail to parse are counted, not fatal.
func (e *SpreadsheetExtractor) Extract(ctx context.Context, data []byte, docCtx model.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows [][]string
		err  error
	)
	if isXLSX(data) {
		rows, err = readXLSX(data)
	} else {
		rows, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("spreadsheet has no rows: %w", common.ErrEmptyDocument)
	}

	mapping, hasHeader := mapColumns(rows[0])
	if len(mapping) < 2 {
		return nil, fmt.Errorf("cannot identify date and amount columns: %w", common.ErrUnsupportedFormat)
	}

	dataRows := rows
	if hasHeader {
		dataRows = rows[1:]
	}

	result := &Result{DocumentType: model.DocGenericFinancial}
	for i, row := range dataRows {
		candidate, ok := candidateFromRow(row, mapping, docCtx, i)
		if !ok {
			result.SkippedLines++
			continue
		}
		result.Candidates = append(result.Candidates, candidate)
	}

	if len(result.Candidates) == 0 && result.SkippedLines > 0 {
		return nil, fmt.Errorf("no row parsed as a transaction: %w", common.ErrNoTransactions)
	}

	return result, nil
}

// XLSX files are zip archives; the magic bytes are enough to route them.
func isXLSX(data []byte) bool {
	return len(data) >= 4 && bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets: %w", common.ErrEmptyDocument)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// readCSV tries a matrix of encoding and separator combinations and keeps the
// first one that yields a table with at least one mappable column. Brazilian
// bank exports are frequently semicolon-separated latin-1.
func readCSV(data []byte) ([][]string, error) {
	separators := []rune{',', ';', '\t', '|'}

	for _, decoded := range decodeCharsets(data) {
		for _, sep := range separators {
			rows, err := parseCSV(decoded, sep)
			if err != nil || len(rows) == 0 {
				continue
			}
			if tableUsable(rows) {
				return rows, nil
			}
		}
	}

	return nil, fmt.Errorf("no encoding/separator combination yields a table: %w", common.ErrUnsupportedFormat)
}

// decodeCharsets returns the candidate text decodings in preference order.
// Valid UTF-8 goes first; otherwise the common legacy Brazilian charsets.
func decodeCharsets(data []byte) []string {
	var out []string
	if utf8.Valid(data) {
		out = append(out, string(data))
	}

	for _, enc := range []encoding.Encoding{charmap.ISO8859_1, charmap.Windows1252} {
		decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
		if err != nil {
			continue
		}
		out = append(out, string(decoded))
	}
	return out
}

func parseCSV(text string, sep rune) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sep
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// tableUsable requires more than one column and at least one column that maps
// to a semantic role; a single fat column means the separator guess was wrong.
func tableUsable(rows [][]string) bool {
	if len(rows[0]) < 2 {
		return false
	}
	mapping, _ := mapColumns(rows[0])
	return len(mapping) >= 1
}

// Roles are assigned in this order so the most important ones claim their
// column first when headers are ambiguous.
var rolePriority = []columnRole{roleDate, roleAmount, roleDescription, roleType, roleCategory}

// mapColumns assigns roles to columns by header keywords. Each column serves
// at most one role. When the first row looks like data instead of a header,
// positional mapping takes over: column 0 is the date, 1 the amount, 2 the
// description.
func mapColumns(header []string) (map[columnRole]int, bool) {
	mapping := make(map[columnRole]int)
	claimed := make(map[int]bool)

	for _, role := range rolePriority {
		for idx, cell := range header {
			if claimed[idx] {
				continue
			}
			lower := strings.ToLower(strings.TrimSpace(cell))
			if lower == "" {
				continue
			}
			if headerMatches(lower, headerKeywords[role]) {
				mapping[role] = idx
				claimed[idx] = true
				break
			}
		}
	}

	if len(mapping) >= 2 {
		return mapping, true
	}

	// Positional fallback. The first row is data, not a header.
	if len(header) >= 2 {
		mapping = map[columnRole]int{roleDate: 0, roleAmount: 1}
		if len(header) >= 3 {
			mapping[roleDescription] = 2
		}
		return mapping, false
	}

	return nil, false
}

func headerMatches(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// candidateFromRow parses one data row into a candidate. A row missing a
// parseable date or amount is skipped.
func candidateFromRow(row []string, mapping map[columnRole]int, docCtx model.Context, rowIdx int) (model.RawCandidate, bool) {
	dateMatch, ok := parseRoleDate(row, mapping)
	if !ok {
		return model.RawCandidate{}, false
	}

	amountCell, ok := cellAt(row, mapping, roleAmount)
	if !ok {
		return model.RawCandidate{}, false
	}
	amount, ok := parse.NormalizeAmount(strings.TrimPrefix(strings.TrimSpace(amountCell), "-"))
	if !ok {
		return model.RawCandidate{}, false
	}

	description, _ := cellAt(row, mapping, roleDescription)
	description = strings.TrimSpace(description)
	if description == "" {
		description = "Transação importada de planilha"
	}

	candidate := model.RawCandidate{
		Date:         dateMatch.Date,
		Amount:       amount,
		Type:         rowType(row, mapping, amountCell, description),
		Description:  description,
		Context:      docCtx,
		Source:       model.SourceSpreadsheet,
		DocumentType: model.DocGenericFinancial,
		RawLine:      strings.Join(row, " "),
		LineIndex:    rowIdx,
		HasTime:      dateMatch.HasTime,
		Confidence:   spreadsheetRowConfidence,
	}

	if dateMatch.HasTime {
		candidate.RawTimestamp = dateMatch.Raw
	}
	if cat, ok := cellAt(row, mapping, roleCategory); ok && strings.TrimSpace(cat) != "" {
		candidate.CategoryHint = strings.TrimSpace(cat)
	}

	return candidate, true
}

func parseRoleDate(row []string, mapping map[columnRole]int) (parse.DateMatch, bool) {
	cell, ok := cellAt(row, mapping, roleDate)
	if !ok {
		return parse.DateMatch{}, false
	}
	if m, ok := parse.ParseDate(cell); ok {
		return m, true
	}
	// Cells sometimes carry extra text around the date.
	return parse.FindDate(cell)
}

// rowType prefers the explicit type column, then the amount sign, then the
// direction keywords in the description.
func rowType(row []string, mapping map[columnRole]int, amountCell, description string) model.TransactionType {
	if cell, ok := cellAt(row, mapping, roleType); ok {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "crédito", "credito", "credit", "entrada", "receita", "income", "c":
			return model.TypeIncome
		case "débito", "debito", "debit", "saída", "saida", "despesa", "expense", "d":
			return model.TypeExpense
		}
	}

	if strings.HasPrefix(strings.TrimSpace(amountCell), "-") {
		return model.TypeExpense
	}

	return parse.DetectType(description, model.DocGenericFinancial)
}

func cellAt(row []string, mapping map[columnRole]int, role columnRole) (string, bool) {
	idx, ok := mapping[role]
	if !ok || idx >= len(row) {
		return "", false
	}
	return row[idx], true
}

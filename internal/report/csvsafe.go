package report

// formulaLeaders are first characters a spreadsheet may evaluate as a formula.
var formulaLeaders = map[byte]bool{
	'=': true, '+': true, '-': true, '@': true,
	'|': true, '%': true,
	'\t': true, '\r': true, '\n': true,
}

// EscapeCSVCell prefixes a single quote to cells a spreadsheet would read as a formula.
func EscapeCSVCell(value string) string {
	if value == "" || !formulaLeaders[value[0]] {
		return value
	}
	return "'" + value
}

// EscapeCSVRow escapes all cells in a row
func EscapeCSVRow(row []string) []string {
	escaped := make([]string, len(row))
	for i, cell := range row {
		escaped[i] = EscapeCSVCell(cell)
	}
	return escaped
}

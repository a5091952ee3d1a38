package querysql

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/roach88/joinery/internal/ir"
)

// Dialect controls the two places generated text differs between databases:
// placeholder tokens in prepared statements and literal quoting for
// conditions rendered with their values inlined.
type Dialect struct {
	// Name identifies the dialect ("generic", "postgres", ...).
	Name string

	// Placeholder rewrites "?" slots into the driver's placeholder syntax.
	Placeholder sq.PlaceholderFormat

	quoteString func(string) string
	trueLit     string
	falseLit    string
}

// Built-in dialects.
var (
	// Generic renders "?" placeholders and ANSI single-quoted literals.
	Generic = Dialect{
		Name:        "generic",
		Placeholder: sq.Question,
		quoteString: quoteANSI,
		trueLit:     "TRUE",
		falseLit:    "FALSE",
	}

	// Postgres renders "$n" placeholders and quotes with lib/pq.
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: sq.Dollar,
		quoteString: pq.QuoteLiteral,
		trueLit:     "TRUE",
		falseLit:    "FALSE",
	}

	// SQLite renders "?" placeholders; booleans are integers.
	SQLite = Dialect{
		Name:        "sqlite",
		Placeholder: sq.Question,
		quoteString: quoteANSI,
		trueLit:     "1",
		falseLit:    "0",
	}

	// MySQL renders "?" placeholders and also escapes backslashes.
	MySQL = Dialect{
		Name:        "mysql",
		Placeholder: sq.Question,
		quoteString: quoteMySQL,
		trueLit:     "TRUE",
		falseLit:    "FALSE",
	}

	// Oracle renders ":n" placeholders; booleans are numbers.
	Oracle = Dialect{
		Name:        "oracle",
		Placeholder: sq.Colon,
		quoteString: quoteANSI,
		trueLit:     "1",
		falseLit:    "0",
	}

	// SQLServer renders "@pN" placeholders; booleans are bits.
	SQLServer = Dialect{
		Name:        "sqlserver",
		Placeholder: sq.AtP,
		quoteString: quoteANSI,
		trueLit:     "1",
		falseLit:    "0",
	}
)

var dialects = map[string]Dialect{
	Generic.Name:   Generic,
	Postgres.Name:  Postgres,
	SQLite.Name:    SQLite,
	MySQL.Name:     MySQL,
	Oracle.Name:    Oracle,
	SQLServer.Name: SQLServer,
	"postgresql":   Postgres,
	"sqlite3":      SQLite,
	"mssql":        SQLServer,
}

// DialectByName resolves a dialect name (case-insensitive). The empty name
// selects Generic.
func DialectByName(name string) (Dialect, error) {
	if name == "" {
		return Generic, nil
	}
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return Dialect{}, fmt.Errorf("unknown dialect %q: must be one of %v", name, DialectNames())
	}
	return d, nil
}

// DialectNames lists the canonical dialect names, sorted.
func DialectNames() []string {
	return []string{Generic.Name, MySQL.Name, Oracle.Name, Postgres.Name, SQLite.Name, SQLServer.Name}
}

var placeholderFormats = map[string]sq.PlaceholderFormat{
	"question": sq.Question,
	"dollar":   sq.Dollar,
	"colon":    sq.Colon,
	"atp":      sq.AtP,
}

// WithPlaceholder returns a copy of d using the named placeholder format
// ("question", "dollar", "colon" or "atp"). The empty name keeps d's own.
func (d Dialect) WithPlaceholder(name string) (Dialect, error) {
	if name == "" {
		return d, nil
	}
	format, ok := placeholderFormats[strings.ToLower(name)]
	if !ok {
		return Dialect{}, fmt.Errorf("unknown placeholder format %q: must be question, dollar, colon or atp", name)
	}
	d.Placeholder = format
	return d, nil
}

// Literal renders v as an SQL literal.
func (d Dialect) Literal(v ir.Value) (string, error) {
	switch val := v.(type) {
	case nil, ir.Null:
		return "NULL", nil
	case ir.String:
		quote := d.quoteString
		if quote == nil {
			quote = quoteANSI
		}
		return quote(string(val)), nil
	case ir.Int:
		return strconv.FormatInt(int64(val), 10), nil
	case ir.Bool:
		if val {
			return d.trueLit, nil
		}
		return d.falseLit, nil
	default:
		return "", fmt.Errorf("value of type %T cannot be rendered as a literal", v)
	}
}

// placeholders rewrites the "?" slots of a clause into this dialect's syntax,
// numbering from 1.
func (d Dialect) placeholders(clause string) (string, error) {
	format := d.Placeholder
	if format == nil {
		format = sq.Question
	}
	return format.ReplacePlaceholders(clause)
}

func quoteANSI(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteMySQL(s string) string {
	return quoteANSI(strings.ReplaceAll(s, `\`, `\\`))
}


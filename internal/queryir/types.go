package queryir

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/joinery/internal/ir"
)

// Document is one file of query definitions.
type Document struct {
	// Version is the document format version; empty means ir.DocumentVersion.
	Version string `yaml:"version,omitempty"`

	// Dialect optionally pins the dialect these queries are written for.
	Dialect string `yaml:"dialect,omitempty"`

	// Queries are built in order; a registered query is visible to the
	// queries after it.
	Queries []Query `yaml:"queries"`
}

// Query is one SELECT statement.
type Query struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Select      []Field `yaml:"select"`

	// Register wraps the query as a view and adds it to the schema.
	Register *Register `yaml:"register,omitempty"`
}

// Field selects one attribute.
type Field struct {
	// Attr is the qualified attribute name, "View.attr".
	Attr string `yaml:"attr"`

	Hidden    bool   `yaml:"hidden,omitempty"`
	GroupBy   bool   `yaml:"group_by,omitempty"`
	OrderBy   bool   `yaml:"order_by,omitempty"`
	Aggregate string `yaml:"aggregate,omitempty"`
	As        string `yaml:"as,omitempty"`
	Where     *Where `yaml:"where,omitempty"`
}

// Where is a condition on a field.
//
// Op names a built-in operator. Template, used instead of Op, is a raw
// condition with "{}" for the attribute and "?" per value. Values bind the
// slots; omit them to leave the slots for the caller. Params gives the slot
// count of an unbound "in".
type Where struct {
	Op       string `yaml:"op,omitempty"`
	Template string `yaml:"template,omitempty"`
	Values   []any  `yaml:"values,omitempty"`
	Params   int    `yaml:"params,omitempty"`
}

// Register turns a query into a view related to an existing one.
type Register struct {
	// As is the view's display name; defaults to the query name.
	As string `yaml:"as,omitempty"`

	// WithConditions keeps the query's conditions in the view definition.
	WithConditions bool `yaml:"with_conditions,omitempty"`

	Pairs []Pair `yaml:"pairs"`
}

// Pair is one equality of a registration relation.
type Pair struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// Operators accepted in Where.Op.
const (
	OpEq        = "eq"
	OpNotEq     = "ne"
	OpLt        = "lt"
	OpLte       = "lte"
	OpGt        = "gt"
	OpGte       = "gte"
	OpLike      = "like"
	OpIn        = "in"
	OpBetween   = "between"
	OpIsNull    = "is_null"
	OpIsNotNull = "is_not_null"
)

// opSlots is the fixed slot count per operator; -1 means variadic.
var opSlots = map[string]int{
	OpEq:        1,
	OpNotEq:     1,
	OpLt:        1,
	OpLte:       1,
	OpGt:        1,
	OpGte:       1,
	OpLike:      1,
	OpIn:        -1,
	OpBetween:   2,
	OpIsNull:    0,
	OpIsNotNull: 0,
}

// KnownOp reports whether op is a built-in operator.
func KnownOp(op string) bool {
	_, ok := opSlots[op]
	return ok
}

// Literals converts the YAML values into ir values.
func (w *Where) Literals() ([]ir.Value, error) {
	out := make([]ir.Value, len(w.Values))
	for i, raw := range w.Values {
		v, err := ir.FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
		switch v.(type) {
		case ir.List, ir.Object:
			return nil, fmt.Errorf("values[%d]: must be a scalar", i)
		}
		out[i] = v
	}
	return out, nil
}

// ParseError reports a structurally invalid document.
type ParseError struct {
	// Path locates the problem, e.g. "queries[1].select[0].attr".
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// IsParseError reports whether err is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Parse decodes and checks a document. Unknown fields are rejected so typos
// such as "groupby" surface instead of being ignored.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Message: "document is empty"}
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := doc.Check(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// LoadFile reads and parses a document file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query document: %w", err)
	}
	doc, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Marshal encodes the document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Query returns the named query.
func (d *Document) Query(name string) (*Query, bool) {
	for i := range d.Queries {
		if d.Queries[i].Name == name {
			return &d.Queries[i], true
		}
	}
	return nil, false
}

// Check verifies the document's structure: version, unique identifier
// names, qualified attribute references and operator slot counts. Parse runs
// it; callers that embed a Document in their own YAML run it themselves.
func (d *Document) Check() error {
	if d.Version != "" && d.Version != ir.DocumentVersion {
		return &ParseError{Path: "version", Message: fmt.Sprintf("unsupported version %q (want %q)", d.Version, ir.DocumentVersion)}
	}
	if len(d.Queries) == 0 {
		return &ParseError{Path: "queries", Message: "at least one query is required"}
	}

	names := make(map[string]bool, len(d.Queries))
	for i := range d.Queries {
		q := &d.Queries[i]
		path := fmt.Sprintf("queries[%d]", i)
		if err := ir.ValidateIdentifier(q.Name); err != nil {
			return &ParseError{Path: path + ".name", Message: err.Error()}
		}
		if names[q.Name] {
			return &ParseError{Path: path + ".name", Message: fmt.Sprintf("duplicate query name %q", q.Name)}
		}
		names[q.Name] = true
		if err := q.check(path); err != nil {
			return err
		}
	}
	return nil
}

func (q *Query) check(path string) error {
	if len(q.Select) == 0 {
		return &ParseError{Path: path + ".select", Message: "at least one field is required"}
	}
	for i := range q.Select {
		if err := q.Select[i].check(fmt.Sprintf("%s.select[%d]", path, i)); err != nil {
			return err
		}
	}
	if q.Register != nil {
		if len(q.Register.Pairs) == 0 {
			return &ParseError{Path: path + ".register.pairs", Message: "a registered view needs at least one pair"}
		}
		for i, p := range q.Register.Pairs {
			pp := fmt.Sprintf("%s.register.pairs[%d]", path, i)
			if _, _, err := ir.SplitQualified(p.Left); err != nil {
				return &ParseError{Path: pp + ".left", Message: err.Error()}
			}
			if _, _, err := ir.SplitQualified(p.Right); err != nil {
				return &ParseError{Path: pp + ".right", Message: err.Error()}
			}
		}
	}
	return nil
}

func (f *Field) check(path string) error {
	if _, _, err := ir.SplitQualified(f.Attr); err != nil {
		return &ParseError{Path: path + ".attr", Message: err.Error()}
	}
	if f.As != "" {
		if err := ir.ValidateIdentifier(f.As); err != nil {
			return &ParseError{Path: path + ".as", Message: err.Error()}
		}
	}
	if f.Where == nil {
		return nil
	}
	return f.Where.check(path + ".where")
}

func (w *Where) check(path string) error {
	switch {
	case w.Op == "" && w.Template == "":
		return &ParseError{Path: path, Message: "one of op or template is required"}
	case w.Op != "" && w.Template != "":
		return &ParseError{Path: path, Message: "op and template are mutually exclusive"}
	case w.Template != "":
		if !strings.Contains(w.Template, "{}") {
			return &ParseError{Path: path + ".template", Message: "template must contain {}"}
		}
		slots := strings.Count(w.Template, "?")
		if len(w.Values) != 0 && len(w.Values) != slots {
			return &ParseError{Path: path + ".values", Message: fmt.Sprintf("template has %d slot(s), got %d value(s)", slots, len(w.Values))}
		}
	default:
		slots, ok := opSlots[w.Op]
		if !ok {
			return &ParseError{Path: path + ".op", Message: fmt.Sprintf("unknown operator %q", w.Op)}
		}
		switch {
		case slots == -1:
			if len(w.Values) == 0 && w.Params < 1 {
				return &ParseError{Path: path, Message: "in needs values or params"}
			}
			if len(w.Values) > 0 && w.Params > 0 {
				return &ParseError{Path: path, Message: "in takes values or params, not both"}
			}
		case len(w.Values) != 0 && len(w.Values) != slots:
			return &ParseError{Path: path + ".values", Message: fmt.Sprintf("%s takes %d value(s), got %d", w.Op, slots, len(w.Values))}
		}
	}
	if _, err := w.Literals(); err != nil {
		return &ParseError{Path: path, Message: err.Error()}
	}
	return nil
}

package querysql

import (
	"github.com/roach88/joinery/internal/schema"
)

// QueryView is a finished query wrapped as a schema view. Its attributes are
// exactly the output names of the visible attributes of the query that
// produced it; hidden attributes are not reachable from outside.
type QueryView struct {
	*schema.View

	query   string
	outputs map[string]*SelectAttribute
}

type viewOptions struct {
	withConditions bool
}

// ViewOption configures CreateView.
type ViewOption func(*viewOptions)

// WithConditions keeps the query's conditions in the nested definition,
// rendered with their values inlined. Every condition must then be bound.
func WithConditions() ViewOption {
	return func(o *viewOptions) { o.withConditions = true }
}

// CreateView renders the query in nested-source mode and wraps it as a view
// named name, with source "(<query>)".
func (b *Builder) CreateView(name string, opts ...ViewOption) (*QueryView, error) {
	var o viewOptions
	for _, opt := range opts {
		opt(&o)
	}

	mode := modeSource
	if o.withConditions {
		mode = modeLiteral
	}
	r, err := b.render(mode)
	if err != nil {
		return nil, err
	}

	outputs := make(map[string]*SelectAttribute)
	var names []string
	for _, a := range b.attrs {
		if !a.Visible() {
			continue
		}
		if prev, dup := outputs[a.RealName()]; dup {
			return nil, &ValidationError{
				Code:       ErrCodeDuplicateOutput,
				Message:    "two visible attributes share the output name " + a.RealName(),
				Attributes: []string{prev.String(), a.String()},
			}
		}
		outputs[a.RealName()] = a
		names = append(names, a.RealName())
	}

	view, err := schema.NewView("("+r.sql+")", name, names...)
	if err != nil {
		return nil, err
	}
	return &QueryView{View: view, query: r.sql, outputs: outputs}, nil
}

// Query returns the nested SQL without the surrounding parentheses.
func (q *QueryView) Query() string { return q.query }

// Output returns the select attribute behind an output name.
func (q *QueryView) Output(name string) (*SelectAttribute, error) {
	a, ok := q.outputs[name]
	if !ok {
		return nil, &schema.AttributeLookupError{View: q.Name(), Attribute: name}
	}
	return a, nil
}

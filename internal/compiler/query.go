package compiler

import (
	"fmt"
	"log/slog"

	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/queryir"
	"github.com/roach88/joinery/internal/querysql"
	"github.com/roach88/joinery/internal/schema"
)

// Compiled is one built query.
type Compiled struct {
	Name      string
	Statement *querysql.Statement
	Builder   *querysql.Builder

	// View is set when the query was registered into the schema.
	View *querysql.QueryView

	relation *schema.Relation
}

// CompileQueries builds every query of doc in order against s. Registered
// queries are added to s as views, so later queries may select from them.
//
// A dialect named by the document applies first; opts are applied after it
// and take precedence.
func CompileQueries(s *schema.Schema, doc *queryir.Document, opts ...querysql.Option) ([]*Compiled, error) {
	if doc.Dialect != "" {
		d, err := querysql.DialectByName(doc.Dialect)
		if err != nil {
			return nil, &CompileError{Field: "dialect", Message: err.Error(), Err: err}
		}
		opts = append([]querysql.Option{querysql.WithDialect(d)}, opts...)
	}

	// Registrations land in a staging copy; s only sees them once every
	// query has built.
	staging := s.Clone()
	out := make([]*Compiled, 0, len(doc.Queries))
	for i := range doc.Queries {
		c, err := compileQuery(staging, &doc.Queries[i], fmt.Sprintf("queries[%d]", i), opts)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	for i, c := range out {
		if c.View == nil {
			continue
		}
		if err := s.AddView(c.View.View, c.relation); err != nil {
			return nil, wrapError(fmt.Sprintf("queries[%d].register", i), noPos, err)
		}
	}
	return out, nil
}

// CompileQuery builds a single query against s.
func CompileQuery(s *schema.Schema, q *queryir.Query, opts ...querysql.Option) (*Compiled, error) {
	return compileQuery(s, q, q.Name, opts)
}

func compileQuery(s *schema.Schema, q *queryir.Query, field string, opts []querysql.Option) (*Compiled, error) {
	b := querysql.NewBuilder(s, opts...)
	for j := range q.Select {
		f := &q.Select[j]
		fieldPath := fmt.Sprintf("%s.select[%d]", field, j)

		sa, err := selectField(s, f, fieldPath)
		if err != nil {
			return nil, err
		}
		if err := b.Select(sa); err != nil {
			return nil, wrapError(fieldPath, noPos, err)
		}
	}

	st, err := b.Prepare()
	if err != nil {
		return nil, wrapError(field, noPos, err)
	}
	c := &Compiled{Name: q.Name, Statement: st, Builder: b}

	if q.Register != nil {
		if c.View, c.relation, err = register(s, b, q, field+".register"); err != nil {
			return nil, err
		}
	}

	slog.Debug("query compiled", "query", q.Name, "sql", st.SQL, "params", len(st.Names))
	return c, nil
}

func selectField(s *schema.Schema, f *queryir.Field, field string) (*querysql.SelectAttribute, error) {
	attr, err := lookupAttr(s, f.Attr)
	if err != nil {
		return nil, wrapError(field+".attr", noPos, err)
	}

	opts := querysql.SelectOptions{
		Hidden:  f.Hidden,
		GroupBy: f.GroupBy,
		OrderBy: f.OrderBy,
		As:      f.As,
	}
	if f.Aggregate != "" {
		if opts.Aggregate, err = querysql.AggregateByName(f.Aggregate); err != nil {
			return nil, wrapError(field+".aggregate", noPos, err)
		}
	}
	if f.Where != nil {
		if opts.Condition, err = condition(f.Where); err != nil {
			return nil, wrapError(field+".where", noPos, err)
		}
	}

	sa, err := querysql.Select(attr, opts)
	if err != nil {
		return nil, wrapError(field, noPos, err)
	}
	return sa, nil
}

// condition maps a document condition onto the builder's primitives.
func condition(w *queryir.Where) (*querysql.Condition, error) {
	values, err := w.Literals()
	if err != nil {
		return nil, err
	}
	if w.Template != "" {
		return querysql.NewCondition(w.Template, values...), nil
	}

	switch w.Op {
	case queryir.OpEq:
		return querysql.Eq(values...), nil
	case queryir.OpNotEq:
		return querysql.NotEq(values...), nil
	case queryir.OpLt:
		return querysql.Lt(values...), nil
	case queryir.OpLte:
		return querysql.Lte(values...), nil
	case queryir.OpGt:
		return querysql.Gt(values...), nil
	case queryir.OpGte:
		return querysql.Gte(values...), nil
	case queryir.OpLike:
		return querysql.Like(values...), nil
	case queryir.OpBetween:
		return querysql.Between(values...), nil
	case queryir.OpIsNull:
		return querysql.IsNull(), nil
	case queryir.OpIsNotNull:
		return querysql.IsNotNull(), nil
	case queryir.OpIn:
		if len(values) == 0 {
			return querysql.InParams(w.Params), nil
		}
		return querysql.In(values...), nil
	default:
		return nil, fmt.Errorf("unknown operator %q", w.Op)
	}
}

// register wraps the built query as a view and relates it to the schema.
func register(s *schema.Schema, b *querysql.Builder, q *queryir.Query, field string) (*querysql.QueryView, *schema.Relation, error) {
	name := q.Register.As
	if name == "" {
		name = q.Name
	}
	// An ambiguous name is taken as well; only an unknown one is free.
	if _, err := s.ViewByName(name); !schema.IsSchemaError(err, schema.ErrCodeUnknownView) {
		return nil, nil, wrapError(field+".as", noPos, &schema.SchemaError{
			Code:    schema.ErrCodeDuplicateView,
			Message: "a view with this name is already registered",
			View:    name,
		})
	}

	var viewOpts []querysql.ViewOption
	if q.Register.WithConditions {
		viewOpts = append(viewOpts, querysql.WithConditions())
	}
	qv, err := b.CreateView(name, viewOpts...)
	if err != nil {
		return nil, nil, wrapError(field, noPos, err)
	}

	resolve := func(qualified string) (*schema.Attribute, error) {
		viewName, attrName, err := ir.SplitQualified(qualified)
		if err != nil {
			return nil, err
		}
		if viewName == name {
			return qv.Attribute(attrName)
		}
		return lookupAttr(s, qualified)
	}

	var pairs []schema.AttrPair
	for i, p := range q.Register.Pairs {
		pairField := fmt.Sprintf("%s.pairs[%d]", field, i)
		left, err := resolve(p.Left)
		if err != nil {
			return nil, nil, wrapError(pairField+".left", noPos, err)
		}
		right, err := resolve(p.Right)
		if err != nil {
			return nil, nil, wrapError(pairField+".right", noPos, err)
		}
		pair, err := schema.NewAttrPair(left, right)
		if err != nil {
			return nil, nil, wrapError(pairField, noPos, err)
		}
		pairs = append(pairs, pair)
	}
	rel, err := schema.NewRelation(pairs...)
	if err != nil {
		return nil, nil, wrapError(field+".pairs", noPos, err)
	}
	if err := s.AddView(qv.View, rel); err != nil {
		return nil, nil, wrapError(field, noPos, err)
	}

	slog.Debug("query registered as view", "query", q.Name, "view", name)
	return qv, rel, nil
}

func lookupAttr(s *schema.Schema, qualified string) (*schema.Attribute, error) {
	viewName, attrName, err := ir.SplitQualified(qualified)
	if err != nil {
		return nil, err
	}
	view, err := s.ViewByName(viewName)
	if err != nil {
		return nil, err
	}
	return view.Attribute(attrName)
}

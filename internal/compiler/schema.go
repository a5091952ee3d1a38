package compiler

import (
	"fmt"
	"log/slog"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/schema"
)

// CompileSchema builds a Schema from a CUE value of the form:
//
//	views: [
//		{name: "Books", source: "books", attributes: ["title", "publisher"]},
//		{name: "Publishers", source: "publishers", attributes: ["id", "name"],
//			relation: pairs: [{left: "Books.publisher", right: "Publishers.id"}]},
//	]
//	relations: [{pairs: [...]}]  // optional, extra relations between registered views
//
// Views are registered in list order; every view after the first needs a
// relation to a view listed before it.
func CompileSchema(v cue.Value) (*schema.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	viewsVal := v.LookupPath(cue.ParsePath("views"))
	if !viewsVal.Exists() {
		return nil, &CompileError{
			Field:   "views",
			Message: "views is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := viewsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	s := schema.New()
	byName := make(map[string]*schema.View)
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("views[%d]", i)
		viewVal := iter.Value()

		view, err := parseView(viewVal, field)
		if err != nil {
			return nil, err
		}
		if _, dup := byName[view.Name()]; dup {
			return nil, &CompileError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate view name %q", view.Name()),
				Pos:     viewVal.Pos(),
			}
		}
		// Known before its relation is parsed so pairs may name the view itself.
		byName[view.Name()] = view

		var rel *schema.Relation
		if relVal := viewVal.LookupPath(cue.ParsePath("relation")); relVal.Exists() {
			rel, err = parseRelation(relVal, field+".relation", byName)
			if err != nil {
				return nil, err
			}
		}
		if err := s.AddView(view, rel); err != nil {
			return nil, wrapError(field, viewVal.Pos(), err)
		}
	}

	if relsVal := v.LookupPath(cue.ParsePath("relations")); relsVal.Exists() {
		relIter, err := relsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; relIter.Next(); i++ {
			field := fmt.Sprintf("relations[%d]", i)
			rel, err := parseRelation(relIter.Value(), field, byName)
			if err != nil {
				return nil, err
			}
			if err := s.AddRelation(rel); err != nil {
				return nil, wrapError(field, relIter.Value().Pos(), err)
			}
		}
	}

	slog.Debug("schema compiled", "views", s.Len(), "relations", len(s.Relations()))
	return s, nil
}

// CompileSchemaString compiles CUE source text; filename is used in positions.
func CompileSchemaString(src, filename string) (*schema.Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return CompileSchema(v)
}

func parseView(v cue.Value, field string) (*schema.View, error) {
	name, err := requiredString(v, "name", field)
	if err != nil {
		return nil, err
	}
	source, err := requiredString(v, "source", field)
	if err != nil {
		return nil, err
	}

	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".attributes",
			Message: "attributes is required",
			Pos:     v.Pos(),
		}
	}
	attrIter, err := attrsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var attrs []string
	for attrIter.Next() {
		a, err := attrIter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		attrs = append(attrs, a)
	}

	view, err := schema.NewView(source, name, attrs...)
	if err != nil {
		return nil, wrapError(field, v.Pos(), err)
	}
	return view, nil
}

func parseRelation(v cue.Value, field string, byName map[string]*schema.View) (*schema.Relation, error) {
	pairsVal := v.LookupPath(cue.ParsePath("pairs"))
	if !pairsVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".pairs",
			Message: "pairs is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := pairsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var pairs []schema.AttrPair
	for i := 0; iter.Next(); i++ {
		pairField := fmt.Sprintf("%s.pairs[%d]", field, i)
		left, err := resolveAttr(iter.Value(), "left", pairField, byName)
		if err != nil {
			return nil, err
		}
		right, err := resolveAttr(iter.Value(), "right", pairField, byName)
		if err != nil {
			return nil, err
		}
		pair, err := schema.NewAttrPair(left, right)
		if err != nil {
			return nil, wrapError(pairField, iter.Value().Pos(), err)
		}
		pairs = append(pairs, pair)
	}

	rel, err := schema.NewRelation(pairs...)
	if err != nil {
		return nil, wrapError(field, v.Pos(), err)
	}
	return rel, nil
}

func resolveAttr(v cue.Value, key, field string, byName map[string]*schema.View) (*schema.Attribute, error) {
	qualified, err := requiredString(v, key, field)
	if err != nil {
		return nil, err
	}
	viewName, attrName, err := ir.SplitQualified(qualified)
	if err != nil {
		return nil, wrapError(field+"."+key, v.Pos(), err)
	}
	view, ok := byName[viewName]
	if !ok {
		return nil, wrapError(field+"."+key, v.Pos(), &schema.SchemaError{
			Code:    schema.ErrCodeUnknownView,
			Message: "view is not declared before this relation",
			View:    viewName,
		})
	}
	attr, err := view.Attribute(attrName)
	if err != nil {
		return nil, wrapError(field+"."+key, v.Pos(), err)
	}
	return attr, nil
}

func requiredString(v cue.Value, key, field string) (string, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return "", &CompileError{
			Field:   field + "." + key,
			Message: key + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

package schema

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"
)

// viewPair keys the relation index. Both orderings are stored.
type viewPair struct {
	a, b *View
}

// Schema is the registry of views and the relations between them.
type Schema struct {
	mu        sync.RWMutex
	views     []*View
	adjacency map[*View][]*View
	relations map[viewPair]*Relation
	edges     []*Relation
}

// New creates an empty schema.
func New() *Schema {
	return &Schema{
		adjacency: make(map[*View][]*View),
		relations: make(map[viewPair]*Relation),
	}
}

// Clone returns a copy of s that shares its views and relations. Views
// registered into the copy are not seen by s.
func (s *Schema) Clone() *Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := New()
	c.views = append([]*View(nil), s.views...)
	for v, related := range s.adjacency {
		c.adjacency[v] = append([]*View(nil), related...)
	}
	maps.Copy(c.relations, s.relations)
	c.edges = append([]*Relation(nil), s.edges...)
	return c
}

// AddView registers view. The first view may be added without a relation;
// every later view must come with a relation to an already registered view.
func (s *Schema) AddView(view *View, relation *Relation) error {
	if view == nil {
		return &SchemaError{Code: ErrCodeInvalidView, Message: "view is nil"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.adjacency[view]; exists {
		return newSchemaError(ErrCodeDuplicateView, "view is already registered", view, nil)
	}

	if relation == nil {
		if len(s.views) > 0 {
			return newSchemaError(ErrCodeNoRelatedView, "no related view", view, nil)
		}
		s.views = append(s.views, view)
		s.adjacency[view] = nil
		slog.Debug("view registered", "view", view.Name(), "root", true)
		return nil
	}

	other, ok := relation.Other(view)
	if !ok {
		return newSchemaError(ErrCodeInvalidRelation, "relation does not reference the view being added", view, nil)
	}
	if _, registered := s.adjacency[other]; !registered {
		return newSchemaError(ErrCodeUnknownView, "related view is not registered", view, other)
	}

	s.views = append(s.views, view)
	s.adjacency[view] = []*View{other}
	s.adjacency[other] = append(s.adjacency[other], view)
	s.relations[viewPair{view, other}] = relation
	s.relations[viewPair{other, view}] = relation
	s.edges = append(s.edges, relation)

	slog.Debug("view registered", "view", view.Name(), "related", other.Name(), "on", relation.String())
	return nil
}

// AddRelation records an additional relation between two views that are
// both registered already and not yet related.
func (s *Schema) AddRelation(relation *Relation) error {
	if relation == nil {
		return &SchemaError{Code: ErrCodeInvalidRelation, Message: "relation is nil"}
	}
	a, b := relation.Views()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range []*View{a, b} {
		if _, registered := s.adjacency[v]; !registered {
			return newSchemaError(ErrCodeUnknownView, "relation references a view that is not registered", v, nil)
		}
	}
	if _, exists := s.relations[viewPair{a, b}]; exists {
		return newSchemaError(ErrCodeInvalidRelation, "views are already related", a, b)
	}

	s.adjacency[a] = append(s.adjacency[a], b)
	s.adjacency[b] = append(s.adjacency[b], a)
	s.relations[viewPair{a, b}] = relation
	s.relations[viewPair{b, a}] = relation
	s.edges = append(s.edges, relation)

	slog.Debug("relation added", "left", a.Name(), "right", b.Name(), "on", relation.String())
	return nil
}

// RelatedViews returns the views directly related to view, in the order the
// edges were registered.
func (s *Schema) RelatedViews(view *View) []*View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*View(nil), s.adjacency[view]...)
}

// Relation returns the relation between a and b in either order.
func (s *Schema) Relation(a, b *View) (*Relation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.relations[viewPair{a, b}]; ok {
		return r, true
	}
	r, ok := s.relations[viewPair{b, a}]
	return r, ok
}

// Relations returns every relation in registration order.
func (s *Schema) Relations() []*Relation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Relation(nil), s.edges...)
}

// Has reports whether view is registered.
func (s *Schema) Has(view *View) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.adjacency[view]
	return ok
}

// Views returns all registered views in registration order.
func (s *Schema) Views() []*View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*View(nil), s.views...)
}

// ViewByName finds a registered view by display name. Display names need not
// be unique; an ambiguous name is an error.
func (s *Schema) ViewByName(name string) (*View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *View
	for _, v := range s.views {
		if v.name != name {
			continue
		}
		if found != nil {
			return nil, &SchemaError{
				Code:    ErrCodeInvalidView,
				Message: fmt.Sprintf("view name %q is ambiguous", name),
				View:    name,
			}
		}
		found = v
	}
	if found == nil {
		return nil, &SchemaError{Code: ErrCodeUnknownView, Message: "view is not registered", View: name}
	}
	return found, nil
}

// Len returns the number of registered views.
func (s *Schema) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

package querysql

import (
	"log/slog"
	"strings"

	"github.com/roach88/joinery/internal/schema"
)

// node is one placed view. Children keep insertion order.
type node struct {
	view     *schema.View
	alias    string
	parent   *node
	relation *schema.Relation
	children []*node
}

// JoinTree is the spanning tree over the views referenced by one query.
type JoinTree struct {
	schema  *schema.Schema
	aliases AliasAllocator
	root    *node
	nodes   map[*schema.View]*node
	order   []*schema.View
}

// NewJoinTree creates an empty tree resolving relations through s.
func NewJoinTree(s *schema.Schema) *JoinTree {
	return &JoinTree{
		schema: s,
		nodes:  make(map[*schema.View]*node),
	}
}

// AddView places view in the tree.
//
// The first view becomes the root. A view already present is a no-op. Any
// other view is attached as a child of the first related view, in the
// schema's adjacency order, that is already placed.
func (t *JoinTree) AddView(view *schema.View) error {
	if t.root == nil {
		t.root = &node{view: view, alias: t.aliases.Next()}
		t.nodes[view] = t.root
		t.order = append(t.order, view)
		slog.Debug("join root placed", "view", view.Name(), "alias", t.root.alias)
		return nil
	}

	if _, placed := t.nodes[view]; placed {
		return nil
	}

	parent, relation := t.findParent(view)
	if parent == nil {
		return &JoinPathError{
			Code:    ErrCodeNoJoinPath,
			Message: "no related view in tree",
			View:    view.Name(),
		}
	}

	child := &node{
		view:     view,
		alias:    t.aliases.Next(),
		parent:   parent,
		relation: relation,
	}
	parent.children = append(parent.children, child)
	t.nodes[view] = child
	t.order = append(t.order, view)

	slog.Debug("join edge added",
		"view", view.Name(),
		"alias", child.alias,
		"parent", parent.view.Name(),
		"parent_alias", parent.alias)
	return nil
}

// findParent returns the first related view already in the tree, or nil.
func (t *JoinTree) findParent(view *schema.View) (*node, *schema.Relation) {
	for _, related := range t.schema.RelatedViews(view) {
		placed, ok := t.nodes[related]
		if !ok {
			continue
		}
		relation, ok := t.schema.Relation(related, view)
		if !ok {
			continue
		}
		return placed, relation
	}
	return nil, nil
}

// Alias returns the alias assigned to view.
func (t *JoinTree) Alias(view *schema.View) (string, error) {
	n, ok := t.nodes[view]
	if !ok {
		return "", &JoinPathError{
			Code:    ErrCodeUnknownView,
			Message: "view was never added to the join tree",
			View:    view.Name(),
		}
	}
	return n.alias, nil
}

// Root returns the root view, or nil for an empty tree.
func (t *JoinTree) Root() *schema.View {
	if t.root == nil {
		return nil
	}
	return t.root.view
}

// Views returns the placed views in the order they were added.
func (t *JoinTree) Views() []*schema.View {
	return append([]*schema.View(nil), t.order...)
}

// Parent returns the view that view is joined to, or nil for the root.
func (t *JoinTree) Parent(view *schema.View) *schema.View {
	n, ok := t.nodes[view]
	if !ok || n.parent == nil {
		return nil
	}
	return n.parent.view
}

// Edges returns the number of join edges (placed views minus one).
func (t *JoinTree) Edges() int {
	if len(t.order) == 0 {
		return 0
	}
	return len(t.order) - 1
}

// Render produces the FROM clause body (without the FROM keyword):
// a depth-first, pre-order walk emitting "<source> <alias>", the ON
// predicate for non-root nodes, then " join " and each child in turn.
func (t *JoinTree) Render() (string, error) {
	if t.root == nil {
		return "", &ValidationError{Code: ErrCodeEmptySelect, Message: "join tree is empty"}
	}
	var sb strings.Builder
	if err := t.render(&sb, t.root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (t *JoinTree) render(sb *strings.Builder, n *node) error {
	sb.WriteString(n.view.Source())
	sb.WriteByte(' ')
	sb.WriteString(n.alias)

	if n.relation != nil {
		pred, err := n.relation.Render(n.parent.view, n.parent.alias, n.view, n.alias)
		if err != nil {
			return err
		}
		sb.WriteString(" on ")
		sb.WriteString(pred)
	}

	for _, child := range n.children {
		sb.WriteString(" join ")
		if err := t.render(sb, child); err != nil {
			return err
		}
	}
	return nil
}

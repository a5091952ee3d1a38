// Package querysql turns annotated view attributes into SQL SELECT text.
//
// A Builder owns one JoinTree and the ordered list of SelectAttributes for a
// single query. Each Select call places the attribute's view in the join
// tree: the first view becomes the root, every later view is attached under
// the first already-placed view found in the schema's adjacency order. The
// tree renders the FROM clause; the attributes render the remaining clauses:
//
//	SELECT <expr>[, <expr>]*
//	FROM <join-tree-text>
//	[WHERE <pred>[ AND <pred>]*]
//	[GROUP BY <expr>[, <expr>]*]
//	[ORDER BY <expr>[, <expr>]*]
//
// Selection order is observable. It decides alias assignment and the shape
// of the join tree, so equivalent selections issued in a different order can
// render different (equally valid) SQL.
//
// Three finalize modes:
//
//	Prepare  conditions render as placeholders; returns a Statement
//	Literal  conditions render with their bound values inlined
//	Source   conditions are omitted; used for nested query views
//
// CreateView wraps a query as a schema view whose attributes are exactly the
// visible output names, so it can be registered in a schema and selected
// from by another Builder.
//
// A Builder is not safe for concurrent use. The Schema it reads is.
package querysql

// Package schema holds the data model the query builder joins over: views
// (tables or nested queries) with named attributes, and relations declaring
// equi-join predicates between pairs of views.
//
// A Schema is grown one view at a time. Every view after the first must be
// registered together with a Relation to a view that is already present, so
// the relation graph is connected by construction. Additional relations
// between registered views may be added later; the graph need not be a tree.
//
// Identity is by reference: two views may share a display name and still be
// distinct. Each view also carries a random UUID for diagnostics and catalog
// records.
//
// Once populated, a Schema is safe for concurrent reads by any number of
// query builders.
package schema

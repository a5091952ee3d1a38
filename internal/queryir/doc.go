// Package queryir defines the declarative, serializable form of a query.
//
// A Document is a YAML file listing named queries. Each query selects
// attributes by qualified name ("View.attr") and annotates them with the
// same options the builder accepts:
//
//	version: "1"
//	queries:
//	  - name: authors_by_category
//	    select:
//	      - {attr: Books.author, aggregate: count, as: Authors}
//	      - {attr: Categories.category_name, group_by: true}
//	      - attr: Books.year
//	        group_by: true
//	        order_by: true
//	        where: {op: in, values: [2012, 2013]}
//	      - {attr: Books.publisher, group_by: true}
//	    register:
//	      pairs: [{left: AuthorsView.publisher, right: Publishers.id}]
//	      as: AuthorsView
//
// Documents carry names only. Resolving names against a schema and building
// statements is the compiler's job; this package never imports the schema.
//
// Validate reports constructs that parse but will not render the same way
// on every dialect, or that are likely mistakes. Warnings never block a
// build.
package queryir

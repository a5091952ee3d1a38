// Package harness runs conformance scenarios against the query builder.
//
// A scenario names a schema, a query document and one query of it to build,
// and states what the build must produce: the exact SQL text, or the code of
// the error it must fail with.
//
// # Scenario Format
//
//	name: authors_by_category
//	description: "Authors per publisher in one category"
//	schema: ../schema/library.cue
//	dialect: postgres
//	queries:
//	  queries:
//	    - name: authors
//	      select:
//	        - attr: Publishers.name
//	          group_by: true
//	        - attr: Books.author
//	          aggregate: count
//	          as: authors
//	build: authors
//	bind:
//	  p1: "Fiction"
//	expect:
//	  sql: "SELECT ..."
//	  args: ["Fiction"]
//	assertions:
//	  - type: sql_contains
//	    text: "GROUP BY A.name"
//
// Paths are relative to the scenario file. Every query up to and including
// build is compiled in document order, so registered views are available.
//
// # Assertion Types
//
//   - sql_contains: the SQL contains text
//   - sql_order: the texts appear in the SQL in the given order
//   - sql_count: text appears exactly count times
//   - params: placeholders filter the given "View.attr" (subset match)
//   - prepares: the SQL prepares against scratch tables built from the schema
//
// # Golden Files
//
// RunWithGolden snapshots the result as canonical JSON under
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness

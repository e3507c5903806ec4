// Package schemafile loads schema declarations from YAML bundles into a
// treespec Registry.
//
// A bundle holds two lists, schemas and choices:
//
//	schemas:
//	  - name: node
//	    doc: One linked-list node.
//	    fields:
//	      - name: field_1
//	        type: numeric
//	        min: -1000
//	        max: 1000
//	        default: 0
//	      - name: field_2
//	        type: text
//	        required: true
//	      - name: field_3
//	        type: ref
//	        target: node
//	        nullable: true
//	        default: null
//	choices:
//	  - name: shape
//	    members: [circle, square]
//
// Loading runs in three phases. The raw document is checked against an
// embedded JSON Schema meta-schema first, so structural mistakes surface with
// bundle-relative paths before anything registers. A strict typed decode
// (yaml.v3 KnownFields) follows, then each declaration builds and registers.
// Name resolution stays with Registry.Freeze, so bundles may reference
// schemas from other bundles loaded before or after them.
//
// A field may declare default_expr instead of default: an expr-lang
// expression evaluated when the input omits the field, with node, parent,
// stack and kwargs in scope. Expressions compile at load time, so a syntax
// error is a load error rather than a per-document one.
package schemafile

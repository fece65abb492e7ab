// Package graph provides the serialization format for positioned lineage
// trees.
//
// This package defines the wire format shared by the HTTP API, the CLI's JSON
// output, and the DOT renderer. It sits at the boundary between the tree
// builder's internal state and everything that only reads it:
//
//   - [Graph]: nodes with positions, edges, the hierarchy levels and extent
//   - [Node], [Edge]: the vertex and edge records
//   - [FromTree]: converts a builder snapshot
//   - [Validate]: checks the tree invariants of a decoded graph
//
// # Format
//
//	{
//	  "title": "Orders Lineage",
//	  "levels": ["db", "table", "col"],
//	  "nodes": [
//	    {"id": "root", "level": -1, "label": "Orders Lineage", "key": "Root", "kind": "root", ...},
//	    {"id": "0-root/sales", "level": 0, "label": "sales", "key": "db", "kind": "group",
//	     "isExpanded": false, "childCount": 2, "position": {"x": 870, "y": 60}, ...}
//	  ],
//	  "edges": [{"id": "e-root-0-root/sales", "source": "root", "target": "0-root/sales"}]
//	}
//
// isExpanded is omitted for the root, attribute leaves and last-level groups;
// childCount is omitted wherever no further level exists.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph

// Package pkg is the root of craftree's public libraries.
//
// Craftree draws crafting recipe trees. A recipe is a tree of item boxes: the
// target item at the top, its ingredients below it, their ingredients below
// those, down to the base elements. Boxes have arbitrary widths (their labels
// differ in length), so the layout is a non-layered tidy tree.
//
// # Pipeline
//
// The libraries form one flow, driven by [pipeline]:
//
//	rows ([recipe]) → layout ([tidytree] + [measure]) → diagram ([diagram]) → artifacts ([render])
//
// A minimal use without caching:
//
//	rows, _ := recipe.ReadRows(f)
//	opts := pipeline.Options{}
//	opts.SetDefaults()
//	res, _ := pipeline.ComputeLayout(rows, measure.NewFixedMeasurer(), opts)
//	svg := sink.RenderSVG(res.Layout, sink.WithMargin(20))
//
// # Packages
//
// [tidytree] - The van der Ploeg tidy-tree algorithm for nodes of arbitrary
// size. Runs in linear time; children are centered under their parent and no
// two boxes overlap.
//
// [recipe] - Recipe rows ([id, label, parent]) and their conversion to a
// tree. Rows that name a missing parent are reported as orphans.
//
// [itemdb] - SQLite store of items and their two-ingredient recipes. Expands
// an item into recipe rows breadth first.
//
// [measure] - Label measurement for box sizing.
//
// [diagram] - The laid-out diagram: boxes, connectors and bounds, with its
// JSON wire format.
//
// [render] - Output formats. [render/sink] draws SVG, PNG, PDF, DOT and JSON;
// [render/nodelink] hands the tree to Graphviz for comparison drawings.
//
// [cache] - Content-addressed cache with file, Redis and null backends.
//
// [pipeline] - Cached rows → layout → render stages shared by the CLI and
// the HTTP server.
//
// [remote] - Client for another craftree server's API.
//
// [observability] - Hooks and counters for layout and render stages.
//
// [errors] - Coded errors with user messages and HTTP status mapping.
//
// [tidytree]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/tidytree
// [recipe]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/recipe
// [itemdb]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/itemdb
// [measure]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/measure
// [diagram]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/diagram
// [render]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/render/sink
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/pipeline
// [remote]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/remote
// [observability]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/craftree/pkg/errors
package pkg

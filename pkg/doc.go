// Package pkg provides the core libraries for gitscroll, a zoomable map of a
// repository's file tree.
//
// # Overview
//
// gitscroll lays the children of one directory out as rectangles sized by a
// metric. The zoom factor picks the layout strategy: a grid of directories
// when zoomed out, a squarified treemap in the middle and a labelled detailed
// view when zoomed in. Every change of zoom, mode, directory or canvas is
// animated from the rectangles on screen to the new ones.
//
// # Architecture
//
// The typical data flow:
//
//	Git URL or local directory
//	         ↓
//	    [source] package (clone, retry with backoff)
//	         ↓
//	    [scan] package (walk into a [tree] snapshot, optionally watch)
//	         ↓
//	    [analyze] package (token counts, binary detection)
//	         ↓
//	    [layout] package (grid, treemap, force, detailed)
//	         ↓
//	    [anim] + [interact] → [scene] (frames, hover, selection, drill-down)
//	         ↓
//	    [export] (json, csv, svg, dot, tree-svg) or the terminal viewer
//
// # Quick Start
//
// Scan a directory and lay it out at zoom 2:
//
//	snap, _ := scan.New().Build(ctx, ".")
//	engine := layout.NewEngine(metric.Bytes{})
//	nodes := engine.Compute(snap.Root, 2, layout.Auto, layout.Size{W: 800, H: 600})
//
// Drive an animated scene:
//
//	sc := scene.New(engine, scene.WithCanvas(layout.Size{W: 800, H: 600}))
//	sc.SetTree(snap, time.Now())
//	sc.ZoomIn(time.Now())
//	f := sc.Frame(time.Now(), interact.Input{})
//
// # Main Packages
//
// ## Model
//
// [tree] - Immutable snapshots of a scanned directory, their JSON document
// form and statistics.
//
// [metric] - Weight providers: bytes, item counts and tokens.
//
// ## Layout and Interaction
//
// [layout] - Strategies, the engine that dispatches on zoom, geometry and the
// layout document.
//
// [anim] - Interpolation between successive layouts.
//
// [interact] - Hit testing, hover, selection and drag.
//
// [scene] - The stateful view combining the three, including the drill-down
// history.
//
// ## Infrastructure
//
// [pipeline] - scan → layout → export with caching, shared by the CLI and the
// server.
//
// [cache] - File, Redis and null caches keyed by content hashes.
//
// [store] - Persistent tree documents in files or MongoDB.
//
// [session] - Server-side scenes with idle expiry.
//
// [server] - The HTTP API.
//
// [config] - TOML settings.
//
// [observability] - Hook registry; [observability/prom] exports the hooks as
// Prometheus metrics.
//
// [errors] - Coded errors shared by the CLI and the API.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/layout/...   # Specific package
package pkg

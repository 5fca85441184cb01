// Package preferences holds the user preferences that sit beside the spectral
// state: the active workspace, zoom step settings and per-nucleus display
// formatting.
//
// Preferences change through a pure reducer (Reduce) and persist through a
// small key-value contract (KV). Two backends ship with the package: an
// in-memory map and a SQLite table.
//
// Resolution:
//
//	Defaults() -> defaults file (YAML) -> KV stored workspace -> dispatched actions
//
// Each step is a layering.Layer; zero values in a stronger layer count as
// unset. A missing or empty KV store is not an error, resolution falls back to
// the weaker layers.
//
// Storage keys:
//
//	"workspace"           name of the last selected workspace
//	"workspaces/<name>"   JSON snapshot of the preferences of that workspace
package preferences

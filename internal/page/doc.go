// Package page implements the page composition model for the Deckplane
// plugin: page definitions, the definition-time inheritance resolver, the
// page registry, and the navigation stack.
//
// # Pages
//
// A page is a named 5x3 grid of key bindings shown on the device. Each
// cell of a definition carries one of three directives:
//
//   - Explicit(name): bind the cell to a named key definition
//   - Clear: leave the cell empty
//   - Inherit: copy the base page's resolved binding at the same cell
//
// # Snapshot Inheritance
//
// Inheritance is a one-time merge performed when the page is defined. The
// resolved page copies concrete bindings from its base; it keeps no live
// link, so later edits to the base never propagate. Chains are single
// level by construction: a base must already be resolved and registered
// before it can be named.
//
// # Atomic Validation
//
// Resolve validates the whole grid before anything is registered. Every
// missing key reference and every inherit-without-base cell is collected
// and reported together in a single ValidationError, and the registry is
// left untouched. A missing base page fails immediately without per-cell
// detail.
//
// # Navigation
//
// The registry keeps a LIFO stack of activated page names. Activating the
// page already on top does not grow the stack. Returning pops the stack
// and re-activates the new top; popping the last entry leaves no page
// active. Activation changes are pushed to a Sink (the reconciliation
// controller), which owns all hardware-facing work.
package page

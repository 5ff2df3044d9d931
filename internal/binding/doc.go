// Package binding wraps remote belief networks and their variables in handles for the
// shell.
//
// A Network handle exposes its variables as named fields and routes assignments to a
// variable into evidence operations on the engine. A Variable handle exposes the
// engine's derived quantities (cpd, posterior, pi, lambda and the incoming messages)
// and its parents and children, memoized according to the network's Policy.
//
// Handles make blocking engine calls and are not safe for concurrent use; the shell
// drives them from a single goroutine.
package binding

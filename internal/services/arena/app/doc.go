// Package app composes and runs the arena process boundary.
//
// It hosts the browser HTTP surface and a gRPC health endpoint over one
// session store, so every transport resolves matches from the same source.
package app

// Package internal holds the randomness primitives shared by the resetflow
// engine. Nothing here is part of the public API.
package internal

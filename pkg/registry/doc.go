// Package registry tracks which reactive containers are visible to a call
// site. Providers register a container under a store name and an optional
// scope tag on a context.Context; anything running with that context, or a
// context derived from it, can resolve the nearest matching container.
//
// The chain is immutable. Registering returns a new context whose entry
// shadows, but never replaces, entries made by ancestors, so sibling subtrees
// never observe each other's registrations.
package registry

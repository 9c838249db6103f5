// Package activity fans store lifecycle events (writes, provider mounts and
// unmounts) out to audit hooks. Hooks are optional; a store without hooks
// never builds events.
package activity

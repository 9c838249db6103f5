// Package atoms defines atom stores: a fixed set of keyed reactive atoms
// plus a generated accessor surface over them.
//
// Define turns an initial value (a string keyed map or a struct) into one
// atom per key. Values that already are atoms keep their identity, so
// derived atoms stay read-only. For every key the store generates six
// accessors, reachable by name (useAgeValue, getAge, useSetAge, setAge,
// useAgeState, subscribeAge), by key (UseValue("age")) or by atom
// (UseAtomValue(ageAtom)). Setters exist only for writable keys.
//
// A Provider mounts a container on a context, optionally under a scope tag.
// Store.Use resolves the container for a context: an explicit WithStore
// container first, then the nearest provider with the requested scope, then
// the nearest provider of the store. Without a provider the facade falls
// back to reactive.Default and a warning is logged.
//
//	store := atoms.MustDefine(map[string]any{"name": "", "age": 0}, atoms.WithName("user"))
//	mounted, _ := store.Provider().Mount(ctx, atoms.ProviderProps{Scope: "admin"})
//	defer mounted.Unmount()
//
//	user := store.Use(mounted.Context(), atoms.WithScope("admin"))
//	user.Set("age", 42)
//	age := user.UseValue("age")
//
// Computed atoms evaluate an expression over other atoms with expr (the
// default), CEL, or goja when built with the js_eval tag.
package atoms

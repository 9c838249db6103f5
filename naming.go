package atoms

import (
	"unicode"
	"unicode/utf8"
)

// Cap upper-cases the first rune of s and leaves the rest untouched.
func Cap(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Category identifies one of the six accessor families generated per key.
type Category int

const (
	CategoryValue Category = iota
	CategoryGet
	CategoryUseSet
	CategorySet
	CategoryState
	CategorySubscribe
)

// Categories lists every category in generation order.
var Categories = []Category{
	CategoryValue,
	CategoryGet,
	CategoryUseSet,
	CategorySet,
	CategoryState,
	CategorySubscribe,
}

func (c Category) String() string {
	switch c {
	case CategoryValue:
		return "value"
	case CategoryGet:
		return "get"
	case CategoryUseSet:
		return "useSet"
	case CategorySet:
		return "set"
	case CategoryState:
		return "state"
	case CategorySubscribe:
		return "subscribe"
	default:
		return "unknown"
	}
}

// WritableOnly reports whether the category is generated only for writable
// keys.
func (c Category) WritableOnly() bool {
	return c == CategoryUseSet || c == CategorySet || c == CategoryState
}

// Identifier returns the generated accessor name for key.
func (c Category) Identifier(key string) string {
	k := Cap(key)
	switch c {
	case CategoryValue:
		return "use" + k + "Value"
	case CategoryGet:
		return "get" + k
	case CategoryUseSet:
		return "useSet" + k
	case CategorySet:
		return "set" + k
	case CategoryState:
		return "use" + k + "State"
	case CategorySubscribe:
		return "subscribe" + k
	default:
		return ""
	}
}

// Identifiers are the export names generated from a store name.
type Identifiers struct {
	Provider string `json:"provider"`
	Meta     string `json:"meta"`
	Hook     string `json:"hook"`
}

// IdentifiersFor derives the export names for name: <Cap(name)>Provider,
// <name>Store (or "store") and use<Cap(name)>Store.
func IdentifiersFor(name string) Identifiers {
	meta := "store"
	if name != "" {
		meta = name + "Store"
	}
	return Identifiers{
		Provider: Cap(name) + "Provider",
		Meta:     meta,
		Hook:     "use" + Cap(name) + "Store",
	}
}

package atoms

import (
	"reflect"

	"github.com/goliatone/go-atoms/internal/hydrate"
)

// As converts an accessor result to T. It reports false for nil and for
// values of another type.
func As[T any](value any) (T, bool) {
	typed, ok := value.(T)
	return typed, ok
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	strict bool
}

// DecodeStrict rejects snapshot keys that have no matching field in T.
func DecodeStrict() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.strict = true
	}
}

// Decode reads every key of the facade's store without tracking and decodes
// the snapshot into T through its JSON field names. Function and channel
// values are left out.
func Decode[T any](f *Facade, opts ...DecodeOption) (T, error) {
	cfg := decodeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	decoderOpts := []hydrate.DecoderOption[T]{hydrate.WithPreHook[T](dropUnencodable)}
	if cfg.strict {
		decoderOpts = append(decoderOpts, hydrate.WithDisallowUnknownFields[T]())
	}
	return hydrate.NewDecoder(decoderOpts...).Decode(hydrate.Context{
		Store: f.b.store.name,
		Scope: f.b.opts.Scope,
	}, f.Snapshot())
}

func dropUnencodable(_ hydrate.Context, snapshot map[string]any) (map[string]any, error) {
	for key, value := range snapshot {
		if value == nil {
			continue
		}
		switch reflect.TypeOf(value).Kind() {
		case reflect.Func, reflect.Chan, reflect.UnsafePointer:
			delete(snapshot, key)
		}
	}
	return snapshot, nil
}

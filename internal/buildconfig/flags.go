package buildconfig

const releaseKey = "release"

// Lookuper is implemented by environment sources that are not plain maps.
type Lookuper interface {
	Lookup(key string) (any, bool)
}

// ParseFlags derives ExternalParams from a raw environment value.
//
// Release is only set when the "release" entry is the boolean true or the
// string "true". Any other value, including "1" or "yes", yields a debug build.
// Already parsed ExternalParams are returned unchanged, other struct shapes
// are not inspected.
func ParseFlags(rawEnv any) ExternalParams {
	var (
		value any
		ok    bool
	)

	switch env := rawEnv.(type) {
	case nil:
		return ExternalParams{}
	case ExternalParams:
		return env
	case *ExternalParams:
		if env == nil {
			return ExternalParams{}
		}
		return *env
	case map[string]any:
		value, ok = env[releaseKey]
	case map[string]string:
		value, ok = env[releaseKey]
	case Lookuper:
		value, ok = env.Lookup(releaseKey)
	}

	if !ok {
		return ExternalParams{}
	}

	switch v := value.(type) {
	case bool:
		return ExternalParams{Release: v}
	case string:
		return ExternalParams{Release: v == "true"}
	default:
		return ExternalParams{}
	}
}

package injector

import "strings"

// Lifestyle is the caching policy of a registration.
type Lifestyle int

const (
	// Transient creates a new instance on every resolve.
	Transient Lifestyle = iota
	// Scoped shares one instance per scope frame.
	Scoped
	// Singleton shares one instance for the lifetime of the injector.
	Singleton
)

func (l Lifestyle) String() string {
	switch l {
	case Transient:
		return "transient"
	case Scoped:
		return "scoped"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// Valid reports whether l is one of the known lifestyles.
func (l Lifestyle) Valid() bool {
	return l >= Transient && l <= Singleton
}

// ParseLifestyle maps a configuration string to a Lifestyle.
// "per_request" is accepted as an alias of transient.
func ParseLifestyle(s string) (Lifestyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transient", "per_request", "per-request", "perrequest":
		return Transient, nil
	case "scoped":
		return Scoped, nil
	case "singleton":
		return Singleton, nil
	default:
		return Transient, ErrInvalidLifestyle(s)
	}
}

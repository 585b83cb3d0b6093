package version

import "github.com/pkg/errors"

const (
	Phase0 = iota
	Altair
	Bellatrix
	Capella
	Deneb
)

var versionToString = map[int]string{
	Phase0:    "phase0",
	Altair:    "altair",
	Bellatrix: "bellatrix",
	Capella:   "capella",
	Deneb:     "deneb",
}

// stringToVersion is the inverse of versionToString.
var stringToVersion = func() map[string]int {
	m := make(map[string]int, len(versionToString))
	for v, s := range versionToString {
		m[s] = v
	}
	return m
}()

// ErrUnsupportedVersion is returned when a string does not name a known fork version.
var ErrUnsupportedVersion = errors.New("unsupported fork version")

// String returns the canonical lowercase name of a fork version.
func String(version int) string {
	if s, ok := versionToString[version]; ok {
		return s
	}
	return "unknown version"
}

// FromString translates a fork name to its version number.
func FromString(name string) (int, error) {
	if v, ok := stringToVersion[name]; ok {
		return v, nil
	}
	return 0, errors.Wrap(ErrUnsupportedVersion, name)
}

// All returns every known fork version in ascending order.
func All() []int {
	return []int{Phase0, Altair, Bellatrix, Capella, Deneb}
}

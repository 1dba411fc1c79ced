// Package roles defines the closed vocabulary of role labels a user can be
// tagged with, in two formats: the storage format written to the graph
// (uppercase, underscore-delimited) and the display format shown to users.
package roles

import "strings"

// Storage-format role labels. This is the complete vocabulary; the
// orchestrator rejects anything else before writing.
const (
	Dancer         = "DANCER"
	DJ             = "DJ"
	Organizer      = "ORGANIZER"
	MC             = "MC"
	Judge          = "JUDGE"
	Winner         = "WINNER"
	Photographer   = "PHOTOGRAPHER"
	Videographer   = "VIDEOGRAPHER"
	GraffitiArtist = "GRAFFITI_ARTIST"
)

// all maps storage format to display format.
var all = map[string]string{
	Dancer:         "Dancer",
	DJ:             "DJ",
	Organizer:      "Organizer",
	MC:             "MC",
	Judge:          "Judge",
	Winner:         "Winner",
	Photographer:   "Photographer",
	Videographer:   "Videographer",
	GraffitiArtist: "Graffiti Artist",
}

var byDisplay = func() map[string]string {
	m := make(map[string]string, len(all))
	for storage, display := range all {
		m[display] = storage
	}
	return m
}()

// IsValid reports whether role is a known storage-format label.
func IsValid(role string) bool {
	_, ok := all[role]
	return ok
}

// All returns the vocabulary in storage format.
func All() []string {
	out := make([]string, 0, len(all))
	for r := range all {
		out = append(out, r)
	}
	return out
}

// ToStorage converts a display-format role to storage format. Unknown
// inputs are uppercased with spaces replaced by underscores so the result
// still fails IsValid rather than silently matching.
func ToStorage(display string) string {
	if storage, ok := byDisplay[display]; ok {
		return storage
	}
	return strings.ReplaceAll(strings.ToUpper(display), " ", "_")
}

// FromStorage converts a storage-format role to display format.
// FromStorage(ToStorage(r)) == r for every valid role.
func FromStorage(storage string) string {
	if display, ok := all[storage]; ok {
		return display
	}
	words := strings.Split(strings.ToLower(storage), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

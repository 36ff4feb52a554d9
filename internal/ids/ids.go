// Package ids generates the short, collision-resistant identifiers used for
// chunks, entities, and communities throughout the graph.
package ids

import gonanoid "github.com/matoous/go-nanoid/v2"

// New returns a new random ID, panicking only if the platform's CSPRNG is
// unavailable (the same failure mode go-nanoid itself documents).
func New() string {
	id, err := gonanoid.New()
	if err != nil {
		panic("ids: failed to generate nanoid: " + err.Error())
	}
	return id
}

package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique id for entities (identities, messages, posts).
func New() string {
	return ksuid.New().String()
}

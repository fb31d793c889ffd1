package convo

import "github.com/oklog/ulid/v2"

// NewID returns a 26-char lexicographically sortable id for conversations
// and jobs.
func NewID() string {
	return ulid.Make().String()
}

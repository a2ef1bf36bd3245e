// Package record holds the pieces shared by every entity family: the
// persisted-record contract, the failure taxonomy, and the generic edit
// session. Domain packages (staff, fleet) define concrete record shapes;
// the storage gateway works against the Entity contract alone.
package record

import (
	"strings"
	"time"
)

// Entity is implemented by every persisted record shape. A RecordID of 0
// means the record has not been saved yet; the store assigns the id on
// insert and stamps UpdatedAt on every successful write. Two records are
// the same entity iff their ids match.
type Entity interface {
	RecordID() int64
	SetRecordID(id int64)
	Stamp(t time.Time)
}

// Blank reports whether s is empty after trimming whitespace. Required
// string fields are validated with this before a session may complete.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

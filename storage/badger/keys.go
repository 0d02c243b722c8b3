package badger

import (
	"fmt"
	"strings"

	"github.com/poiesic/sosai/core"
)

// Key prefixes for different data types
const (
	userRecordPrefix    = "usrrec"
	userEmailPrefix     = "usreml"
	userIDSeq           = "usrrecseq"
	profileRecordPrefix = "medprf"
)

// makeUserKey generates a key for a user by ID.
func makeUserKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", userRecordPrefix, id))
}

// makeUserEmailKey generates the unique email index key.
// Emails are compared case-insensitively.
func makeUserEmailKey(email string) []byte {
	return []byte(userEmailPrefix + ":" + strings.ToLower(strings.TrimSpace(email)))
}

// makeProfileKey generates a key for a medical profile by owning user ID.
func makeProfileKey(userID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", profileRecordPrefix, userID))
}

package badger

import "github.com/google/uuid"

// Database Key Namespace Design
// =============================
//
// BadgerDB is a key-value store, so prefixed keys organize the different
// record types into logical namespaces:
//
// Data Type        Prefix  Key Format     Value
// =========================================================
// User records     "u:"    u:<uuid>       User (JSON)
// Email index      "ue:"   ue:<email>     user uuid (bytes)
// File records     "f:"    f:<uuid>       FileItem (JSON)
//
// Listings and searches are answered by iterating the "f:" namespace and
// filtering with the shared visibility predicate. The drive's query
// surface (by parent, by star, by share membership, by name substring)
// is too varied for per-query indexes to stay consistent under every
// mutation; a single namespace scan keeps one record of truth. Point
// lookups (user by ID, user by email, file by ID) are O(1).

const (
	prefixUser  = "u:"
	prefixEmail = "ue:"
	prefixFile  = "f:"
)

// keyUser generates the key for a user record.
func keyUser(id uuid.UUID) []byte {
	return []byte(prefixUser + id.String())
}

// keyEmail generates the key for the email uniqueness index. The email
// must already be normalized (lowercased, trimmed) by the caller.
func keyEmail(email string) []byte {
	return []byte(prefixEmail + email)
}

// keyFile generates the key for a file record.
func keyFile(id uuid.UUID) []byte {
	return []byte(prefixFile + id.String())
}

// filePrefix is the iteration prefix covering every file record.
func filePrefix() []byte {
	return []byte(prefixFile)
}

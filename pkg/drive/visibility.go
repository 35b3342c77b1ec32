package drive

import "github.com/google/uuid"

// Visible is the single visibility predicate used by every read path.
//
// A FileItem is visible to a user when the user owns it or appears in
// its share list. The original design repeated this rule as ad-hoc query
// filters in each method; centralizing it here keeps the read paths from
// drifting apart.
//
// Visibility says nothing about the trash state: trashed items are
// excluded from normal lookups by the store, not by this predicate, so
// that trash-scoped operations can reuse it.
func Visible(item *FileItem, userID uuid.UUID) bool {
	if item.OwnerID == userID {
		return true
	}
	_, shared := item.SharedPermission(userID)
	return shared
}

// CanEdit reports whether a user may mutate the item.
//
// Mutation is owner-only. Share permissions name "edit" as a level but
// the engine does not grant mutation on its strength; shared items are
// always presented as read-only. This is a deliberate, documented choice
// rather than an oversight: granting real shared-edit would require
// quota and cascade semantics for non-owners that the model does not
// define.
func CanEdit(item *FileItem, userID uuid.UUID) bool {
	return item.OwnerID == userID
}

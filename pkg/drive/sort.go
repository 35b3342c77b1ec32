package drive

import "sort"

// Listing orders are defined once so that every store implementation
// presents identical collation. Name comparison is byte order; the
// choice is deliberate and asserted by the conformance suite.

// SortListing orders folder contents: folders before files, then by
// name ascending.
func SortListing(items []*FileItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type == TypeFolder
		}
		return items[i].Name < items[j].Name
	})
}

// SortByName orders items by name ascending.
func SortByName(items []*FileItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
}

// SortByModifiedDesc orders items most recently modified first.
func SortByModifiedDesc(items []*FileItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ModifiedAt.After(items[j].ModifiedAt)
	})
}

// SortByTrashedDesc orders items most recently trashed first. Items
// without a trash stamp sort last; TrashedAt is set whenever IsTrashed
// is, but the ordering stays total regardless.
func SortByTrashedDesc(items []*FileItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := items[i].TrashedAt, items[j].TrashedAt
		if ti == nil || tj == nil {
			return ti != nil
		}
		return ti.After(*tj)
	})
}

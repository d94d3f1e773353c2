// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FieldKind identifies one extractable category of catalog data. The
// numeric value indexes the corpus-wide field dictionaries.
type FieldKind int

const (
	FieldTitle FieldKind = iota
	FieldSubject
	FieldLanguage
	FieldAuthor
	FieldBookshelf
	FieldFiles
	FieldPublisher
	FieldRights
	FieldDateIssued
	FieldDownloads

	// FieldKindCount is the number of field kinds.
	FieldKindCount = int(FieldDownloads) + 1
)

var fieldKindNames = [FieldKindCount]string{
	FieldTitle:      "Title",
	FieldSubject:    "Subject",
	FieldLanguage:   "Language",
	FieldAuthor:     "Author",
	FieldBookshelf:  "Bookshelf",
	FieldFiles:      "FilesLinks",
	FieldPublisher:  "Publisher",
	FieldRights:     "Rights",
	FieldDateIssued: "DateIssued",
	FieldDownloads:  "Downloads",
}

// String returns the display name of the field kind.
func (k FieldKind) String() string {
	if k < 0 || int(k) >= FieldKindCount {
		return "Unknown"
	}
	return fieldKindNames[k]
}

// FieldKinds returns every field kind in index order.
func FieldKinds() []FieldKind {
	kinds := make([]FieldKind, FieldKindCount)
	for i := range kinds {
		kinds[i] = FieldKind(i)
	}
	return kinds
}

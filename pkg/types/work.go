// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Unresolved marks a scalar field or file type that was not present in the
// source document.
const Unresolved = -1

// FileEntry is one downloadable file of a work. LinkID indexes the
// file-link dictionary; TypeID indexes the file-type dictionary or is
// Unresolved when no type text followed the link.
type FileEntry struct {
	LinkID int `json:"link_id" yaml:"link_id"`
	TypeID int `json:"type_id" yaml:"type_id"`
}

// Work is the record extracted from one catalog document. Scalar *ID
// fields index the matching field dictionary or hold Unresolved.
type Work struct {
	// CatalogID is the externally assigned ebook number (e.g. 1 for "ebooks/1").
	CatalogID uint64 `json:"catalog_id" yaml:"catalog_id"`

	// Ordinal is the 1-based position of the source document in the corpus.
	// Dictionary back-links and cache row keys refer to it.
	Ordinal int `json:"ordinal" yaml:"ordinal"`

	TitleID      int `json:"title_id" yaml:"title_id"`
	PublisherID  int `json:"publisher_id" yaml:"publisher_id"`
	RightsID     int `json:"rights_id" yaml:"rights_id"`
	DateIssuedID int `json:"date_issued_id" yaml:"date_issued_id"`
	DownloadsID  int `json:"downloads_id" yaml:"downloads_id"`

	// DateIssued is the issued date text, empty when absent.
	DateIssued string `json:"date_issued" yaml:"date_issued"`

	// Downloads is the recent download count, zero when absent.
	Downloads int `json:"downloads" yaml:"downloads"`

	LanguageIDs  []int `json:"language_ids" yaml:"language_ids"`
	SubjectIDs   []int `json:"subject_ids" yaml:"subject_ids"`
	AuthorIDs    []int `json:"author_ids" yaml:"author_ids"`
	BookshelfIDs []int `json:"bookshelf_ids" yaml:"bookshelf_ids"`

	// Files lists the file entries in document order.
	Files []FileEntry `json:"files" yaml:"files"`
}

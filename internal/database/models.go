package database

// Import records one load of a spreadsheet into the store.
type Import struct {
	ID          int64
	SourcePath  string
	Sheet       string
	Checksum    string
	RowsRead    int
	RowsKept    int
	RowsDropped int
	ImportedAt  *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Imports        int
	Assets         int
	LatestImportID int64
	LatestAssets   int
}

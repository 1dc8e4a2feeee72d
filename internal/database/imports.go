package database

import (
	"database/sql"
	"fmt"

	"github.com/TobiSchelling/mediadash/internal/asset"
)

const importColumns = `id, source_path, COALESCE(sheet, ''), COALESCE(checksum, ''),
	rows_read, rows_kept, rows_dropped, imported_at`

// InsertImport stores an import and its records in one transaction,
// keeping the records' load order. Returns the new import ID.
func (db *DB) InsertImport(imp Import, records []asset.Record) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO imports (source_path, sheet, checksum, rows_read, rows_kept, rows_dropped)
		VALUES (?, ?, ?, ?, ?, ?)`,
		imp.SourcePath, imp.Sheet, imp.Checksum, imp.RowsRead, len(records), imp.RowsDropped,
	)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO assets (import_id, position, asset_ref, asset_type, performance,
		impressions, clicks, ctr, cost, installs, cost_per_install, installs_per_mille)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare assets: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(id, i, r.Ref, r.Type, r.Performance,
			r.Impressions, r.Clicks, r.CTR, r.Cost, r.Installs, r.CostPerInstall, r.InstallsPerMille,
		); err != nil {
			return 0, fmt.Errorf("insert asset %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return id, nil
}

// GetImport returns an import by ID, or nil if it does not exist.
func (db *DB) GetImport(id int64) (*Import, error) {
	row := db.conn.QueryRow("SELECT "+importColumns+" FROM imports WHERE id = ?", id)
	return scanImport(row)
}

// GetLatestImport returns the most recent import, or nil if there is none.
func (db *DB) GetLatestImport() (*Import, error) {
	row := db.conn.QueryRow("SELECT " + importColumns + " FROM imports ORDER BY id DESC LIMIT 1")
	return scanImport(row)
}

// FindImportByChecksum returns the newest import of identical content.
func (db *DB) FindImportByChecksum(checksum string) (*Import, error) {
	row := db.conn.QueryRow(
		"SELECT "+importColumns+" FROM imports WHERE checksum = ? ORDER BY id DESC LIMIT 1", checksum,
	)
	return scanImport(row)
}

// GetAllImports returns all imports, newest first.
func (db *DB) GetAllImports() ([]Import, error) {
	rows, err := db.conn.Query("SELECT " + importColumns + " FROM imports ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var imports []Import
	for rows.Next() {
		var imp Import
		if err := rows.Scan(&imp.ID, &imp.SourcePath, &imp.Sheet, &imp.Checksum,
			&imp.RowsRead, &imp.RowsKept, &imp.RowsDropped, &imp.ImportedAt); err != nil {
			return nil, err
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// GetAssets returns the records of an import in load order.
func (db *DB) GetAssets(importID int64) ([]asset.Record, error) {
	rows, err := db.conn.Query(
		`SELECT asset_ref, asset_type, performance, impressions, clicks, ctr, cost,
		installs, cost_per_install, installs_per_mille
		FROM assets WHERE import_id = ? ORDER BY position`, importID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []asset.Record
	for rows.Next() {
		var r asset.Record
		var perMille sql.NullFloat64
		if err := rows.Scan(&r.Ref, &r.Type, &r.Performance, &r.Impressions, &r.Clicks,
			&r.CTR, &r.Cost, &r.Installs, &r.CostPerInstall, &perMille); err != nil {
			return nil, err
		}
		if perMille.Valid {
			v := perMille.Float64
			r.InstallsPerMille = &v
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteImport removes an import and its records.
func (db *DB) DeleteImport(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM assets WHERE import_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM imports WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// GetStats returns aggregate store statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM imports").Scan(&s.Imports); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM assets").Scan(&s.Assets); err != nil {
		return nil, err
	}
	latest, err := db.GetLatestImport()
	if err != nil {
		return nil, err
	}
	if latest != nil {
		s.LatestImportID = latest.ID
		s.LatestAssets = latest.RowsKept
	}
	return s, nil
}

func scanImport(row *sql.Row) (*Import, error) {
	var imp Import
	if err := row.Scan(&imp.ID, &imp.SourcePath, &imp.Sheet, &imp.Checksum,
		&imp.RowsRead, &imp.RowsKept, &imp.RowsDropped, &imp.ImportedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &imp, nil
}

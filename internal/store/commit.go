package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
)

// CommitFile replaces everything stored for batch.File.Path with the batch
// contents inside a single transaction and returns the new file ID.
//
// Insert order respects FK dependencies:
//  1. File record (old record and its rows removed first)
//  2. Declarations
//  3. Imports
//  4. Diagnostics
func (s *Store) CommitFile(batch *FileBatch) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: commit %s: begin: %w", batch.File.Path, err)
	}
	defer tx.Rollback()

	var oldID int64
	err = tx.QueryRow("SELECT id FROM files WHERE path = ?", batch.File.Path).Scan(&oldID)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return 0, fmt.Errorf("store: commit %s: lookup: %w", batch.File.Path, err)
	default:
		if err := deleteFileDataTx(tx, oldID); err != nil {
			return 0, err
		}
		if _, err := tx.Exec("DELETE FROM files WHERE id = ?", oldID); err != nil {
			return 0, fmt.Errorf("store: commit %s: delete file record: %w", batch.File.Path, err)
		}
	}

	fileID, err := insertFileTx(tx, &batch.File)
	if err != nil {
		return 0, fmt.Errorf("store: commit %s: %w", batch.File.Path, err)
	}
	for i := range batch.Declarations {
		d := &batch.Declarations[i]
		d.FileID = fileID
		if _, err := insertDeclarationTx(tx, d); err != nil {
			return 0, fmt.Errorf("store: commit %s: declaration %q: %w", batch.File.Path, d.Name, err)
		}
	}
	for i := range batch.Imports {
		imp := &batch.Imports[i]
		imp.FileID = fileID
		if _, err := insertImportTx(tx, imp); err != nil {
			return 0, fmt.Errorf("store: commit %s: import %q: %w", batch.File.Path, imp.Name, err)
		}
	}
	if err := insertDiagnosticsTx(tx, fileID, batch.Diagnostics); err != nil {
		return 0, fmt.Errorf("store: commit %s: %w", batch.File.Path, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit %s: %w", batch.File.Path, err)
	}
	return fileID, nil
}

// ReplaceDiagnostics swaps the stored diagnostics of a file, leaving its
// declarations and imports untouched.
func (s *Store) ReplaceDiagnostics(fileID int64, diags []Diagnostic) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: replace diagnostics: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM diagnostics WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("store: replace diagnostics: %w", err)
	}
	if err := insertDiagnosticsTx(tx, fileID, diags); err != nil {
		return fmt.Errorf("store: replace diagnostics: %w", err)
	}
	return tx.Commit()
}

func insertFileTx(tx *sql.Tx, f *File) (int64, error) {
	if f.BaseName == "" {
		f.BaseName = filepath.Base(f.Path)
	}
	res, err := tx.Exec(
		"INSERT INTO files (path, base_name, hash, line_count, last_indexed) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.BaseName, f.Hash, f.LineCount, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

func insertDeclarationTx(tx *sql.Tx, d *Declaration) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO declarations (file_id, name, kind, type_expr, params, signature_hash,
			start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.Name, d.Kind, d.TypeExpr, marshalStrings(d.Params), d.SignatureHash,
		d.StartLine, d.StartCol, d.EndLine, d.EndCol,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	d.ID = id
	return id, nil
}

func insertImportTx(tx *sql.Tx, imp *Import) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO imports (file_id, name, resolved_path, line, col) VALUES (?, ?, ?, ?, ?)",
		imp.FileID, imp.Name, nullString(imp.ResolvedPath), imp.Line, imp.Col,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	imp.ID = id
	return id, nil
}

func insertDiagnosticsTx(tx *sql.Tx, fileID int64, diags []Diagnostic) error {
	for i := range diags {
		d := &diags[i]
		d.FileID = fileID
		res, err := tx.Exec(
			`INSERT INTO diagnostics (file_id, kind, severity, message, start_offset, end_offset, line, col, fix)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.FileID, d.Kind, d.Severity, d.Message, d.StartOffset, d.EndOffset, d.Line, d.Col, nullString(d.Fix),
		)
		if err != nil {
			return fmt.Errorf("insert diagnostic %q: %w", d.Kind, err)
		}
		if d.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
	}
	return nil
}

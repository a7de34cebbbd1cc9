package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

// InsertFile inserts a bare file record. Most callers use CommitFile.
func (s *Store) InsertFile(f *File) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: insert file: %w", err)
	}
	defer tx.Rollback()
	id, err := insertFileTx(tx, f)
	if err != nil {
		return 0, fmt.Errorf("store: %w", err)
	}
	return id, tx.Commit()
}

const fileColumns = "id, path, base_name, hash, line_count, last_indexed"

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	if err := scanner.Scan(&f.ID, &f.Path, &f.BaseName, &f.Hash, &f.LineCount, &f.LastIndexed); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Store) queryFiles(query string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// FileByPath returns the file stored under path, or nil when there is none.
func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileColumns+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: file by path: %w", err)
	}
	return f, nil
}

// FilesByBaseName returns every file whose base name equals name.
func (s *Store) FilesByBaseName(name string) ([]*File, error) {
	files, err := s.queryFiles("SELECT "+fileColumns+" FROM files WHERE base_name = ? ORDER BY path", name)
	if err != nil {
		return nil, fmt.Errorf("store: files by base name: %w", err)
	}
	return files, nil
}

// AllFiles returns every stored file ordered by path.
func (s *Store) AllFiles() ([]*File, error) {
	files, err := s.queryFiles("SELECT " + fileColumns + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("store: all files: %w", err)
	}
	return files, nil
}

// --- Declaration operations ---

const declarationColumns = `id, file_id, name, kind, type_expr, params, signature_hash,
	start_line, start_col, end_line, end_col`

func (s *Store) queryDeclarations(query string, args ...any) ([]*Declaration, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var decls []*Declaration
	for rows.Next() {
		d := &Declaration{}
		var typeExpr, params, hash sql.NullString
		if err := rows.Scan(&d.ID, &d.FileID, &d.Name, &d.Kind, &typeExpr, &params, &hash,
			&d.StartLine, &d.StartCol, &d.EndLine, &d.EndCol); err != nil {
			return nil, fmt.Errorf("scan declaration: %w", err)
		}
		d.TypeExpr = typeExpr.String
		d.Params = unmarshalStrings(params.String)
		d.SignatureHash = hash.String
		decls = append(decls, d)
	}
	return decls, rows.Err()
}

// DeclarationsByFile returns the declarations of a file in source order.
func (s *Store) DeclarationsByFile(fileID int64) ([]*Declaration, error) {
	decls, err := s.queryDeclarations("SELECT "+declarationColumns+" FROM declarations WHERE file_id = ? ORDER BY id", fileID)
	if err != nil {
		return nil, fmt.Errorf("store: declarations by file: %w", err)
	}
	return decls, nil
}

// DeclarationsByName returns declarations named name across the project.
// An empty kind matches every kind.
func (s *Store) DeclarationsByName(name, kind string) ([]*Declaration, error) {
	query := "SELECT " + declarationColumns + " FROM declarations WHERE name = ?"
	args := []any{name}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	decls, err := s.queryDeclarations(query+" ORDER BY file_id, id", args...)
	if err != nil {
		return nil, fmt.Errorf("store: declarations by name: %w", err)
	}
	return decls, nil
}

// --- Import operations ---

// ImportsByFile returns the import directives of a file in source order.
func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	rows, err := s.db.Query(
		"SELECT id, file_id, name, resolved_path, line, col FROM imports WHERE file_id = ? ORDER BY id", fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: imports by file: %w", err)
	}
	defer rows.Close()
	var imps []*Import
	for rows.Next() {
		imp := &Import{}
		var resolved sql.NullString
		if err := rows.Scan(&imp.ID, &imp.FileID, &imp.Name, &resolved, &imp.Line, &imp.Col); err != nil {
			return nil, fmt.Errorf("store: scan import: %w", err)
		}
		imp.ResolvedPath = resolved.String
		imps = append(imps, imp)
	}
	return imps, rows.Err()
}

// --- Diagnostic operations ---

func (s *Store) queryDiagnostics(query string, args ...any) ([]*Diagnostic, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var diags []*Diagnostic
	for rows.Next() {
		d := &Diagnostic{}
		var fix sql.NullString
		if err := rows.Scan(&d.ID, &d.FileID, &d.Path, &d.Kind, &d.Severity, &d.Message,
			&d.StartOffset, &d.EndOffset, &d.Line, &d.Col, &fix); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Fix = fix.String
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

const diagnosticSelect = `SELECT d.id, d.file_id, f.path, d.kind, d.severity, d.message,
	d.start_offset, d.end_offset, d.line, d.col, d.fix
	FROM diagnostics d JOIN files f ON f.id = d.file_id`

// DiagnosticsByFile returns the stored diagnostics of a file by position.
func (s *Store) DiagnosticsByFile(fileID int64) ([]*Diagnostic, error) {
	diags, err := s.queryDiagnostics(diagnosticSelect+" WHERE d.file_id = ? ORDER BY d.start_offset, d.id", fileID)
	if err != nil {
		return nil, fmt.Errorf("store: diagnostics by file: %w", err)
	}
	return diags, nil
}

// AllDiagnostics returns every stored diagnostic ordered by path and position.
func (s *Store) AllDiagnostics() ([]*Diagnostic, error) {
	diags, err := s.queryDiagnostics(diagnosticSelect + " ORDER BY f.path, d.start_offset, d.id")
	if err != nil {
		return nil, fmt.Errorf("store: all diagnostics: %w", err)
	}
	return diags, nil
}

package store

import "fmt"

// FilesImporting returns the IDs of files with an import directive naming
// any of names. A change to a file named N can alter the diagnostics of
// every file importing N.
func (s *Store) FilesImporting(names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(
		"SELECT DISTINCT file_id FROM imports WHERE name IN ("+placeholderList(len(names))+") ORDER BY file_id",
		stringsToArgs(names)...,
	)
	if err != nil {
		return nil, fmt.Errorf("store: files importing: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan file id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

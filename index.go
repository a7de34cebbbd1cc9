package glint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jward/glint/internal/modgraph"
	"github.com/jward/glint/internal/store"
	"github.com/jward/glint/internal/symbols"
	"github.com/jward/glint/internal/syntax"
	"github.com/jward/glint/internal/types"
)

const rulesHashKey = "rules_hash"

// IndexStats summarizes one Index run.
type IndexStats struct {
	Indexed      int // files whose declarations were re-extracted
	Rechecked    int // unchanged files whose diagnostics were refreshed
	Skipped      int
	Removed      int
	RulesChanged bool
}

// declSet is the signature hashes of a file's declarations, used to decide
// whether importers need their diagnostics refreshed.
type declSet map[string]bool

// Index mirrors the current snapshot into the store. Unchanged files are
// skipped. A file is re-extracted when its content changed; its importers
// are re-checked when its declarations changed, when it was added or when
// it was removed. A change to the rule scripts re-checks every file.
func (e *Engine) Index(ctx context.Context) (*IndexStats, error) {
	if e.store == nil {
		return nil, fmt.Errorf("glint: index: engine has no store")
	}
	s := e.Snapshot()
	stats := &IndexStats{}

	rulesHash, err := e.runtime.RulesHash()
	if err != nil {
		return nil, fmt.Errorf("glint: index: %w", err)
	}
	stored, err := e.store.GetMetadata(rulesHashKey)
	if err != nil {
		return nil, fmt.Errorf("glint: index: %w", err)
	}
	stats.RulesChanged = stored != rulesHash

	existing, err := e.store.AllFiles()
	if err != nil {
		return nil, fmt.Errorf("glint: index: %w", err)
	}
	byPath := make(map[string]*store.File, len(existing))
	for _, sf := range existing {
		byPath[sf.Path] = sf
	}

	// Names whose declarations may have changed. Their importers, and the
	// importers of those, form the blast radius.
	touched := make(map[string]bool)
	for path, sf := range byPath {
		if s.File(path) != nil {
			continue
		}
		if err := e.store.DeleteFile(path); err != nil {
			return nil, fmt.Errorf("glint: index: %w", err)
		}
		touched[sf.BaseName] = true
		stats.Removed++
	}

	var changed []*File
	for _, f := range s.Files() {
		sf := byPath[f.Path]
		if sf != nil && sf.Hash == f.Revision {
			continue
		}
		changed = append(changed, f)
		if sf == nil {
			touched[f.Name()] = true
			continue
		}
		old, err := e.storedDecls(sf.ID)
		if err != nil {
			return nil, fmt.Errorf("glint: index: %w", err)
		}
		if !sameDecls(old, e.declSetOf(s, f)) {
			touched[f.Name()] = true
		}
	}

	blast, err := e.blastRadius(existing, touched)
	if err != nil {
		return nil, fmt.Errorf("glint: index: %w", err)
	}

	isChanged := make(map[string]bool, len(changed))
	var errs []error
	for _, f := range changed {
		isChanged[f.Path] = true
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.indexFile(ctx, s, f); err != nil {
			e.logger.Warn("index failed", "file", f.Path, "error", err)
			errs = append(errs, err)
			continue
		}
		stats.Indexed++
	}

	for _, f := range s.Files() {
		if isChanged[f.Path] {
			continue
		}
		sf := byPath[f.Path]
		if !stats.RulesChanged && !blast[sf.ID] {
			stats.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.recheckFile(ctx, s, f, sf.ID); err != nil {
			e.logger.Warn("recheck failed", "file", f.Path, "error", err)
			errs = append(errs, err)
			continue
		}
		stats.Rechecked++
	}

	if len(errs) > 0 {
		return stats, fmt.Errorf("glint: indexing had %d error(s): %w", len(errs), errs[0])
	}
	if err := e.store.SetMetadata(rulesHashKey, rulesHash); err != nil {
		return stats, fmt.Errorf("glint: index: %w", err)
	}
	e.logger.Info("indexed", "files", s.Len(), "indexed", stats.Indexed,
		"rechecked", stats.Rechecked, "skipped", stats.Skipped, "removed", stats.Removed)
	return stats, nil
}

// blastRadius returns the IDs of the stored files that import any of the
// touched names, directly or through a chain of imports. A file's
// diagnostics can depend on types declared two or more imports away.
func (e *Engine) blastRadius(existing []*store.File, touched map[string]bool) (map[int64]bool, error) {
	byID := make(map[int64]*store.File, len(existing))
	for _, sf := range existing {
		byID[sf.ID] = sf
	}

	blast := make(map[int64]bool)
	seen := make(map[string]bool, len(touched))
	var frontier []string
	for n := range touched {
		seen[n] = true
		frontier = append(frontier, n)
	}
	for len(frontier) > 0 {
		ids, err := e.store.FilesImporting(frontier)
		if err != nil {
			return nil, err
		}
		frontier = nil
		for _, id := range ids {
			if blast[id] {
				continue
			}
			blast[id] = true
			sf := byID[id]
			if sf == nil || seen[sf.BaseName] {
				continue
			}
			seen[sf.BaseName] = true
			frontier = append(frontier, sf.BaseName)
		}
	}
	return blast, nil
}

func (e *Engine) indexFile(ctx context.Context, s *Snapshot, f *File) error {
	diags, err := e.check(ctx, s, f)
	if err != nil {
		return err
	}
	storedDiags, err := toStoreDiagnostics(diags)
	if err != nil {
		return err
	}
	batch := &store.FileBatch{
		File: store.File{
			Path:        f.Path,
			BaseName:    f.Name(),
			Hash:        f.Revision,
			LineCount:   bytes.Count(f.Source, []byte("\n")) + 1,
			LastIndexed: time.Now(),
		},
		Declarations: e.declarations(s, f),
		Imports:      imports(s, f),
		Diagnostics:  storedDiags,
	}
	_, err = e.store.CommitFile(batch)
	return err
}

func (e *Engine) recheckFile(ctx context.Context, s *Snapshot, f *File, fileID int64) error {
	diags, err := e.check(ctx, s, f)
	if err != nil {
		return err
	}
	storedDiags, err := toStoreDiagnostics(diags)
	if err != nil {
		return err
	}
	return e.store.ReplaceDiagnostics(fileID, storedDiags)
}

func (e *Engine) declarations(s *Snapshot, f *File) []store.Declaration {
	a := s.Analyzer()
	var out []store.Declaration
	for _, el := range symbols.TopLevel(f) {
		d := store.Declaration{Name: el.Name, Kind: el.Kind.String()}
		switch el.Kind {
		case syntax.KindFunction:
			sig := a.Signature(f, el.Node)
			d.TypeExpr = sig.Return.String()
			d.Params = typeNames(sig.Params)
		case syntax.KindStruct:
			d.TypeExpr = "struct"
			if st, ok := a.TypeNamed(f, el.Name).(*types.Struct); ok {
				for _, fld := range st.Fields {
					d.Params = append(d.Params, fld.Type.String())
				}
			}
		case syntax.KindVariable:
			d.TypeExpr = a.DeclaredType(f, el.Node).String()
		}
		rng := el.Node.Range()
		d.StartLine, d.StartCol = f.Position(rng.Start)
		d.EndLine, d.EndCol = f.Position(rng.End)
		d.SignatureHash = store.ComputeSignatureHash(d.Name, d.Kind, d.TypeExpr, d.Params)
		out = append(out, d)
	}
	return out
}

func (e *Engine) declSetOf(s *Snapshot, f *File) declSet {
	set := make(declSet)
	for _, d := range e.declarations(s, f) {
		set[d.SignatureHash] = true
	}
	return set
}

func (e *Engine) storedDecls(fileID int64) (declSet, error) {
	decls, err := e.store.DeclarationsByFile(fileID)
	if err != nil {
		return nil, err
	}
	set := make(declSet, len(decls))
	for _, d := range decls {
		set[d.SignatureHash] = true
	}
	return set, nil
}

func sameDecls(a, b declSet) bool {
	if len(a) != len(b) {
		return false
	}
	for h := range a {
		if !b[h] {
			return false
		}
	}
	return true
}

func typeNames(ts []types.Type) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

func imports(s *Snapshot, f *File) []store.Import {
	var out []store.Import
	for _, d := range modgraph.Directives(f) {
		imp := store.Import{Name: d.Name}
		if target := s.ResolveImport(f, d.Name); target != nil {
			imp.ResolvedPath = target.Path
		}
		imp.Line, imp.Col = f.Position(d.Node.Range().Start)
		out = append(out, imp)
	}
	return out
}

func toStoreDiagnostics(diags []Diagnostic) ([]store.Diagnostic, error) {
	out := make([]store.Diagnostic, 0, len(diags))
	for _, d := range diags {
		sd := store.Diagnostic{
			Path:        d.Path,
			Kind:        string(d.Kind),
			Severity:    string(d.Severity),
			Message:     d.Message,
			StartOffset: d.Range.Start,
			EndOffset:   d.Range.End,
			Line:        d.Line,
			Col:         d.Column,
		}
		if d.Fix != nil {
			b, err := json.Marshal(d.Fix)
			if err != nil {
				return nil, fmt.Errorf("encode fix: %w", err)
			}
			sd.Fix = string(b)
		}
		out = append(out, sd)
	}
	return out, nil
}

// Package genes implements import and in-memory lookup of per-gene
// naming records.
package genes

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/openbio/annostore/internal/errs"
	"github.com/openbio/annostore/internal/ingest"
	"github.com/openbio/annostore/internal/records"
	"github.com/openbio/annostore/internal/store"
)

// DefaultCF is the column family holding gene records keyed by HGNC ID.
const DefaultCF = "genes"

// ImportConfig parameterizes one gene import run.
type ImportConfig struct {
	// Target column family.
	CF string
	// Genome release of the data.
	GenomeRelease string
	// Version of the imported source.
	SourceVersion string
	// Show progress bars on stderr.
	Progress bool
}

// Import ingests JSONL files of gene-names records keyed by HGNC ID.
func Import(db *store.DB, cfg ImportConfig, paths []string) error {
	if cfg.CF == "" {
		cfg.CF = DefaultCF
	}
	if err := db.CreateColumnFamily(cfg.CF); err != nil {
		return err
	}

	for _, path := range paths {
		in, err := ingest.Open(path, cfg.Progress)
		if err != nil {
			return err
		}
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 1<<20), 1<<24)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			var record records.GeneNames
			if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
				in.Close()
				return errs.SourceParse("genes.Import", lineNo, path, err)
			}
			if record.HgncID == "" {
				in.Close()
				return errs.SourceParse("genes.Import", lineNo, path,
					fmt.Errorf("record without HGNC ID"))
			}
			if err := db.Put(cfg.CF, []byte(record.HgncID), record.Marshal()); err != nil {
				in.Close()
				return err
			}
		}
		err = scanner.Err()
		in.Close()
		if err != nil {
			return errs.WrapKind("genes.Import", errs.KindIO, err)
		}
	}

	if err := db.WriteMeta(&store.Meta{
		GenomeRelease: cfg.GenomeRelease,
		SourceVersion: cfg.SourceVersion,
		SourceKind:    "genes",
	}); err != nil {
		return err
	}
	return db.CompactAll()
}

// Table is the in-memory gene-names table loaded at server startup.
// Lookups match symbols and identifiers exactly; search scores substring
// matches as well.
type Table struct {
	// All gene records in key order.
	GeneNames []records.GeneNames

	// nameToIdx maps symbols and identifiers to indices into GeneNames.
	nameToIdx map[string]int
}

// Load reads the whole gene column family into memory.
func Load(db *store.DB, cf string) (*Table, error) {
	if cf == "" {
		cf = DefaultCF
	}
	it, err := db.NewIter(cf)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	table := &Table{nameToIdx: make(map[string]int)}
	for ok := it.SeekToFirst(); ok && it.Valid(); it.Next() {
		var record records.GeneNames
		if err := record.Unmarshal(it.Value()); err != nil {
			return nil, err
		}
		idx := len(table.GeneNames)
		table.GeneNames = append(table.GeneNames, record)
		for _, name := range []string{record.HgncID, record.Symbol, record.EnsemblGeneID, record.NcbiGeneID} {
			if name != "" {
				table.nameToIdx[name] = idx
			}
		}
	}
	return table, nil
}

// ByID returns the record for an HGNC ID, or nil.
func (t *Table) ByID(hgncID string) *records.GeneNames {
	return t.Lookup(hgncID)
}

// Lookup matches q exactly against symbols and HGNC/ENSEMBL/NCBI
// identifiers, returning nil for a miss.
func (t *Table) Lookup(q string) *records.GeneNames {
	idx, ok := t.nameToIdx[q]
	if !ok {
		return nil
	}
	return &t.GeneNames[idx]
}

// Fields that search can be restricted to.
const (
	FieldHgncID        = "hgnc_id"
	FieldSymbol        = "symbol"
	FieldName          = "name"
	FieldAliasSymbol   = "alias_symbol"
	FieldAliasName     = "alias_name"
	FieldEnsemblGeneID = "ensembl_gene_id"
	FieldNcbiGeneID    = "ncbi_gene_id"
)

// Scored is one search hit with its score.
type Scored struct {
	// Match quality: 1.0 for an exact match, |q|/|field| for a substring
	// match.
	Score float64 `json:"score"`
	// The matched record.
	Data records.GeneNames `json:"data"`
}

// maxSearchHits caps the number of search results.
const maxSearchHits = 100

// minQueryLen is the shortest query that search will consider.
const minQueryLen = 2

// Search scores all genes against q and returns hits ordered by
// descending score, ties broken by symbol.  An empty fields list searches
// every field.
func (t *Table) Search(q string, fields []string, caseSensitive bool) []Scored {
	if len(q) < minQueryLen {
		return nil
	}
	if !caseSensitive {
		q = strings.ToLower(q)
	}
	equalsQ := func(val string) bool {
		if !caseSensitive {
			val = strings.ToLower(val)
		}
		return val == q
	}
	containsQ := func(val string) bool {
		if !caseSensitive {
			val = strings.ToLower(val)
		}
		return strings.Contains(val, q)
	}
	fieldEnabled := func(field string) bool {
		if len(fields) == 0 {
			return true
		}
		for _, f := range fields {
			if f == field {
				return true
			}
		}
		return false
	}
	substrScore := func(val string) float64 {
		return float64(len(q)) / float64(len(val))
	}
	bestAlias := func(vals []string) float64 {
		best := 0.0
		for _, v := range vals {
			if containsQ(v) && substrScore(v) > best {
				best = substrScore(v)
			}
		}
		return best
	}

	var hits []Scored
	for i := range t.GeneNames {
		gn := &t.GeneNames[i]
		var score float64
		switch {
		case fieldEnabled(FieldHgncID) && equalsQ(gn.HgncID),
			fieldEnabled(FieldSymbol) && equalsQ(gn.Symbol),
			fieldEnabled(FieldName) && equalsQ(gn.Name),
			fieldEnabled(FieldEnsemblGeneID) && equalsQ(gn.EnsemblGeneID),
			fieldEnabled(FieldNcbiGeneID) && equalsQ(gn.NcbiGeneID):
			score = 1.0
		case fieldEnabled(FieldSymbol) && containsQ(gn.Symbol):
			score = substrScore(gn.Symbol)
		case fieldEnabled(FieldName) && containsQ(gn.Name):
			score = substrScore(gn.Name)
		case fieldEnabled(FieldAliasSymbol) && bestAlias(gn.AliasSymbols) > 0:
			score = bestAlias(gn.AliasSymbols)
		case fieldEnabled(FieldAliasName) && bestAlias(gn.AliasNames) > 0:
			score = bestAlias(gn.AliasNames)
		}
		if score > 0 {
			hits = append(hits, Scored{Score: score, Data: *gn})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Data.Symbol < hits[j].Data.Symbol
	})
	if len(hits) > maxSearchHits {
		hits = hits[:maxSearchHits]
	}
	return hits
}

package tsv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openbio/annostore/internal/errs"
	"github.com/openbio/annostore/internal/ingest"
	"github.com/openbio/annostore/internal/keys"
	"github.com/openbio/annostore/internal/store"
)

// ImportConfig parameterizes one TSV import run.
type ImportConfig struct {
	// Target column family.
	CF string
	// Genome release of the data.
	GenomeRelease string
	// Version of the imported source.
	SourceVersion string
	// Schema inference configuration.
	Infer InferConfig
	// Show progress bars on stderr.
	Progress bool
}

// Import ingests the given delimited files into db.  Schemas are inferred
// per file and merged; the resulting schema and inference configuration
// are persisted in the meta column family.  The import finishes with a
// manual compaction.
func Import(db *store.DB, cfg ImportConfig, paths []string) error {
	schema, err := inferAll(cfg, paths)
	if err != nil {
		return err
	}

	if err := db.CreateColumnFamily(cfg.CF); err != nil {
		return err
	}

	for _, path := range paths {
		if err := importFile(db, cfg, schema, path); err != nil {
			return err
		}
	}

	if err := db.WriteMeta(&store.Meta{
		GenomeRelease: cfg.GenomeRelease,
		SourceVersion: cfg.SourceVersion,
		SourceKind:    "tsv",
	}); err != nil {
		return err
	}
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return errs.Wrap("tsv.Import", err)
	}
	if err := db.PutMeta(store.MetaFileSchema, string(schemaJSON)); err != nil {
		return err
	}
	cfgJSON, err := json.Marshal(cfg.Infer)
	if err != nil {
		return errs.Wrap("tsv.Import", err)
	}
	if err := db.PutMeta(store.MetaInferConfig, string(cfgJSON)); err != nil {
		return err
	}

	return db.CompactAll()
}

// ReadSchema loads the persisted file schema of a TSV database.
func ReadSchema(db *store.DB) (*FileSchema, error) {
	raw, err := db.GetMeta(store.MetaFileSchema)
	if err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return nil, errs.Ef("tsv.ReadSchema", errs.KindMissingMetadata,
				"database has no meta:%s entry", store.MetaFileSchema)
		}
		return nil, err
	}
	var schema FileSchema
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		return nil, errs.WrapKind("tsv.ReadSchema", errs.KindDecodeFailed, err)
	}
	return &schema, nil
}

func inferAll(cfg ImportConfig, paths []string) (*FileSchema, error) {
	var schema *FileSchema
	for _, path := range paths {
		in, err := ingest.Open(path, false)
		if err != nil {
			return nil, err
		}
		fileSchema, err := InferSchema(in, cfg.Infer)
		in.Close()
		if err != nil {
			return nil, errs.Wrap(errs.Op(fmt.Sprintf("tsv.Import(%s)", path)), err)
		}
		if schema == nil {
			schema = fileSchema
		} else if schema, err = schema.Merge(fileSchema); err != nil {
			return nil, err
		}
	}
	if schema == nil {
		return nil, errs.Ef("tsv.Import", errs.KindSourceParse, "no input files")
	}
	return schema, nil
}

func importFile(db *store.DB, cfg ImportConfig, schema *FileSchema, path string) error {
	in, err := ingest.Open(path, cfg.Progress)
	if err != nil {
		return err
	}
	defer in.Close()

	colIdx := func(name string) int {
		for i, col := range schema.Columns {
			if col.Name == name {
				return i
			}
		}
		return -1
	}
	chromIdx := colIdx(cfg.Infer.ColChromosome)
	posIdx := colIdx(cfg.Infer.ColStart)
	refIdx := colIdx(cfg.Infer.ColReference)
	altIdx := colIdx(cfg.Infer.ColAlternative)
	if chromIdx < 0 || posIdx < 0 {
		return errs.Ef("tsv.importFile", errs.KindSourceParse,
			"schema has no %q/%q columns", cfg.Infer.ColChromosome, cfg.Infer.ColStart)
	}

	skipped := ingest.NewSkipCounter("tsv import " + path)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1<<20), 1<<24)

	lineNo := 0
	header := false
	for scanner.Scan() {
		lineNo++
		if lineNo <= cfg.Infer.SkipRows {
			continue
		}
		if !header {
			header = true
			continue
		}
		record := strings.Split(scanner.Text(), cfg.Infer.FieldDelimiter)
		if len(record) != len(schema.Columns) && !cfg.Infer.Flexible {
			return errs.SourceParse("tsv.importFile", lineNo, "",
				fmt.Errorf("row has %d columns, schema has %d", len(record), len(schema.Columns)))
		}

		cell := func(idx int) string {
			if idx < 0 || idx >= len(record) {
				return ""
			}
			return record[idx]
		}

		chrom := cell(chromIdx)
		if !keys.IsCanonical(chrom) {
			skipped.Skip(fmt.Sprintf("line %d: non-canonical chromosome %q", lineNo, chrom))
			continue
		}
		pos, err := keys.CheckPosition(cell(posIdx))
		if err != nil {
			return errs.SourceParse("tsv.importFile", lineNo, cfg.Infer.ColStart, err)
		}
		if pos <= 0 {
			skipped.Skip(fmt.Sprintf("line %d: non-positive position %d", lineNo, pos))
			continue
		}

		var key []byte
		ref, alt := cell(refIdx), cell(altIdx)
		if refIdx >= 0 && altIdx >= 0 {
			if ref == "" || alt == "" {
				skipped.Skip(fmt.Sprintf("line %d: empty alleles", lineNo))
				continue
			}
			key, err = keys.Var{Chrom: chrom, Pos: pos, Reference: ref, Alternative: alt}.Encode()
		} else {
			key, err = keys.Pos{Chrom: chrom, Pos: pos}.Encode()
		}
		if err != nil {
			return errs.SourceParse("tsv.importFile", lineNo, cfg.Infer.ColChromosome, err)
		}

		value, err := EncodeRow(schema, record, cfg.Infer.NullValues)
		if err != nil {
			return errs.SourceParse("tsv.importFile", lineNo, "", err)
		}
		if err := db.Put(cfg.CF, key, value); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errs.WrapKind("tsv.importFile", errs.KindIO, err)
	}
	skipped.Report()
	return nil
}

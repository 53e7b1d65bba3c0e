package main

import (
	"github.com/spf13/cobra"

	"github.com/openbio/annostore/internal/clinvarsv"
	"github.com/openbio/annostore/internal/freqs"
	"github.com/openbio/annostore/internal/genes"
	"github.com/openbio/annostore/internal/gnomadsv"
	"github.com/openbio/annostore/internal/store"
	"github.com/openbio/annostore/internal/tsv"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import annotation sources",
	Long: `Import annotation source files into a database.  Each sub-command
handles one source shape; imports create the column families they need,
record metadata and finish with a manual compaction.`,
}

var (
	importPathRocksdb   string
	importGenomeRelease string
	importSourceVersion string
	importNoProgress    bool
)

func init() {
	pf := importCmd.PersistentFlags()
	pf.StringVar(&importPathRocksdb, "path-rocksdb", "", "Path to database directory")
	pf.StringVar(&importGenomeRelease, "genome-release", "", "Genome release of the data (grch37|grch38)")
	pf.StringVar(&importSourceVersion, "source-version", "", "Version of the imported source")
	pf.BoolVar(&importNoProgress, "no-progress", false, "Disable progress bars")
	importCmd.MarkPersistentFlagRequired("path-rocksdb")
	importCmd.MarkPersistentFlagRequired("genome-release")

	importCmd.AddCommand(importTsvCmd)
	importCmd.AddCommand(importFreqsCmd)
	importCmd.AddCommand(importClinvarSVCmd)
	importCmd.AddCommand(importGnomadSVCmd)
	importCmd.AddCommand(importGenesCmd)
}

// openImportDB opens the target database for bulk writing.
func openImportDB() (*store.DB, error) {
	return store.Open(importPathRocksdb, store.Options{WALDir: importWALDir})
}

var importWALDir string

var (
	tsvCFName       string
	tsvDelimiter    string
	tsvNullValues   []string
	tsvHeaderPrefix string
	tsvSkipRows     int
	tsvNumRows      int
	tsvFlexible     bool
	tsvColChrom     string
	tsvColStart     string
	tsvColRef       string
	tsvColAlt       string
)

var importTsvCmd = &cobra.Command{
	Use:   "tsv [files...]",
	Short: "Import delimited annotation tables",
	Long: `Import TSV files without a fixed schema.  Column types are inferred
over a bounded prefix of rows and persisted as metadata.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openImportDB()
		if err != nil {
			return err
		}
		defer db.Close()

		infer := tsv.DefaultInferConfig()
		infer.FieldDelimiter = tsvDelimiter
		if len(tsvNullValues) > 0 {
			infer.NullValues = tsvNullValues
		}
		infer.HeaderPrefix = tsvHeaderPrefix
		infer.SkipRows = tsvSkipRows
		infer.NumRows = tsvNumRows
		infer.Flexible = tsvFlexible
		infer.ColChromosome = tsvColChrom
		infer.ColStart = tsvColStart
		infer.ColReference = tsvColRef
		infer.ColAlternative = tsvColAlt

		return tsv.Import(db, tsv.ImportConfig{
			CF:            tsvCFName,
			GenomeRelease: importGenomeRelease,
			SourceVersion: importSourceVersion,
			Infer:         infer,
			Progress:      !importNoProgress,
		}, args)
	},
}

var (
	freqsGnomadExomes  []string
	freqsGnomadGenomes []string
	freqsGnomadMtdna   []string
	freqsHelixMtdb     []string
)

var importFreqsCmd = &cobra.Command{
	Use:   "freqs",
	Short: "Import merged allele-frequency counts",
	Long: `Merge allele-frequency VCFs into composite count records.  Inputs
must be coordinate-sorted; the merge emits in (chromosome rank, position,
ref, alt) order, with X and Y after the autosomes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openImportDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var inputs []freqs.Input
		for _, p := range freqsGnomadExomes {
			inputs = append(inputs, freqs.Input{Path: p, Slot: 0})
		}
		for _, p := range freqsGnomadMtdna {
			inputs = append(inputs, freqs.Input{Path: p, Slot: 0})
		}
		for _, p := range freqsGnomadGenomes {
			inputs = append(inputs, freqs.Input{Path: p, Slot: 1})
		}
		for _, p := range freqsHelixMtdb {
			inputs = append(inputs, freqs.Input{Path: p, Slot: 1})
		}
		return freqs.Import(db, freqs.ImportConfig{
			GenomeRelease: importGenomeRelease,
			SourceVersion: importSourceVersion,
			Progress:      !importNoProgress,
		}, inputs)
	},
}

var clinvarSVCFName string

var importClinvarSVCmd = &cobra.Command{
	Use:   "clinvar-sv [files...]",
	Short: "Import extracted ClinVar structural variants",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openImportDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return clinvarsv.Import(db, clinvarsv.ImportConfig{
			CF:            clinvarSVCFName,
			GenomeRelease: importGenomeRelease,
			SourceVersion: importSourceVersion,
			Progress:      !importNoProgress,
		}, args)
	},
}

var (
	gnomadSVCFName     string
	gnomadSVSourceKind string
)

var importGnomadSVCmd = &cobra.Command{
	Use:   "gnomad-sv [files...]",
	Short: "Import gnomAD structural-variant calls",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openImportDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return gnomadsv.Import(db, gnomadsv.ImportConfig{
			CF:            gnomadSVCFName,
			GenomeRelease: importGenomeRelease,
			SourceVersion: importSourceVersion,
			SourceKind:    gnomadSVSourceKind,
			Progress:      !importNoProgress,
		}, args)
	},
}

var genesCFName string

var importGenesCmd = &cobra.Command{
	Use:   "genes [files...]",
	Short: "Import per-gene naming records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openImportDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return genes.Import(db, genes.ImportConfig{
			CF:            genesCFName,
			GenomeRelease: importGenomeRelease,
			SourceVersion: importSourceVersion,
			Progress:      !importNoProgress,
		}, args)
	},
}

func init() {
	importCmd.PersistentFlags().StringVar(&importWALDir, "path-wal-dir", "", "Separate directory for write-ahead logs")

	importTsvCmd.Flags().StringVar(&tsvCFName, "cf-name", "tsv", "Name of the column family to import into")
	importTsvCmd.Flags().StringVar(&tsvDelimiter, "delimiter", "\t", "Field delimiter")
	importTsvCmd.Flags().StringSliceVar(&tsvNullValues, "null-values", nil, "Tokens treated as null")
	importTsvCmd.Flags().StringVar(&tsvHeaderPrefix, "header-prefix", "#", "Header prefix to strip")
	importTsvCmd.Flags().IntVar(&tsvSkipRows, "skip-rows", 0, "Number of leading rows to skip")
	importTsvCmd.Flags().IntVar(&tsvNumRows, "num-rows", 10000, "Rows sampled for schema inference")
	importTsvCmd.Flags().BoolVar(&tsvFlexible, "flexible", false, "Allow differing column counts between rows")
	importTsvCmd.Flags().StringVar(&tsvColChrom, "col-chromosome", "CHROM", "Chromosome column name")
	importTsvCmd.Flags().StringVar(&tsvColStart, "col-start", "POS", "Position column name")
	importTsvCmd.Flags().StringVar(&tsvColRef, "col-reference", "REF", "Reference allele column name")
	importTsvCmd.Flags().StringVar(&tsvColAlt, "col-alternative", "ALT", "Alternative allele column name")

	importFreqsCmd.Flags().StringArrayVar(&freqsGnomadExomes, "path-gnomad-exomes", nil, "gnomAD exomes VCF (slot 0)")
	importFreqsCmd.Flags().StringArrayVar(&freqsGnomadGenomes, "path-gnomad-genomes", nil, "gnomAD genomes VCF (slot 1)")
	importFreqsCmd.Flags().StringArrayVar(&freqsGnomadMtdna, "path-gnomad-mtdna", nil, "gnomAD mtDNA VCF (slot 0)")
	importFreqsCmd.Flags().StringArrayVar(&freqsHelixMtdb, "path-helixmtdb", nil, "HelixMtDb VCF (slot 1)")

	importClinvarSVCmd.Flags().StringVar(&clinvarSVCFName, "cf-name", clinvarsv.DefaultCF, "Name of the column family to import into")
	importGnomadSVCmd.Flags().StringVar(&gnomadSVCFName, "cf-name", gnomadsv.DefaultCF, "Name of the column family to import into")
	importGnomadSVCmd.Flags().StringVar(&gnomadSVSourceKind, "source-kind", "", "Kind tag, e.g. exomes or genomes")
	importGenesCmd.Flags().StringVar(&genesCFName, "cf-name", genes.DefaultCF, "Name of the column family to import into")
}

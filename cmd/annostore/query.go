package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openbio/annostore/internal/intervals"
	"github.com/openbio/annostore/internal/query"
	"github.com/openbio/annostore/internal/spdi"
	"github.com/openbio/annostore/internal/store"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query records from a database",
	Long: `Query one column family of a database by accession, variant,
position or range, or dump it entirely.  Records are written as one JSON
object per line.`,
	Example: `  annostore query --path-rocksdb ./db --cf-name dbsnp --variant GRCh37:1:100:A:T
  annostore query --path-rocksdb ./db --cf-name clinvar_sv --accession RCV000051426
  annostore query --path-rocksdb ./db --cf-name gnomad_sv --range 1:120000:130000
  annostore query --path-rocksdb ./db --cf-name dbsnp --all --out-file dump.jsonl`,
	RunE: runQuery,
}

var (
	queryPathRocksdb string
	queryCFName      string
	queryOutFile     string
	queryOutFormat   string
	queryAccession   string
	queryAll         bool
	queryRange       string
	queryVariant     string
	queryPosition    string
)

func init() {
	queryCmd.Flags().StringVar(&queryPathRocksdb, "path-rocksdb", "", "Path to database directory")
	queryCmd.Flags().StringVar(&queryCFName, "cf-name", "", "Name of the column family to query")
	queryCmd.Flags().StringVar(&queryOutFile, "out-file", "-", "Output file (\"-\" for stdout)")
	queryCmd.Flags().StringVar(&queryOutFormat, "out-format", "jsonl", "Output format (jsonl)")
	queryCmd.MarkFlagRequired("path-rocksdb")
	queryCmd.MarkFlagRequired("cf-name")

	queryCmd.Flags().StringVar(&queryAccession, "accession", "", "Query by accession")
	queryCmd.Flags().BoolVar(&queryAll, "all", false, "Dump all records")
	queryCmd.Flags().StringVar(&queryRange, "range", "", "Query by range ([ASM:]CHR:START:END)")
	queryCmd.Flags().StringVar(&queryVariant, "variant", "", "Query by variant ([ASM:]CHR:POS:REF:ALT)")
	queryCmd.Flags().StringVar(&queryPosition, "position", "", "Query by position ([ASM:]CHR:POS)")
	queryCmd.MarkFlagsOneRequired("accession", "all", "range", "variant", "position")
	queryCmd.MarkFlagsMutuallyExclusive("accession", "all", "range", "variant", "position")
}

// openOut opens the machine-readable output sink.
func openOut(path string) (io.WriteCloser, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	return os.Create(path)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryOutFormat != "jsonl" {
		return fmt.Errorf("unsupported output format %q", queryOutFormat)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("opening database", "path", queryPathRocksdb)
	before := time.Now()
	db, err := store.Open(queryPathRocksdb, store.Options{ReadOnly: true})
	if err != nil {
		return err
	}
	defer db.Close()
	engine, err := query.NewEngine(db, queryCFName)
	if err != nil {
		return err
	}
	slog.Info("database open", "genome_release", engine.Meta.GenomeRelease, "took", time.Since(before).Round(time.Millisecond))

	out, err := openOut(queryOutFile)
	if err != nil {
		return err
	}
	if queryOutFile != "-" {
		defer out.Close()
	}

	slog.Info("running query")
	before = time.Now()
	switch {
	case queryAccession != "":
		err = engine.Accession(out, queryAccession)
	case queryVariant != "":
		var v spdi.Var
		if v, err = spdi.ParseVar(queryVariant); err == nil {
			err = engine.Variant(out, v)
		}
	case queryPosition != "":
		var p spdi.Pos
		if p, err = spdi.ParsePos(queryPosition); err == nil {
			err = engine.Position(out, p)
		}
	case queryRange != "":
		var r spdi.Range
		if r, err = spdi.ParseRange(queryRange); err == nil {
			slog.Info("building interval trees")
			err = engine.Range(ctx, out, r, intervals.NewCache())
		}
	case queryAll:
		err = engine.ScanAll(ctx, out)
	}
	if err != nil {
		return err
	}
	slog.Info("query done", "took", time.Since(before).Round(time.Millisecond))
	return nil
}

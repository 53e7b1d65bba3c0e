package main

import (
	"bytes"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/openbio/annostore/internal/keys"
	"github.com/openbio/annostore/internal/spdi"
	"github.com/openbio/annostore/internal/store"
)

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy records between databases",
	Long: `Copy column families from one database to another, optionally
restricted to a genomic range for variant-keyed families.  The meta
column family is always copied; the output is compacted afterwards.`,
	Example: `  annostore copy --path-in ./db --path-out ./db-slice --range 1:1000000:2000000`,
	RunE:    runCopy,
}

var (
	copyPathIn  string
	copyPathOut string
	copyCFNames []string
	copyRange   string
)

func init() {
	copyCmd.Flags().StringVar(&copyPathIn, "path-in", "", "Source database directory")
	copyCmd.Flags().StringVar(&copyPathOut, "path-out", "", "Target database directory")
	copyCmd.Flags().StringSliceVar(&copyCFNames, "cf-name", nil, "Column families to copy (default: all)")
	copyCmd.Flags().StringVar(&copyRange, "range", "", "Restrict variant-keyed families to a range ([ASM:]CHR:START:END)")
	copyCmd.MarkFlagRequired("path-in")
	copyCmd.MarkFlagRequired("path-out")
}

func runCopy(cmd *cobra.Command, args []string) error {
	in, err := store.Open(copyPathIn, store.Options{ReadOnly: true})
	if err != nil {
		return err
	}
	defer in.Close()
	meta, err := in.ReadMeta()
	if err != nil {
		return err
	}

	out, err := store.Open(copyPathOut, store.Options{})
	if err != nil {
		return err
	}
	defer out.Close()

	cfNames := copyCFNames
	if len(cfNames) == 0 {
		if cfNames, err = in.ColumnFamilies(); err != nil {
			return err
		}
	}

	// Resolve the optional range restriction to a key span.  Accession-keyed
	// sources cannot be sliced by coordinates; their families copy whole.
	coordKeyed := true
	switch meta.SourceKind {
	case "clinvar-sv", "gnomad-sv", "exomes", "genomes", "genes":
		coordKeyed = false
	}
	var lower, upper []byte
	if copyRange != "" && coordKeyed {
		r, err := spdi.ParseRange(copyRange)
		if err != nil {
			return err
		}
		chrom, err := spdi.ExtractChrom(r.Sequence, meta.GenomeRelease)
		if err != nil {
			return err
		}
		if lower, err = (keys.Pos{Chrom: chrom, Pos: r.Start}).Encode(); err != nil {
			return err
		}
		// One past the end position so variants at the end stay included.
		if upper, err = (keys.Pos{Chrom: chrom, Pos: r.End + 1}).Encode(); err != nil {
			return err
		}
	}

	for _, cf := range cfNames {
		slog.Info("copying column family", "cf", cf)
		if err := out.CreateColumnFamily(cf); err != nil {
			return err
		}
		it, err := in.NewIter(cf)
		if err != nil {
			return err
		}
		n := 0
		for ok := it.SeekToFirst(); ok && it.Valid(); it.Next() {
			if lower != nil {
				if bytes.Compare(it.Key(), lower) < 0 {
					continue
				}
				if bytes.Compare(it.Key(), upper) >= 0 {
					break
				}
			}
			if err := out.Put(cf, it.Key(), it.Value()); err != nil {
				it.Close()
				return err
			}
			n++
		}
		if err := it.Close(); err != nil {
			return err
		}
		slog.Info("column family copied", "cf", cf, "records", n)
	}

	// Meta entries travel with every copy.
	mit, err := in.NewIter(store.MetaCF)
	if err != nil {
		return err
	}
	for ok := mit.SeekToFirst(); ok && mit.Valid(); mit.Next() {
		if string(mit.Key()) == "column-families" {
			continue
		}
		if err := out.Put(store.MetaCF, mit.Key(), mit.Value()); err != nil {
			mit.Close()
			return err
		}
	}
	if err := mit.Close(); err != nil {
		return err
	}

	return out.CompactAll()
}

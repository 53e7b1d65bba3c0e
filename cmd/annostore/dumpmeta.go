package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openbio/annostore/internal/store"
)

var dumpMetaCmd = &cobra.Command{
	Use:   "dump-meta",
	Short: "Dump the meta column family",
	Long:  `List all metadata entries of a database as JSON lines.`,
	RunE:  runDumpMeta,
}

var (
	dumpMetaPathRocksdb string
	dumpMetaOutFile     string
	dumpMetaOutFormat   string
)

func init() {
	dumpMetaCmd.Flags().StringVar(&dumpMetaPathRocksdb, "path-rocksdb", "", "Path to database directory")
	dumpMetaCmd.Flags().StringVar(&dumpMetaOutFile, "out-file", "-", "Output file (\"-\" for stdout)")
	dumpMetaCmd.Flags().StringVar(&dumpMetaOutFormat, "out-format", "jsonl", "Output format (jsonl)")
	dumpMetaCmd.MarkFlagRequired("path-rocksdb")
}

func runDumpMeta(cmd *cobra.Command, args []string) error {
	if dumpMetaOutFormat != "jsonl" {
		return fmt.Errorf("unsupported output format %q", dumpMetaOutFormat)
	}
	db, err := store.Open(dumpMetaPathRocksdb, store.Options{ReadOnly: true})
	if err != nil {
		return err
	}
	defer db.Close()

	out, err := openOut(dumpMetaOutFile)
	if err != nil {
		return err
	}
	if dumpMetaOutFile != "-" {
		defer out.Close()
	}

	it, err := db.NewIter(store.MetaCF)
	if err != nil {
		return err
	}
	defer it.Close()

	for ok := it.SeekToFirst(); ok && it.Valid(); it.Next() {
		line, err := json.Marshal(map[string]string{
			"key":   string(it.Key()),
			"value": string(it.Value()),
		})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, string(line)); err != nil {
			return err
		}
	}
	return nil
}

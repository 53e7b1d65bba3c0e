// Package codec implements the fixed-width binary records for allele
// frequency counts.
//
// All integers are little-endian uint32 at fixed byte offsets; every record
// type exposes its length as a constant so callers can validate stored
// values before decoding.
package codec

import (
	"encoding/binary"

	"github.com/openbio/annostore/internal/errs"
)

// Record lengths in bytes.
const (
	MtCountsLen = 12
	XyCountsLen = 16
	MtRecordLen = 2 * MtCountsLen
	XyRecordLen = 2 * XyCountsLen
	// Autosomal counts share the MT layout (no hemizygous slot).
	AutoCountsLen = MtCountsLen
	AutoRecordLen = 2 * AutoCountsLen
)

// MtCounts stores AN, AC_hom, AC_het for a mitochondrial or autosomal
// variant.
type MtCounts struct {
	// Total number of alleles.
	AN uint32 `json:"an"`
	// Number of homoplasmic (or hom. alt.) alleles.
	AcHom uint32 `json:"ac_hom"`
	// Number of heteroplasmic (or het. alt.) alleles.
	AcHet uint32 `json:"ac_het"`
}

// Put writes the record into buf at offset 0.
func (c *MtCounts) Put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], c.AN)
	binary.LittleEndian.PutUint32(buf[4:8], c.AcHom)
	binary.LittleEndian.PutUint32(buf[8:12], c.AcHet)
}

// Marshal returns the serialized record.
func (c *MtCounts) Marshal() []byte {
	buf := make([]byte, MtCountsLen)
	c.Put(buf)
	return buf
}

// Unmarshal reads the record from buf.
func (c *MtCounts) Unmarshal(buf []byte) error {
	if len(buf) < MtCountsLen {
		return errs.Ef("codec.MtCounts", errs.KindTruncated, "need %d bytes, got %d", MtCountsLen, len(buf))
	}
	c.AN = binary.LittleEndian.Uint32(buf[0:4])
	c.AcHom = binary.LittleEndian.Uint32(buf[4:8])
	c.AcHet = binary.LittleEndian.Uint32(buf[8:12])
	return nil
}

// XyCounts stores AN, AC_hom, AC_het, AC_hemi for a gonosomal variant.
type XyCounts struct {
	// Total number of alleles.
	AN uint32 `json:"an"`
	// Number of hom. alt. alleles.
	AcHom uint32 `json:"ac_hom"`
	// Number of het. alt. alleles.
	AcHet uint32 `json:"ac_het"`
	// Number of hemi. alt. alleles.
	AcHemi uint32 `json:"ac_hemi"`
}

// Put writes the record into buf at offset 0.
func (c *XyCounts) Put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], c.AN)
	binary.LittleEndian.PutUint32(buf[4:8], c.AcHom)
	binary.LittleEndian.PutUint32(buf[8:12], c.AcHet)
	binary.LittleEndian.PutUint32(buf[12:16], c.AcHemi)
}

// Marshal returns the serialized record.
func (c *XyCounts) Marshal() []byte {
	buf := make([]byte, XyCountsLen)
	c.Put(buf)
	return buf
}

// Unmarshal reads the record from buf.
func (c *XyCounts) Unmarshal(buf []byte) error {
	if len(buf) < XyCountsLen {
		return errs.Ef("codec.XyCounts", errs.KindTruncated, "need %d bytes, got %d", XyCountsLen, len(buf))
	}
	c.AN = binary.LittleEndian.Uint32(buf[0:4])
	c.AcHom = binary.LittleEndian.Uint32(buf[4:8])
	c.AcHet = binary.LittleEndian.Uint32(buf[8:12])
	c.AcHemi = binary.LittleEndian.Uint32(buf[12:16])
	return nil
}

// MtRecord is the composite record of the "mitochondrial" column family:
// gnomAD-mtDNA counts followed by HelixMtDb counts.
type MtRecord struct {
	GnomadMtdna MtCounts `json:"gnomad_mtdna"`
	Helixmtdb   MtCounts `json:"helixmtdb"`
}

// Marshal returns the serialized record.
func (r *MtRecord) Marshal() []byte {
	buf := make([]byte, MtRecordLen)
	r.GnomadMtdna.Put(buf[0:MtCountsLen])
	r.Helixmtdb.Put(buf[MtCountsLen:MtRecordLen])
	return buf
}

// Unmarshal reads the record from buf.
func (r *MtRecord) Unmarshal(buf []byte) error {
	if len(buf) < MtRecordLen {
		return errs.Ef("codec.MtRecord", errs.KindTruncated, "need %d bytes, got %d", MtRecordLen, len(buf))
	}
	if err := r.GnomadMtdna.Unmarshal(buf[0:MtCountsLen]); err != nil {
		return err
	}
	return r.Helixmtdb.Unmarshal(buf[MtCountsLen:MtRecordLen])
}

// XyRecord is the composite record of the "gonosomal" column family:
// gnomAD-exomes counts followed by gnomAD-genomes counts.
type XyRecord struct {
	GnomadExomes  XyCounts `json:"gnomad_exomes"`
	GnomadGenomes XyCounts `json:"gnomad_genomes"`
}

// Marshal returns the serialized record.
func (r *XyRecord) Marshal() []byte {
	buf := make([]byte, XyRecordLen)
	r.GnomadExomes.Put(buf[0:XyCountsLen])
	r.GnomadGenomes.Put(buf[XyCountsLen:XyRecordLen])
	return buf
}

// Unmarshal reads the record from buf.
func (r *XyRecord) Unmarshal(buf []byte) error {
	if len(buf) < XyRecordLen {
		return errs.Ef("codec.XyRecord", errs.KindTruncated, "need %d bytes, got %d", XyRecordLen, len(buf))
	}
	if err := r.GnomadExomes.Unmarshal(buf[0:XyCountsLen]); err != nil {
		return err
	}
	return r.GnomadGenomes.Unmarshal(buf[XyCountsLen:XyRecordLen])
}

// AutoRecord is the composite record of the "autosomal" column family:
// gnomAD-exomes counts followed by gnomAD-genomes counts.
type AutoRecord struct {
	GnomadExomes  MtCounts `json:"gnomad_exomes"`
	GnomadGenomes MtCounts `json:"gnomad_genomes"`
}

// Marshal returns the serialized record.
func (r *AutoRecord) Marshal() []byte {
	buf := make([]byte, AutoRecordLen)
	r.GnomadExomes.Put(buf[0:AutoCountsLen])
	r.GnomadGenomes.Put(buf[AutoCountsLen:AutoRecordLen])
	return buf
}

// Unmarshal reads the record from buf.
func (r *AutoRecord) Unmarshal(buf []byte) error {
	if len(buf) < AutoRecordLen {
		return errs.Ef("codec.AutoRecord", errs.KindTruncated, "need %d bytes, got %d", AutoRecordLen, len(buf))
	}
	if err := r.GnomadExomes.Unmarshal(buf[0:AutoCountsLen]); err != nil {
		return err
	}
	return r.GnomadGenomes.Unmarshal(buf[AutoCountsLen:AutoRecordLen])
}

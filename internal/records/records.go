// Package records defines the rich annotation record types and their wire
// codec.
//
// Records are serialized as tag-delimited, length-prefixed fields
// (protobuf wire format via protowire).  Encoding is deterministic for
// identical logical content: fields are written in ascending tag order and
// optional fields are omitted when unset.  Decoders skip unknown tags so
// that optional fields appended later remain readable by older builds.
package records

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Variation types of structural variants.
const (
	VariationDeletion       = "DEL"
	VariationDuplication    = "DUP"
	VariationInsertion      = "INS"
	VariationInversion      = "INV"
	VariationCNV            = "CNV"
	VariationComplex        = "COMPLEX"
	VariationMicrosatellite = "MICROSATELLITE"
)

// ClinvarSV is one extracted ClinVar structural variant.
type ClinvarSV struct {
	// VCV accession, e.g. "VCV000057688".
	VCV string `json:"vcv"`
	// RCV accessions pointing at this VCV.
	RCVs []string `json:"rcvs,omitempty"`
	// Chromosome name.
	Chromosome string `json:"chromosome"`
	// 1-based start position.
	Start int32 `json:"start"`
	// 1-based stop position, inclusive.
	Stop int32 `json:"stop"`
	// Inner/outer confidence interval bounds, if the precise location is
	// not known.
	InnerStart *int32 `json:"inner_start,omitempty"`
	InnerStop  *int32 `json:"inner_stop,omitempty"`
	OuterStart *int32 `json:"outer_start,omitempty"`
	OuterStop  *int32 `json:"outer_stop,omitempty"`
	// Variation type, one of the Variation* constants.
	VariationType string `json:"variation_type"`
	// Germline classification description.
	Classification string `json:"classification,omitempty"`
	// Variant title, e.g. "NM_000059.4(BRCA2):c.517-2A>G".
	Title string `json:"title,omitempty"`
}

// Field numbers of ClinvarSV; appended fields must use new numbers.
const (
	csvFieldVCV = iota + 1
	csvFieldRCV
	csvFieldChromosome
	csvFieldStart
	csvFieldStop
	csvFieldInnerStart
	csvFieldInnerStop
	csvFieldOuterStart
	csvFieldOuterStop
	csvFieldVariationType
	csvFieldClassification
	csvFieldTitle
)

// Marshal serializes the record.
func (r *ClinvarSV) Marshal() []byte {
	var b []byte
	b = appendString(b, csvFieldVCV, r.VCV)
	b = appendStrings(b, csvFieldRCV, r.RCVs)
	b = appendString(b, csvFieldChromosome, r.Chromosome)
	b = appendInt(b, csvFieldStart, int64(r.Start))
	b = appendInt(b, csvFieldStop, int64(r.Stop))
	b = appendOptInt32(b, csvFieldInnerStart, r.InnerStart)
	b = appendOptInt32(b, csvFieldInnerStop, r.InnerStop)
	b = appendOptInt32(b, csvFieldOuterStart, r.OuterStart)
	b = appendOptInt32(b, csvFieldOuterStop, r.OuterStop)
	b = appendString(b, csvFieldVariationType, r.VariationType)
	b = appendString(b, csvFieldClassification, r.Classification)
	b = appendString(b, csvFieldTitle, r.Title)
	return b
}

// Unmarshal deserializes the record, skipping unknown fields.
func (r *ClinvarSV) Unmarshal(buf []byte) error {
	return fieldIter("records.ClinvarSV", buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case csvFieldVCV, csvFieldRCV, csvFieldChromosome, csvFieldVariationType, csvFieldClassification, csvFieldTitle:
			s, n, err := consumeString(b)
			if err != nil {
				return 0, false, err
			}
			switch num {
			case csvFieldVCV:
				r.VCV = s
			case csvFieldRCV:
				r.RCVs = append(r.RCVs, s)
			case csvFieldChromosome:
				r.Chromosome = s
			case csvFieldVariationType:
				r.VariationType = s
			case csvFieldClassification:
				r.Classification = s
			case csvFieldTitle:
				r.Title = s
			}
			return n, true, nil
		case csvFieldStart, csvFieldStop, csvFieldInnerStart, csvFieldInnerStop, csvFieldOuterStart, csvFieldOuterStop:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, false, err
			}
			i := int32(v)
			switch num {
			case csvFieldStart:
				r.Start = i
			case csvFieldStop:
				r.Stop = i
			case csvFieldInnerStart:
				r.InnerStart = &i
			case csvFieldInnerStop:
				r.InnerStop = &i
			case csvFieldOuterStart:
				r.OuterStart = &i
			case csvFieldOuterStop:
				r.OuterStop = &i
			}
			return n, true, nil
		}
		return 0, false, nil
	})
}

// Location resolves the effective interval of the record, falling back to
// the inner and then outer bounds.  ok is false when no bound pair is set.
func (r *ClinvarSV) Location() (start, stop int32, ok bool) {
	switch {
	case r.Start != 0 && r.Stop != 0:
		return r.Start, r.Stop, true
	case r.InnerStart != nil && r.InnerStop != nil:
		return *r.InnerStart, *r.InnerStop, true
	case r.OuterStart != nil && r.OuterStop != nil:
		return *r.OuterStart, *r.OuterStop, true
	}
	return 0, 0, false
}

// GnomadSV is one gnomAD structural variant call.
type GnomadSV struct {
	// Call identifier, e.g. "gnomAD-SV_v2.1_DUP_1_1".
	ID string `json:"id"`
	// Chromosome name.
	Chromosome string `json:"chromosome"`
	// 1-based start position.
	Start int32 `json:"start"`
	// 1-based stop position, inclusive.
	Stop int32 `json:"stop"`
	// SV type, one of the Variation* constants.
	SvType string `json:"sv_type"`
	// Filter status, e.g. "PASS".
	Filter string `json:"filter,omitempty"`
	// Allele counts over all populations.
	AN uint32 `json:"an,omitempty"`
	AC uint32 `json:"ac,omitempty"`
	// Allele frequency over all populations.
	AF float64 `json:"af,omitempty"`
}

const (
	gsvFieldID = iota + 1
	gsvFieldChromosome
	gsvFieldStart
	gsvFieldStop
	gsvFieldSvType
	gsvFieldFilter
	gsvFieldAN
	gsvFieldAC
	gsvFieldAF
)

// Marshal serializes the record.
func (r *GnomadSV) Marshal() []byte {
	var b []byte
	b = appendString(b, gsvFieldID, r.ID)
	b = appendString(b, gsvFieldChromosome, r.Chromosome)
	b = appendInt(b, gsvFieldStart, int64(r.Start))
	b = appendInt(b, gsvFieldStop, int64(r.Stop))
	b = appendString(b, gsvFieldSvType, r.SvType)
	b = appendString(b, gsvFieldFilter, r.Filter)
	b = appendInt(b, gsvFieldAN, int64(r.AN))
	b = appendInt(b, gsvFieldAC, int64(r.AC))
	b = appendFloat(b, gsvFieldAF, r.AF)
	return b
}

// Unmarshal deserializes the record, skipping unknown fields.
func (r *GnomadSV) Unmarshal(buf []byte) error {
	return fieldIter("records.GnomadSV", buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case gsvFieldID, gsvFieldChromosome, gsvFieldSvType, gsvFieldFilter:
			s, n, err := consumeString(b)
			if err != nil {
				return 0, false, err
			}
			switch num {
			case gsvFieldID:
				r.ID = s
			case gsvFieldChromosome:
				r.Chromosome = s
			case gsvFieldSvType:
				r.SvType = s
			case gsvFieldFilter:
				r.Filter = s
			}
			return n, true, nil
		case gsvFieldStart, gsvFieldStop, gsvFieldAN, gsvFieldAC:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, false, err
			}
			switch num {
			case gsvFieldStart:
				r.Start = int32(v)
			case gsvFieldStop:
				r.Stop = int32(v)
			case gsvFieldAN:
				r.AN = uint32(v)
			case gsvFieldAC:
				r.AC = uint32(v)
			}
			return n, true, nil
		case gsvFieldAF:
			v, n, err := consumeFloat(b)
			if err != nil {
				return 0, false, err
			}
			r.AF = v
			return n, true, nil
		}
		return 0, false, nil
	})
}

// GeneNames is the naming record of one gene.
type GeneNames struct {
	// HGNC ID, e.g. "HGNC:1100".
	HgncID string `json:"hgnc_id"`
	// Official gene symbol, e.g. "BRCA1".
	Symbol string `json:"symbol"`
	// Official gene name.
	Name string `json:"name"`
	// Alias symbols.
	AliasSymbols []string `json:"alias_symbol,omitempty"`
	// Alias names.
	AliasNames []string `json:"alias_name,omitempty"`
	// ENSEMBL gene ID, e.g. "ENSG00000012048".
	EnsemblGeneID string `json:"ensembl_gene_id,omitempty"`
	// NCBI gene ID.
	NcbiGeneID string `json:"ncbi_gene_id,omitempty"`
}

const (
	gnFieldHgncID = iota + 1
	gnFieldSymbol
	gnFieldName
	gnFieldAliasSymbol
	gnFieldAliasName
	gnFieldEnsemblGeneID
	gnFieldNcbiGeneID
)

// Marshal serializes the record.
func (r *GeneNames) Marshal() []byte {
	var b []byte
	b = appendString(b, gnFieldHgncID, r.HgncID)
	b = appendString(b, gnFieldSymbol, r.Symbol)
	b = appendString(b, gnFieldName, r.Name)
	b = appendStrings(b, gnFieldAliasSymbol, r.AliasSymbols)
	b = appendStrings(b, gnFieldAliasName, r.AliasNames)
	b = appendString(b, gnFieldEnsemblGeneID, r.EnsemblGeneID)
	b = appendString(b, gnFieldNcbiGeneID, r.NcbiGeneID)
	return b
}

// Unmarshal deserializes the record, skipping unknown fields.
func (r *GeneNames) Unmarshal(buf []byte) error {
	return fieldIter("records.GeneNames", buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case gnFieldHgncID, gnFieldSymbol, gnFieldName, gnFieldAliasSymbol, gnFieldAliasName, gnFieldEnsemblGeneID, gnFieldNcbiGeneID:
			s, n, err := consumeString(b)
			if err != nil {
				return 0, false, err
			}
			switch num {
			case gnFieldHgncID:
				r.HgncID = s
			case gnFieldSymbol:
				r.Symbol = s
			case gnFieldName:
				r.Name = s
			case gnFieldAliasSymbol:
				r.AliasSymbols = append(r.AliasSymbols, s)
			case gnFieldAliasName:
				r.AliasNames = append(r.AliasNames, s)
			case gnFieldEnsemblGeneID:
				r.EnsemblGeneID = s
			case gnFieldNcbiGeneID:
				r.NcbiGeneID = s
			}
			return n, true, nil
		}
		return 0, false, nil
	})
}

// Dbsnp is one dbSNP variant annotation.
type Dbsnp struct {
	// Chromosome name.
	Chromosome string `json:"chromosome"`
	// 1-based position.
	Pos int32 `json:"pos"`
	// Reference allele.
	Reference string `json:"reference"`
	// Alternative allele.
	Alternative string `json:"alternative"`
	// The rs number, without the "rs" prefix.
	RsID int64 `json:"rs_id"`
}

const (
	dbFieldChromosome = iota + 1
	dbFieldPos
	dbFieldReference
	dbFieldAlternative
	dbFieldRsID
)

// Marshal serializes the record.
func (r *Dbsnp) Marshal() []byte {
	var b []byte
	b = appendString(b, dbFieldChromosome, r.Chromosome)
	b = appendInt(b, dbFieldPos, int64(r.Pos))
	b = appendString(b, dbFieldReference, r.Reference)
	b = appendString(b, dbFieldAlternative, r.Alternative)
	b = appendInt(b, dbFieldRsID, r.RsID)
	return b
}

// Unmarshal deserializes the record, skipping unknown fields.
func (r *Dbsnp) Unmarshal(buf []byte) error {
	return fieldIter("records.Dbsnp", buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool, error) {
		switch num {
		case dbFieldChromosome, dbFieldReference, dbFieldAlternative:
			s, n, err := consumeString(b)
			if err != nil {
				return 0, false, err
			}
			switch num {
			case dbFieldChromosome:
				r.Chromosome = s
			case dbFieldReference:
				r.Reference = s
			case dbFieldAlternative:
				r.Alternative = s
			}
			return n, true, nil
		case dbFieldPos, dbFieldRsID:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, false, err
			}
			if num == dbFieldPos {
				r.Pos = int32(v)
			} else {
				r.RsID = int64(v)
			}
			return n, true, nil
		}
		return 0, false, nil
	})
}

package server

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/openbio/annostore/internal/clinvarsv"
	"github.com/openbio/annostore/internal/errs"
	"github.com/openbio/annostore/internal/genes"
	"github.com/openbio/annostore/internal/intervals"
	"github.com/openbio/annostore/internal/keys"
	"github.com/openbio/annostore/internal/records"
	"github.com/openbio/annostore/internal/spdi"
)

// defaultPageSize is the page size used when the request does not set one.
const defaultPageSize = 100

// defaultMinOverlap is the reciprocal-overlap threshold used when neither
// a threshold nor a variation-type filter is given.
const defaultMinOverlap = 0.5

type handlers struct {
	data *Data
}

// release resolves the genome_release query parameter, case-insensitively.
func (h *handlers) release(r *http.Request) (*ReleaseData, string, error) {
	name := strings.ToLower(r.URL.Query().Get("genome_release"))
	if name == "" {
		return nil, "", errs.Ef("server.release", errs.KindInvalidLocus, "missing genome_release parameter")
	}
	rd, ok := h.data.Releases[name]
	if !ok {
		return nil, "", errs.Ef("server.release", errs.KindAssemblyMismatch, "no databases for genome release %q", name)
	}
	return rd, name, nil
}

// annosVariant handles GET /annos/variant: one point lookup fanned out
// over every configured annotation source of the release.
func (h *handlers) annosVariant(w http.ResponseWriter, r *http.Request) {
	rd, release, err := h.release(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	pos, err := strconv.ParseInt(q.Get("pos"), 10, 32)
	if err != nil {
		writeError(w, errs.WrapKind("server.annosVariant", errs.KindInvalidPosition, err))
		return
	}
	variant := spdi.Var{
		Sequence:  q.Get("chromosome"),
		Position:  int32(pos),
		Deletion:  q.Get("reference"),
		Insertion: q.Get("alternative"),
	}
	if variant.Sequence == "" || variant.Deletion == "" || variant.Insertion == "" {
		writeError(w, errs.Ef("server.annosVariant", errs.KindInvalidLocus,
			"chromosome, reference and alternative are required"))
		return
	}

	result := make(map[string]interface{}, len(rd.Annos))
	for source, engine := range rd.Annos {
		decoded, err := engine.LookupVariant(variant)
		if err != nil {
			if errs.IsKind(err, errs.KindNotFound) {
				result[source] = nil
				continue
			}
			writeError(w, err)
			return
		}
		result[source] = decoded
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"server_version": h.data.Version,
		"query": map[string]interface{}{
			"genome_release": release,
			"chromosome":     variant.Sequence,
			"pos":            variant.Position,
			"reference":      variant.Deletion,
			"alternative":    variant.Insertion,
		},
		"result": result,
	})
}

// svResponseRecord is one SV range hit with its reciprocal overlap.
type svResponseRecord struct {
	Record  *records.ClinvarSV `json:"record"`
	Overlap float64            `json:"overlap"`
}

// clinvarSVQuery handles GET /clinvar-sv/query with variation-type and
// reciprocal-overlap filtering plus pagination.
func (h *handlers) clinvarSVQuery(w http.ResponseWriter, r *http.Request) {
	rd, _, err := h.release(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if rd.ClinvarSV == nil {
		writeError(w, errs.Ef("server.clinvarSVQuery", errs.KindMissingColumnFamily,
			"no clinvar-sv database for this release"))
		return
	}
	q := r.URL.Query()
	chromosome := keys.Canonicalize(q.Get("chromosome"))
	start, err := strconv.ParseInt(q.Get("start"), 10, 32)
	if err != nil {
		writeError(w, errs.WrapKind("server.clinvarSVQuery", errs.KindInvalidPosition, err))
		return
	}
	stop, err := strconv.ParseInt(q.Get("stop"), 10, 32)
	if err != nil {
		writeError(w, errs.WrapKind("server.clinvarSVQuery", errs.KindInvalidPosition, err))
		return
	}

	var variationTypes []string
	if raw := q.Get("variation_types"); raw != "" {
		for _, vt := range strings.Split(raw, ",") {
			variationTypes = append(variationTypes, strings.ToUpper(strings.TrimSpace(vt)))
		}
	}
	minOverlap := defaultMinOverlap
	if raw := q.Get("min_overlap"); raw != "" {
		minOverlap, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, errs.WrapKind("server.clinvarSVQuery", errs.KindInvalidLocus, err))
			return
		}
	}
	pageNo, _ := strconv.Atoi(q.Get("page_no"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	sv := rd.ClinvarSV
	forest, err := h.data.forests.GetOrBuild(sv.DB.Path()+"/"+sv.CF, func() (*intervals.Forest, error) {
		return clinvarsv.BuildForest(sv.DB, sv.CF)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	var hits []svResponseRecord
	for _, key := range forest.Query(chromosome, int32(start), int32(stop)) {
		raw, err := sv.DB.Get(sv.CF, key)
		if err != nil {
			writeError(w, err)
			return
		}
		var record records.ClinvarSV
		if err := record.Unmarshal(raw); err != nil {
			writeError(w, err)
			return
		}
		rStart, rStop, ok := record.Location()
		if !ok {
			continue
		}
		overlap := reciprocalOverlap(start-1, stop, int64(rStart)-1, int64(rStop))

		if len(variationTypes) > 0 {
			// An active variation-type whitelist replaces the overlap check.
			listed := false
			for _, vt := range variationTypes {
				if vt == record.VariationType {
					listed = true
					break
				}
			}
			if !listed {
				continue
			}
		} else if overlap < minOverlap {
			continue
		}
		hits = append(hits, svResponseRecord{Record: &record, Overlap: overlap})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Overlap > hits[j].Overlap })

	begin, end, pageInfo := paginate(len(hits), pageNo, pageSize)
	page := hits[begin:end]
	if page == nil {
		page = []svResponseRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records":   page,
		"page_info": pageInfo,
	})
}

// genesInfo handles GET /genes/info?hgnc_id=ID,ID,...
func (h *handlers) genesInfo(w http.ResponseWriter, r *http.Request) {
	if h.data.Genes == nil {
		writeError(w, errs.Ef("server.genesInfo", errs.KindMissingColumnFamily, "genes database not available"))
		return
	}
	raw := r.URL.Query().Get("hgnc_id")
	if raw == "" {
		writeError(w, errs.Ef("server.genesInfo", errs.KindInvalidLocus, "missing hgnc_id parameter"))
		return
	}
	result := make(map[string]interface{})
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if gn := h.data.Genes.ByID(id); gn != nil {
			result[id] = gn
		} else {
			result[id] = nil
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"genes": result})
}

// genesLookup handles GET /genes/lookup?q=...; every query term must match
// a symbol or identifier exactly.
func (h *handlers) genesLookup(w http.ResponseWriter, r *http.Request) {
	if h.data.Genes == nil {
		writeError(w, errs.Ef("server.genesLookup", errs.KindMissingColumnFamily, "genes database not available"))
		return
	}
	raw := r.URL.Query().Get("q")
	result := make(map[string]interface{})
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if gn := h.data.Genes.Lookup(term); gn != nil {
			result[term] = gn
		} else {
			result[term] = nil
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"genes": result})
}

// genesSearch handles GET /genes/search?q=...&fields=...&case_sensitive=...
func (h *handlers) genesSearch(w http.ResponseWriter, r *http.Request) {
	if h.data.Genes == nil {
		writeError(w, errs.Ef("server.genesSearch", errs.KindMissingColumnFamily, "genes database not available"))
		return
	}
	q := r.URL.Query()
	var fields []string
	if raw := q.Get("fields"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			fields = append(fields, strings.TrimSpace(f))
		}
	}
	caseSensitive := false
	if raw := q.Get("case_sensitive"); raw != "" {
		caseSensitive, _ = strconv.ParseBool(raw)
	}

	hits := h.data.Genes.Search(q.Get("q"), fields, caseSensitive)
	if hits == nil {
		hits = []genes.Scored{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"genes": hits})
}

// Package server exposes the annotation databases over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/openbio/annostore/internal/clinvarsv"
	"github.com/openbio/annostore/internal/errs"
	"github.com/openbio/annostore/internal/genes"
	"github.com/openbio/annostore/internal/gnomadsv"
	"github.com/openbio/annostore/internal/intervals"
	"github.com/openbio/annostore/internal/query"
	"github.com/openbio/annostore/internal/store"
)

// SVDatabase is one opened structural-variant database.
type SVDatabase struct {
	DB *store.DB
	CF string
}

// ReleaseData holds the open databases of one genome release.
type ReleaseData struct {
	// Annos maps a source identifier to its query engine for the
	// per-variant fan-out.
	Annos map[string]*query.Engine
	// ClinvarSV serves /clinvar-sv/query.
	ClinvarSV *SVDatabase
	// GnomadSV is the opened gnomAD SV database; no endpoint queries it.
	GnomadSV *SVDatabase
}

// Data is the process-wide server state: shared read-only handles and the
// interval-tree caches.  It is initialized once and torn down only by
// process exit.
type Data struct {
	Version  string
	Releases map[string]*ReleaseData
	Genes    *genes.Table

	forests *intervals.Cache
}

// NewData returns an empty server state with an initialized forest cache.
func NewData(version string) *Data {
	return &Data{
		Version:  version,
		Releases: make(map[string]*ReleaseData),
		forests:  intervals.NewCache(),
	}
}

// Server is the HTTP API server.
type Server struct {
	router *mux.Router
	server *http.Server
	data   *Data
	dbs    []*store.DB
}

// New opens every configured database read-only and assembles the server.
func New(cfg *Config, version string) (*Server, error) {
	s := &Server{data: NewData(version)}

	openDB := func(d Database) (*store.DB, error) {
		db, err := store.Open(d.Path, store.Options{ReadOnly: true})
		if err != nil {
			return nil, err
		}
		s.dbs = append(s.dbs, db)
		if _, err := db.ReadMeta(); err != nil {
			return nil, err
		}
		return db, nil
	}

	for release, rc := range cfg.Releases {
		rd := &ReleaseData{Annos: make(map[string]*query.Engine)}
		for source, d := range rc.Annos {
			db, err := openDB(d)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("failed to open %s/%s: %w", release, source, err)
			}
			engine, err := query.NewEngine(db, d.CF)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("failed to open %s/%s: %w", release, source, err)
			}
			rd.Annos[source] = engine
		}
		if rc.ClinvarSV != nil {
			db, err := openDB(*rc.ClinvarSV)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("failed to open %s/clinvar-sv: %w", release, err)
			}
			cf := rc.ClinvarSV.CF
			if cf == "" {
				cf = clinvarsv.DefaultCF
			}
			rd.ClinvarSV = &SVDatabase{DB: db, CF: cf}
		}
		if rc.GnomadSV != nil {
			db, err := openDB(*rc.GnomadSV)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("failed to open %s/gnomad-sv: %w", release, err)
			}
			cf := rc.GnomadSV.CF
			if cf == "" {
				cf = gnomadsv.DefaultCF
			}
			rd.GnomadSV = &SVDatabase{DB: db, CF: cf}
		}
		s.data.Releases[release] = rd
	}

	if cfg.Genes != nil {
		db, err := openDB(*cfg.Genes)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open genes: %w", err)
		}
		table, err := genes.Load(db, cfg.Genes.CF)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to load genes: %w", err)
		}
		s.data.Genes = table
	}

	s.router = newRouter(s.data)
	if cfg.EnableCORS {
		s.router.Use(corsMiddleware)
	}
	s.router.Use(loggingMiddleware)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// newRouter wires the endpoints.
func newRouter(data *Data) *mux.Router {
	router := mux.NewRouter()
	h := &handlers{data: data}

	router.HandleFunc("/annos/variant", h.annosVariant).Methods("GET")
	router.HandleFunc("/clinvar-sv/query", h.clinvarSVQuery).Methods("GET")
	router.HandleFunc("/genes/info", h.genesInfo).Methods("GET")
	router.HandleFunc("/genes/lookup", h.genesLookup).Methods("GET")
	router.HandleFunc("/genes/search", h.genesSearch).Methods("GET")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": data.Version})
	})
	return router
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Close releases all open databases.
func (s *Server) Close() {
	for _, db := range s.dbs {
		db.Close()
	}
	s.dbs = nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

// writeError maps an error to a status code by kind and writes it.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.KindInvalidChromosome, errs.KindInvalidPosition, errs.KindInvalidKey,
		errs.KindInvalidLocus, errs.KindAssemblyMismatch:
		status = http.StatusBadRequest
	case errs.KindNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// corsMiddleware allows cross-origin requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs one line per request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start).Round(time.Microsecond))
	})
}

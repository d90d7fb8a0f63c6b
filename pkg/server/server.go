// Package server serves the genealogy site and its JSON dataset over HTTP.
//
// The JSON route is handled explicitly rather than by the file server so it
// always carries a JSON content type and permissive CORS headers, letting a
// page served from elsewhere fetch the dataset without a proxy.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/kinship/pkg/loader"
)

// Options configures a Server.
type Options struct {
	Addr     string // listen address, e.g. ":8000"
	DataPath string // path to the genealogy JSON file
	SiteDir  string // static site directory; cwd when empty
}

// Server serves the static site, the raw dataset, and a parsed-tree API.
type Server struct {
	opts Options
	mux  *http.ServeMux
	srv  *http.Server
}

// New builds a server. Routes:
//
//	/family.json, /geneology.json  the dataset, re-validated per request
//	/api/tree                      the parsed tree, re-encoded
//	/                              static files from SiteDir
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8000"
	}
	if opts.SiteDir == "" {
		opts.SiteDir = "."
	}

	s := &Server{opts: opts, mux: http.NewServeMux()}
	for _, route := range []string{"/family.json", "/geneology.json"} {
		s.mux.HandleFunc(route, s.handleData)
	}
	s.mux.HandleFunc("/api/tree", s.handleTree)
	s.mux.Handle("/", http.FileServer(http.Dir(opts.SiteDir)))

	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the route mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe blocks serving requests until the context is canceled or
// the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}
	log.Printf("genealogy server running at http://%s", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// handleData serves the raw dataset with CORS headers. The file is parsed
// on every request so a broken on-disk edit surfaces as a 500, not as
// garbage handed to the page.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if _, err := os.Stat(s.opts.DataPath); os.IsNotExist(err) {
		http.Error(w, fmt.Sprintf("file %s not found", filepath.Base(s.opts.DataPath)), http.StatusNotFound)
		return
	}

	root, err := loader.LoadFile(s.opts.DataPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("error reading JSON file: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("error encoding JSON: %v", err), http.StatusInternalServerError)
		return
	}
	w.Write(data)
}

// handleTree serves the parsed tree for API consumers.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	root, err := loader.LoadFile(s.opts.DataPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("error reading genealogy data: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(root)
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

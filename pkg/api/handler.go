package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hazyhaar/labelcheck/pkg/kit"
	"github.com/hazyhaar/labelcheck/pkg/report"
)

// NewRouter returns an http.Handler with all labelcheck API routes.
func NewRouter(svc *Service) http.Handler {
	mux := http.NewServeMux()
	h := &handler{ep: newEndpoints(svc), svc: svc}

	for _, path := range []string{"/v1/check", "/v1/allergens", "/v1/gras", "/v1/ndi", "/v1/refdata/invalidate"} {
		mux.HandleFunc("GET "+path, methodNotAllowed)
	}
	mux.HandleFunc("POST /v1/check", h.serveCheck(h.ep.check))
	mux.HandleFunc("POST /v1/allergens", h.serveCheck(h.ep.allergens))
	mux.HandleFunc("POST /v1/gras", h.serveCheck(h.ep.gras))
	mux.HandleFunc("POST /v1/ndi", h.serveCheck(h.ep.ndi))
	mux.HandleFunc("GET /v1/refdata", h.handleRefdata)
	mux.HandleFunc("POST /v1/refdata/invalidate", h.handleInvalidate)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(requestID(mux))
}

type handler struct {
	ep  *endpoints
	svc *Service
}

// --- checks ---

type httpCheckRequest struct {
	Ingredients []string `json:"ingredients"`
	Checks      []string `json:"checks,omitempty"`
}

func (h *handler) serveCheck(ep kit.Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 256*1024) // 256 KiB max
		var req httpCheckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		checks, err := report.ParseChecks(strings.Join(req.Checks, ","))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp, err := ep(r.Context(), &checkReq{Ingredients: req.Ingredients, Checks: checks})
		if err != nil {
			writeEndpointError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// --- reference data ---

func (h *handler) handleRefdata(w http.ResponseWriter, r *http.Request) {
	resp, err := h.ep.refdata(r.Context(), nil)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type httpInvalidateRequest struct {
	Corpora []string `json:"corpora,omitempty"`
}

func (h *handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4*1024)
	var req httpInvalidateRequest
	// An empty body invalidates everything.
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	corpora, err := parseCorpora(req.Corpora)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.ep.invalidate(r.Context(), &invalidateReq{Corpora: corpora})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status        string `json:"status"`
	CorporaLoaded int    `json:"corpora_loaded"`
	TotalRecords  int    `json:"total_records"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	for _, st := range h.svc.Cache.Stats() {
		if st.Loaded {
			resp.CorporaLoaded++
		}
		resp.TotalRecords += st.Records
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeEndpointError(w http.ResponseWriter, err error) {
	if badRequest(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestID propagates X-Request-ID, generating one when absent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithTransport(kit.WithRequestID(r.Context(), id), "http")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

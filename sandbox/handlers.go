package sandbox

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-bankconnect/core"
)

const cursorPrefix = "offset:"

type createEntityRequest struct {
	LinkID string `json:"link_id"`
}

// CreateEntity handles POST /entity/. Repeating a link id returns the entity
// minted the first time.
func (s *Server) CreateEntity(w http.ResponseWriter, r *http.Request) {
	var req createEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "JSON parse error - " + err.Error()})
		return
	}
	if strings.TrimSpace(req.LinkID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"link_id": []string{"This field is required."}})
		return
	}
	state, created := s.store.CreateEntity(req.LinkID)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		s.logger.Info("sandbox entity created", "entity_id", state.EntityID, "link_id", state.LinkID)
	}
	writeJSON(w, status, map[string]any{
		"entity_id": state.EntityID,
		"link_id":   state.LinkID,
	})
}

func (s *Server) GetIdentity(w http.ResponseWriter, r *http.Request) {
	state, ok := s.store.Entity(chi.URLParam(r, "entityID"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	identity := state.Identity
	if identity == nil {
		identity = core.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entity_id": state.EntityID,
		"progress":  "completed",
		"identity":  identity,
	})
}

// ListResource serves one page of accounts, transactions, or fraud records.
func (s *Server) ListResource(w http.ResponseWriter, r *http.Request) {
	resource := core.Resource(chi.URLParam(r, "resource"))
	if !resource.Paginated() {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	records, ok := s.store.Records(chi.URLParam(r, "entityID"), resource)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	query := r.URL.Query()
	pageSize, err := positiveParam(query.Get("page_size"), s.pageSize)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid page_size.")
		return
	}
	pageSize = min(pageSize, maxPageSize)

	if s.cursorLinks {
		s.listByCursorLink(w, r, records, query.Get("cursor"), pageSize)
		return
	}
	if cursor := query.Get("cursor"); cursor != "" || s.cursorMode {
		s.listByCursor(w, resource, records, cursor, pageSize)
		return
	}

	page, err := positiveParam(query.Get("page"), 1)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	start := (page - 1) * pageSize
	if start > 0 && start >= len(records) {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	end := min(start+pageSize, len(records))

	var next, previous any
	if end < len(records) {
		next = pageURL(r, page+1)
	}
	if page > 1 {
		previous = pageURL(r, page-1)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(records),
		"next":     next,
		"previous": previous,
		"results":  records[start:end],
	})
}

func (s *Server) listByCursor(w http.ResponseWriter, resource core.Resource, records []core.Record, cursor string, pageSize int) {
	offset, ok := parseCursor(cursor, len(records))
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Invalid cursor.")
		return
	}
	end := min(offset+pageSize, len(records))
	body := map[string]any{
		resource.String(): records[offset:end],
		"has_more":        end < len(records),
	}
	if end < len(records) {
		body["next_cursor"] = cursorPrefix + strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) listByCursorLink(w http.ResponseWriter, r *http.Request, records []core.Record, cursor string, pageSize int) {
	offset, ok := parseCursor(cursor, len(records))
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Invalid cursor.")
		return
	}
	end := min(offset+pageSize, len(records))
	var next any
	if end < len(records) {
		next = linkURL(r, func(q url.Values) {
			q.Del("page")
			q.Set("cursor", cursorPrefix+strconv.Itoa(end))
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(records),
		"next":     next,
		"previous": nil,
		"results":  records[offset:end],
	})
}

func parseCursor(cursor string, total int) (int, bool) {
	if cursor == "" {
		return 0, true
	}
	if !strings.HasPrefix(cursor, cursorPrefix) {
		return 0, false
	}
	offset, err := strconv.Atoi(strings.TrimPrefix(cursor, cursorPrefix))
	if err != nil || offset < 0 || offset > total {
		return 0, false
	}
	return offset, true
}

func (s *Server) AdminReset(w http.ResponseWriter, _ *http.Request) {
	s.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) AdminRequests(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	counts := make(map[string]int, len(s.requests))
	for path, count := range s.requests {
		counts[path] = count
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) AdminEntities(w http.ResponseWriter, _ *http.Request) {
	ids := s.store.EntityIDs()
	entities := make([]EntityState, 0, len(ids))
	for _, id := range ids {
		if state, ok := s.store.Entity(id); ok {
			entities = append(entities, state)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(entities), "results": entities})
}

// AdminSetResource replaces a resource's records with the JSON array in the
// request body.
func (s *Server) AdminSetResource(w http.ResponseWriter, r *http.Request) {
	resource := core.Resource(chi.URLParam(r, "resource"))
	if resource != core.ResourceIdentity && !resource.Paginated() {
		writeDetail(w, http.StatusBadRequest, "Unknown resource.")
		return
	}
	var records []core.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		writeDetail(w, http.StatusBadRequest, "Expected a JSON array of records.")
		return
	}
	s.store.SetResource(chi.URLParam(r, "entityID"), resource, records)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) AdminAddFault(w http.ResponseWriter, r *http.Request) {
	var fault Fault
	if err := json.NewDecoder(r.Body).Decode(&fault); err != nil || fault.StatusCode < 100 || fault.StatusCode > 599 {
		writeDetail(w, http.StatusBadRequest, "Expected a fault with a valid status_code.")
		return
	}
	s.AddFault(fault)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) AdminClearFaults(w http.ResponseWriter, _ *http.Request) {
	s.ClearFaults()
	w.WriteHeader(http.StatusNoContent)
}

func positiveParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, strconv.ErrSyntax
	}
	return value, nil
}

func pageURL(r *http.Request, page int) string {
	return linkURL(r, func(q url.Values) {
		q.Set("page", strconv.Itoa(page))
	})
}

func linkURL(r *http.Request, edit func(url.Values)) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	query := r.URL.Query()
	edit(query)
	link := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: query.Encode()}
	return link.String()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

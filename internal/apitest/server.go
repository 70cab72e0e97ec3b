// Package apitest is an in-memory fake of the notegraf HTTP API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mithrel/notegraf-cli/pkg/api"
)

// Server serves notes from memory and records what was requested.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	notes       map[string]api.Note
	revisions   map[string][]api.Note
	failures    map[string]int
	delays      map[string]time.Duration
	submissions []Submission
	hits        map[string]int
	seq         atomic.Int64
	total       atomic.Int64
}

// Submission is one recorded POST.
type Submission struct {
	Endpoint string
	Body     api.Submission
}

// New starts a fake API server that is shut down with the test.
func New(t testing.TB, notes ...api.Note) *Server {
	t.Helper()
	s := &Server{
		notes:     make(map[string]api.Note),
		revisions: make(map[string][]api.Note),
		failures:  make(map[string]int),
		delays:    make(map[string]time.Duration),
		hits:      make(map[string]int),
	}
	for _, n := range notes {
		s.Put(n)
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.count)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/note", s.search)
		r.Get("/note/{id}", s.getNote)
		r.Delete("/note/{id}", s.deleteNote)
		r.Get("/note/{id}/revision", s.listRevisions)
		r.Get("/note/{id}/revision/{rev}", s.getRevision)
		r.Get("/tags", s.tags)
		r.Post("/*", s.submit)
	})
	return r
}

// Put stores n as the new current revision of its note. A blank or
// already used revision id is replaced with a fresh one.
func (s *Server) Put(n api.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.Revision == "" || s.hasRevision(n.ID, n.Revision) {
		n.Revision = fmt.Sprintf("%s-r%d", n.ID, len(s.revisions[n.ID])+1)
	}
	s.notes[n.ID] = n
	s.revisions[n.ID] = append(s.revisions[n.ID], n)
}

func (s *Server) hasRevision(id, rev string) bool {
	for _, r := range s.revisions[id] {
		if r.Revision == rev {
			return true
		}
	}
	return false
}

// FailWith makes requests to path answer with status until cleared.
func (s *Server) FailWith(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Delay holds requests to path for d before answering.
func (s *Server) Delay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[path] = d
}

// Hits reports how many times path was requested.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Total reports the number of requests served.
func (s *Server) Total() int { return int(s.total.Load()) }

// Submissions returns every recorded POST in arrival order.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.submissions...)
}

// Note returns the stored current revision.
func (s *Server) Note(id string) (api.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	return n, ok
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.total.Add(1)
		s.mu.Lock()
		s.hits[r.URL.Path]++
		status := s.failures[r.URL.Path]
		delay := s.delays[r.URL.Path]
		s.mu.Unlock()
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			http.Error(w, "injected failure", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	n, ok := s.Note(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "note "+chi.URLParam(r, "id")+" does not exist", http.StatusNotFound)
		return
	}
	writeJSON(w, n)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		http.Error(w, "note "+id+" does not exist", http.StatusNotFound)
		return
	}
	delete(s.notes, id)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) listRevisions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	revs := append([]api.Note(nil), s.revisions[chi.URLParam(r, "id")]...)
	s.mu.Unlock()
	if len(revs) == 0 {
		http.Error(w, "note does not exist", http.StatusNotFound)
		return
	}
	// Newest first.
	for i, j := 0, len(revs)-1; i < j; i, j = i+1, j-1 {
		revs[i], revs[j] = revs[j], revs[i]
	}
	writeJSON(w, revs)
}

func (s *Server) getRevision(w http.ResponseWriter, r *http.Request) {
	id, rev := chi.URLParam(r, "id"), chi.URLParam(r, "rev")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.revisions[id] {
		if n.Revision == rev {
			writeJSON(w, n)
			return
		}
	}
	http.Error(w, "revision does not exist", http.StatusNotFound)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("query"))
	s.mu.Lock()
	out := make([]api.Note, 0)
	for _, n := range s.notes {
		if matches(n, q) {
			out = append(out, n)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, out)
}

// matches implements the subset of the server query language the tests need:
// "#tag" matches a tag, anything else is a case-insensitive substring.
func matches(n api.Note, q string) bool {
	if q == "" {
		return true
	}
	if strings.HasPrefix(q, "#") {
		for _, t := range n.Metadata.Tags {
			if strings.EqualFold(t, q[1:]) {
				return true
			}
		}
		return false
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.NoteInner), q)
}

func (s *Server) tags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	set := map[string]struct{}{}
	for _, n := range s.notes {
		for _, t := range n.Metadata.Tags {
			set[t] = struct{}{}
		}
	}
	s.mu.Unlock()
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	writeJSON(w, out)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	endpoint := chi.URLParam(r, "*")
	var body api.Submission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.submissions = append(s.submissions, Submission{Endpoint: endpoint, Body: body})
	s.mu.Unlock()

	n := api.Note{
		Title:     body.Title,
		NoteInner: body.NoteInner,
		Metadata: api.NoteMetadata{
			SchemaVersion: 1,
			CreatedAt:     time.Now().UTC(),
			ModifiedAt:    time.Now().UTC(),
			Tags:          splitTags(body.MetadataTags),
		},
	}
	if body.MetadataCustomMetadata != "" {
		n.Metadata.CustomMetadata = json.RawMessage(body.MetadataCustomMetadata)
	}

	parts := strings.Split(endpoint, "/")
	switch {
	case endpoint == "note":
		n.ID = fmt.Sprintf("n%d", s.seq.Add(1))
	case len(parts) == 3 && parts[0] == "note" && parts[2] == "revision":
		cur, ok := s.Note(parts[1])
		if !ok {
			http.Error(w, "note does not exist", http.StatusNotFound)
			return
		}
		n.ID, n.Prev, n.Next, n.Parent = cur.ID, cur.Prev, cur.Next, cur.Parent
		n.Branches, n.References, n.Referents = cur.Branches, cur.References, cur.Referents
	case len(parts) == 3 && parts[0] == "note" && (parts[2] == "branch" || parts[2] == "next"):
		cur, ok := s.Note(parts[1])
		if !ok {
			http.Error(w, "note does not exist", http.StatusNotFound)
			return
		}
		n.ID = fmt.Sprintf("n%d", s.seq.Add(1))
		if parts[2] == "branch" {
			n.Parent = api.StrPtr(cur.ID)
			cur.Branches = append(cur.Branches, n.ID)
		} else {
			if cur.Next != nil {
				http.Error(w, "note already has a next note", http.StatusConflict)
				return
			}
			n.Prev = api.StrPtr(cur.ID)
			cur.Next = api.StrPtr(n.ID)
		}
		s.Put(cur)
	default:
		http.Error(w, "unknown endpoint "+endpoint, http.StatusNotFound)
		return
	}
	s.Put(n)
	stored, _ := s.Note(n.ID)
	writeJSON(w, api.Locator{Kind: api.LocatorSpecific, ID: stored.ID, Revision: stored.Revision})
}

func splitTags(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Chain builds notes linked by prev/next in the given order.
func Chain(ids ...string) []api.Note {
	out := make([]api.Note, len(ids))
	for i, id := range ids {
		n := api.Note{ID: id, Title: "Note " + id, NoteInner: "body of " + id}
		if i > 0 {
			n.Prev = api.StrPtr(ids[i-1])
		}
		if i < len(ids)-1 {
			n.Next = api.StrPtr(ids[i+1])
		}
		out[i] = n
	}
	return out
}

// Package remotetest runs an in-process DocGen collaborator for tests.
package remotetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mithrel/docgen/pkg/api"
)

const sessionCookie = "session"

// Call records one request the fake received.
type Call struct {
	Path    string
	Section string
	Form    url.Values
}

// Server is a fake collaborator. Exported fields may be set before use and
// are read under the server lock.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	sections map[string]url.Values
	order    []string
	calls    []Call
	theme    string
	project  api.ProjectType
	sessions map[string]bool

	// RequireSession makes data endpoints answer 400 without a setup cookie.
	RequireSession bool
	// UpdateFunc overrides the /update_section reply when it returns a
	// non-zero status.
	UpdateFunc func(section string, form url.Values) (int, any)
	// Gate, when set, blocks /update_section until a value is received.
	Gate chan struct{}
	// Structure is returned by /upload_structure.
	Structure string
}

// New starts a fake collaborator closed on test cleanup.
func New(t testing.TB) *Server {
	s := &Server{
		sections:  make(map[string]url.Values),
		sessions:  make(map[string]bool),
		Structure: "project/\n  main.go\n",
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/setup", s.handleSetup)
	r.Get("/reset", s.handleReset)
	r.Group(func(r chi.Router) {
		r.Use(s.session)
		r.Post("/update_section", s.handleUpdate)
		r.Get("/export", s.handleExport)
		r.Get("/download", s.handleDownload)
		r.Get("/get_sections_status", s.handleStatus)
		r.Post("/upload_structure", s.handleUpload)
		r.Post("/update_theme", s.handleTheme)
	})
	return r
}

func (s *Server) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		need := s.RequireSession
		s.mu.Unlock()
		if need {
			c, err := r.Cookie(sessionCookie)
			s.mu.Lock()
			ok := err == nil && s.sessions[c.Value]
			s.mu.Unlock()
			if !ok {
				if r.URL.Path == "/export" || r.URL.Path == "/download" {
					http.Redirect(w, r, "/", http.StatusFound)
					return
				}
				writeJSON(w, http.StatusBadRequest, api.ErrorBody{Error: "Sessão expirada"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Calls returns the requests received so far for a path.
func (s *Server) Calls(path string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// UpdateCount is the number of /update_section calls.
func (s *Server) UpdateCount() int { return len(s.Calls("/update_section")) }

// Theme returns the last theme set.
func (s *Server) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Section returns the stored fields of a section.
func (s *Server) Section(id string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sections[id]
}

func (s *Server) record(path, section string, form url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Path: path, Section: section, Form: form})
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	s.record(r.URL.Path, "", r.PostForm)
	pt := api.ProjectType(r.PostForm.Get("project_type"))
	if !pt.Valid() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = true
	s.project = pt
	s.sections = make(map[string]url.Values)
	s.order = nil
	if r.PostForm.Get("use_example") == "true" {
		s.store("project_info", url.Values{"name": {"Example " + string(pt)}})
	}
	s.theme = "default"
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/"})
	http.Redirect(w, r, "/editor?section=project_info", http.StatusFound)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.record(r.URL.Path, "", nil)
	s.mu.Lock()
	s.sessions = make(map[string]bool)
	s.sections = make(map[string]url.Values)
	s.order = nil
	s.mu.Unlock()
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) store(section string, form url.Values) {
	if _, ok := s.sections[section]; !ok {
		s.order = append(s.order, section)
	}
	s.sections[section] = form
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorBody{Error: err.Error()})
		return
	}
	form := url.Values{}
	for k, v := range r.MultipartForm.Value {
		if k != "section" {
			form[k] = v
		}
	}
	section := r.FormValue("section")
	s.record(r.URL.Path, section, form)

	s.mu.Lock()
	gate := s.Gate
	hook := s.UpdateFunc
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if hook != nil {
		if code, body := hook(section, form); code != 0 {
			writeJSON(w, code, body)
			return
		}
	}
	if section == "" {
		writeJSON(w, http.StatusBadRequest, api.ErrorBody{Error: "Seção não especificada"})
		return
	}
	s.mu.Lock()
	s.store(section, form)
	md := s.markdownLocked()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, api.SectionUpdate{Success: true, Markdown: md, HTMLPreview: "<p>preview</p>"})
}

func (s *Server) markdownLocked() string {
	var b strings.Builder
	name := "README"
	if pi, ok := s.sections["project_info"]; ok && pi.Get("name") != "" {
		name = pi.Get("name")
	}
	fmt.Fprintf(&b, "# %s\n", name)
	for _, sec := range s.order {
		fmt.Fprintf(&b, "\n## %s\n\n", sec)
		form := s.sections[sec]
		keys := make([]string, 0, len(form))
		for k := range form {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", strings.TrimSuffix(k, "[]"), strings.Join(form[k], ", "))
		}
	}
	return b.String()
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.record(r.URL.Path, "", nil)
	s.mu.Lock()
	md := s.markdownLocked()
	name := "README"
	if pi, ok := s.sections["project_info"]; ok && pi.Get("name") != "" {
		name = strings.ReplaceAll(pi.Get("name"), " ", "_")
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, api.Export{Markdown: md, Filename: name + ".md"})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.record(r.URL.Path, "", nil)
	s.mu.Lock()
	md := s.markdownLocked()
	s.mu.Unlock()
	w.Header().Set("Content-Type", "text/markdown")
	w.Header().Set("Content-Disposition", `attachment; filename="README.md"`)
	_, _ = w.Write([]byte(md))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.record(r.URL.Path, "", nil)
	s.mu.Lock()
	status := make(map[string]bool, len(s.sections))
	for id, form := range s.sections {
		complete := false
		for _, v := range form {
			if len(v) > 0 && strings.TrimSpace(v[0]) != "" {
				complete = true
				break
			}
		}
		status[id] = complete
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, api.SectionsStatus{Success: true, Status: status})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorBody{Error: err.Error()})
		return
	}
	file, hdr, err := r.FormFile("project_files")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorBody{Error: "Nenhum arquivo enviado"})
		return
	}
	_ = file.Close()
	s.record(r.URL.Path, "", url.Values{"filename": {hdr.Filename}})
	s.mu.Lock()
	structure := s.Structure
	if sec, ok := s.sections["structure"]; ok {
		sec.Set("manual_structure", structure)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, api.UploadResult{Success: true, Structure: structure})
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	s.record(r.URL.Path, "", r.PostForm)
	theme := r.PostForm.Get("theme")
	if theme == "" {
		theme = "default"
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, api.ThemeResult{Success: true, Theme: theme})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// SetUpdateFunc swaps the /update_section override while requests may be in flight.
func (s *Server) SetUpdateFunc(fn func(section string, form url.Values) (int, any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdateFunc = fn
}

// SetGate swaps the /update_section gate while requests may be in flight.
func (s *Server) SetGate(gate chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Gate = gate
}

// ProjectType returns the type chosen by the last /setup call.
func (s *Server) ProjectType() api.ProjectType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}

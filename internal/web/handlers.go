package web

import (
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/listgraph/listgraph/pkg/errors"
	"github.com/listgraph/listgraph/pkg/pipeline"
	"github.com/listgraph/listgraph/pkg/session"
)

// sessionCookie names the cookie carrying the session id.
const sessionCookie = "listgraph_session"

// diagramNamePattern matches the uuid-based filenames this server generates.
// Anything else in /diagrams/{name} is rejected, which also rules out path
// traversal.
var diagramNamePattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.png$`)

// indexData feeds the index template.
type indexData struct {
	Flashes []session.Flash
}

// resultsData feeds the results template.
type resultsData struct {
	Flashes    []session.Flash
	SiteID     string
	DiagramURL string
}

// handleIndex renders the token/site form along with pending flashes.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(r)
	flashes := sess.PopFlashes()
	s.saveSession(w, r, sess)

	s.renderTemplate(w, "index.html", indexData{Flashes: flashes})
}

// handleGenerate runs the pipeline for the submitted token and site id.
// On success the diagram reference is stored in the session and the browser
// is redirected to the results page; on failure an error flash is set and
// the browser returns to the form.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(r)

	if err := r.ParseForm(); err != nil {
		s.flashAndRedirect(w, r, sess, session.FlashError, "Invalid form submission.", "/")
		return
	}
	token := r.PostFormValue("token")
	siteID := r.PostFormValue("site_id")
	if token == "" || siteID == "" {
		s.flashAndRedirect(w, r, sess, session.FlashError, "Both token and site id are required.", "/")
		return
	}

	runner, err := s.newGen(token)
	if err != nil {
		s.flashAndRedirect(w, r, sess, session.FlashError, errors.UserMessage(err), "/")
		return
	}

	name := uuid.NewString() + ".png"
	result, err := runner.Run(r.Context(), pipeline.Options{
		SiteID: siteID,
		Format: pipeline.FormatPNG,
		Output: filepath.Join(s.cfg.Server.OutputDir, name),
	})
	if err != nil {
		s.logger.Error("diagram generation failed", "site", siteID, "err", err)
		s.flashAndRedirect(w, r, sess, session.FlashError, errors.UserMessage(err), "/")
		return
	}

	// A replaced diagram is deleted; nothing references it anymore.
	if sess.Diagram != "" && sess.Diagram != name {
		_ = os.Remove(filepath.Join(s.cfg.Server.OutputDir, sess.Diagram))
	}

	sess.SiteID = siteID
	sess.Diagram = name
	sess.AddFlash(session.FlashInfo, "Diagram generated.")
	s.saveSession(w, r, sess)

	s.logger.Info("diagram generated",
		"site", siteID,
		"lists", result.Stats.ListCount,
		"relationships", result.Stats.EdgeCount)

	http.Redirect(w, r, "/results", http.StatusSeeOther)
}

// handleResults shows the generated diagram, or sends the browser back to the
// form when the session has none.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(r)
	if sess.Diagram == "" {
		s.flashAndRedirect(w, r, sess, session.FlashError, "Please submit the form first.", "/")
		return
	}

	flashes := sess.PopFlashes()
	s.saveSession(w, r, sess)

	s.renderTemplate(w, "results.html", resultsData{
		Flashes:    flashes,
		SiteID:     sess.SiteID,
		DiagramURL: "/diagrams/" + sess.Diagram,
	})
}

// handleSchema streams the session's diagram as PNG.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(r)
	if sess.Diagram == "" {
		s.flashAndRedirect(w, r, sess, session.FlashError, "Please submit the form first.", "/")
		return
	}
	s.serveDiagram(w, r, sess.Diagram)
}

// handleDownload serves a generated diagram file by name.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !diagramNamePattern.MatchString(name) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.serveDiagram(w, r, name)
}

func (s *Server) serveDiagram(w http.ResponseWriter, r *http.Request, name string) {
	path := filepath.Join(s.cfg.Server.OutputDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// =============================================================================
// Session Helpers
// =============================================================================

// loadSession returns the request's session, or a fresh one when the cookie
// is missing or stale.
func (s *Server) loadSession(r *http.Request) *session.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, err := s.store.Get(r.Context(), c.Value); err == nil {
			return sess
		}
	}
	return session.New(s.cfg.Server.TTL())
}

// saveSession persists the session and refreshes the cookie.
func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := s.store.Set(r.Context(), sess); err != nil {
		s.logger.Error("save session", "err", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// flashAndRedirect stores a flash message and redirects.
func (s *Server) flashAndRedirect(w http.ResponseWriter, r *http.Request, sess *session.Session, category, msg, target string) {
	sess.AddFlash(category, msg)
	s.saveSession(w, r, sess)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render template", "template", name, "err", err)
	}
}

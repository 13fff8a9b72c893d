// Package server exposes registered screens over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/text/language"

	"screenkit/internal/auth"
	"screenkit/internal/screen"
)

// DefaultPort is used when neither Config.Addr nor SCREENKIT_PORT is set.
const DefaultPort = 8080

// Route names registered by NewRouter.
const (
	RouteScreen       = "screen"
	RouteScreenParams = "screen.params"
)

const maxBody = 1 << 20

// PrincipalFunc loads the principal a request identified by email runs as.
type PrincipalFunc func(ctx context.Context, email string) (auth.Principal, error)

// Config holds server settings.
type Config struct {
	Addr string
	// Header carries the email of the requesting user.
	Header string
	// DefaultUser is used when Header is absent. Empty means anonymous.
	DefaultUser string
	// Home is the screen "/" redirects to.
	Home string
}

// NewRouter creates a router with the named screen routes mounted under
// basePath. Handlers are attached by New, so the router can build URLs
// before the runtime exists.
func NewRouter(basePath string) *mux.Router {
	r := mux.NewRouter()
	sub := r
	if base := strings.Trim(basePath, "/"); base != "" {
		sub = r.PathPrefix("/" + base).Subrouter()
	}
	sub.NewRoute().Path("/{screen}").Name(RouteScreen)
	sub.NewRoute().Path("/{screen}/{params:.+}").Name(RouteScreenParams)
	return r
}

// URLBuilder resolves screen slugs through the router's named routes.
type URLBuilder struct {
	Router *mux.Router
}

// URL returns the path of the screen route with params as trailing
// segments.
func (u URLBuilder) URL(route string, params ...string) (string, error) {
	if len(params) == 0 {
		out, err := u.Router.Get(RouteScreen).URLPath("screen", url.PathEscape(route))
		if err != nil {
			return "", fmt.Errorf("url %s: %w", route, err)
		}
		return out.Path, nil
	}
	escaped := make([]string, len(params))
	for i, p := range params {
		escaped[i] = url.PathEscape(p)
	}
	out, err := u.Router.Get(RouteScreenParams).URLPath("screen", url.PathEscape(route), "params", strings.Join(escaped, "/"))
	if err != nil {
		return "", fmt.Errorf("url %s: %w", route, err)
	}
	return out.Path, nil
}

// Server serves screens over HTTP.
type Server struct {
	runtime *screen.Runtime
	lookup  PrincipalFunc
	router  *mux.Router
	server  *http.Server
	cfg     Config
}

// New attaches screen handlers to router.
// Reads the port from SCREENKIT_PORT when cfg.Addr is empty, defaulting to 8080.
func New(router *mux.Router, rt *screen.Runtime, lookup PrincipalFunc, cfg Config) *Server {
	if cfg.Addr == "" {
		port := DefaultPort
		if portStr := os.Getenv("SCREENKIT_PORT"); portStr != "" {
			if p, err := strconv.Atoi(portStr); err == nil && p > 0 && p < 65536 {
				port = p
			}
		}
		cfg.Addr = fmt.Sprintf(":%d", port)
	}
	if cfg.Header == "" {
		cfg.Header = "X-User-Email"
	}
	if cfg.Home == "" {
		cfg.Home = "dashboard"
	}

	s := &Server{runtime: rt, lookup: lookup, router: router, cfg: cfg}

	router.Get(RouteScreen).HandlerFunc(s.handleScreen)
	router.Get(RouteScreenParams).HandlerFunc(s.handleScreen)
	router.Path("/").Methods(http.MethodGet).HandlerFunc(s.handleRoot)
	router.Use(withSecurityHeaders, s.withPrincipal)

	s.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}
	return s
}

// Start begins serving (non-blocking).
func (s *Server) Start() error {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server.Start: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.runtime.URL(s.cfg.Home), http.StatusFound)
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	method := r.Method
	if method == http.MethodHead {
		method = http.MethodGet
	}
	req := &screen.Request{
		Method: method,
		Query:  r.URL.Query(),
		Locale: locale(r.Header.Get("Accept-Language")),
	}
	if p := vars["params"]; p != "" {
		req.Params = strings.Split(strings.Trim(p, "/"), "/")
	}

	if method != http.MethodGet {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		if isJSON(r.Header.Get("Content-Type")) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				bodyError(w, r, err)
				return
			}
			req.Body = body
		} else {
			if err := r.ParseForm(); err != nil {
				bodyError(w, r, err)
				return
			}
			req.Form = r.PostForm
		}
	}

	resp, err := s.runtime.Handle(r.Context(), vars["screen"], req)
	if err != nil {
		status := screen.StatusCode(err)
		log.Printf("server.handleScreen: %s %s: %d: %v", r.Method, r.URL.Path, status, err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	s.write(w, r, resp)
}

// bodyError answers a request whose body could not be read: 413 past
// maxBody, 400 otherwise.
func bodyError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	log.Printf("server.handleScreen: %s %s: read body: %v", r.Method, r.URL.Path, err)
	http.Error(w, http.StatusText(status), status)
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, resp *screen.Response) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if resp.Mode != screen.ModeAction || resp.HTML != "" {
		writeHTML(w, status, resp.HTML)
		return
	}

	switch v := resp.Value.(type) {
	case nil:
		w.WriteHeader(http.StatusNoContent)
	case screen.Redirect:
		http.Redirect(w, r, v.URL, http.StatusSeeOther)
	case *screen.Redirect:
		http.Redirect(w, r, v.URL, http.StatusSeeOther)
	case template.HTML:
		writeHTML(w, status, v)
	case string:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, v)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("server.write: encode: %v", err)
		}
	}
}

func writeHTML(w http.ResponseWriter, status int, html template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, string(html))
}

func (s *Server) withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get(s.cfg.Header))
		if email == "" {
			email = s.cfg.DefaultUser
		}
		if email == "" || s.lookup == nil {
			next.ServeHTTP(w, r)
			return
		}
		p, err := s.lookup(r.Context(), email)
		if err != nil {
			log.Printf("server.withPrincipal: %s: %v", email, err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

// locale returns the preferred language of an Accept-Language header, or
// "" when it names none.
func locale(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	return tags[0].String()
}

// Package dashboard serves a small status page for operators: it shows
// whether a portal session is loaded, accepts fresh cookie uploads, and
// reports on the storage backing the cookie file.
package dashboard

import (
	"database/sql"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"eatap-backend/services/eatap/db"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/dashboard")

//go:embed templates
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type Config struct {
	CookiesPath string `json:"cookies_path"`
}

type Service struct {
	cfg Config
	qry *db.Queries
}

// database may be nil, which hides the recent operations panel.
func NewService(cfg Config, database *sql.DB) Service {
	s := Service{cfg: cfg}
	if database != nil {
		s.qry = db.New(database)
	}
	return s
}

func (s Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.index)
	r.Post("/upload-cookies", s.uploadCookies)
	r.Get("/storage", s.storage)
	return r
}

type recentOperation struct {
	Operation  string
	Resource   string
	Ok         bool
	Error      string
	DurationMs int64
	At         string
}

type indexData struct {
	SessionStatus    string
	SessionActive    bool
	CookiesPath      string
	CookiesUpdatedAt string
	Operations       []recentOperation
}

func (s Service) index(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "dashboard.index")
	defer span.End()

	data := indexData{
		SessionStatus: "No Session",
		CookiesPath:   s.cfg.CookiesPath,
	}
	if info, err := os.Stat(s.cfg.CookiesPath); err == nil {
		data.SessionStatus = "Active"
		data.SessionActive = true
		data.CookiesUpdatedAt = info.ModTime().Format(time.RFC1123)
	}

	if s.qry != nil {
		operations, err := s.qry.GetRecentOperations(ctx, 20)
		if err != nil {
			slog.WarnContext(ctx, "failed to load recent operations", "err", err)
		}
		for _, op := range operations {
			data.Operations = append(data.Operations, recentOperation{
				Operation:  op.Operation,
				Resource:   op.Resource,
				Ok:         op.Ok,
				Error:      op.Error,
				DurationMs: op.DurationMs,
				At:         time.Unix(op.CreatedAt, 0).Format(time.RFC1123),
			})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		slog.WarnContext(ctx, "failed to render dashboard", "err", err)
	}
}

const maxCookiesUploadBytes = 1 << 20

func (s Service) uploadCookies(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "dashboard.uploadCookies")
	defer span.End()

	if err := r.ParseMultipartForm(maxCookiesUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("cookies")
	if err != nil {
		http.Error(w, "missing cookies file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := s.saveCookies(file); err != nil {
		slog.ErrorContext(ctx, "failed to save uploaded cookies", "err", err)
		http.Error(w, "failed to save cookies", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(ctx, "uploaded fresh session cookies", "path", s.cfg.CookiesPath)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// saveCookies writes to a temp file first so a half-written upload never
// replaces a working cookie file.
func (s Service) saveCookies(src io.Reader) error {
	dir := filepath.Dir(s.cfg.CookiesPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "cookies-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(src, maxCookiesUploadBytes)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.cfg.CookiesPath)
}

type storageHealth struct {
	Status       string `json:"status"`
	Path         string `json:"path"`
	Writable     bool   `json:"writable"`
	CookiesExist bool   `json:"cookies_exist"`
	CookiesSize  int64  `json:"cookies_size"`
}

func (s Service) storage(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "dashboard.storage")
	defer span.End()

	health := storageHealth{
		Status: "healthy",
		Path:   filepath.Dir(s.cfg.CookiesPath),
	}

	probe := filepath.Join(health.Path, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0600); err == nil {
		health.Writable = true
		os.Remove(probe)
	} else {
		health.Status = "error"
	}

	if info, err := os.Stat(s.cfg.CookiesPath); err == nil {
		health.CookiesExist = true
		health.CookiesSize = info.Size()
	} else if health.Status == "healthy" {
		health.Status = "warning"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

package eatap

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	scraper "eatap-backend/lib/scrapers/eatap"
	"eatap-backend/services/eatap/db"

	"github.com/go-chi/chi/v5"
)

type Config struct {
	BaseUrl     string `json:"base_url"`
	CookiesPath string `json:"cookies_path"`
	UserAgent   string `json:"user_agent"`
}

// Service is the JSON façade over the portal scraper. Each inbound
// request builds its own scraper client so it always sees the cookie
// file as of that moment; nothing is shared between requests.
type Service struct {
	cfg Config
	qry *db.Queries
}

// database may be nil, which disables the audit log.
func NewService(cfg Config, database *sql.DB) Service {
	s := Service{cfg: cfg}
	if database != nil {
		s.qry = db.New(database)
	}
	return s
}

func (s Service) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.health)

	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", s.listProfiles)
		r.Get("/search", s.searchProfiles)
		r.Get("/{profileId}", s.getProfileDetail)
		r.Post("/", s.createProfile)
		r.Put("/{profileId}", s.updateProfile)
	})

	r.Route("/applications", func(r chi.Router) {
		r.Get("/", s.listApplications)
		r.Get("/search", s.listApplications)
		r.Get("/{applicationId}", s.getApplicationDetail)
		r.Get("/{applicationId}/raw", s.getApplicationRaw)
	})

	return r
}

func (s Service) newClient(ctx context.Context) (*scraper.Client, error) {
	return scraper.NewClient(ctx, scraper.ClientOptions{
		BaseUrl:     s.cfg.BaseUrl,
		CookiesPath: s.cfg.CookiesPath,
		UserAgent:   s.cfg.UserAgent,
	})
}

// record appends one row to the audit log. Failures to audit are
// logged and swallowed, bookkeeping never breaks a request.
func (s Service) record(ctx context.Context, operation, resource string, start time.Time, opErr error) {
	if s.qry == nil {
		return
	}

	errMsg := ""
	if opErr != nil {
		errMsg = opErr.Error()
	}
	err := s.qry.CreateOperation(ctx, db.CreateOperationParams{
		Operation:  operation,
		Resource:   resource,
		Ok:         opErr == nil,
		Error:      errMsg,
		DurationMs: time.Since(start).Milliseconds(),
		CreatedAt:  time.Now().Unix(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record audit entry", "operation", operation, "err", err)
	}
}

func (s Service) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"app":    "eatap-backend",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to encode json response", "err", err)
	}
}

func readFormFields(r *http.Request, fields *scraper.FormFields) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(fields)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps the scraper's error taxonomy onto http statuses. An
// expired session is always a plain 401 so callers have exactly one
// signal to re-upload cookies on.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, scraper.ErrSessionExpired) {
		writeJSON(w, http.StatusUnauthorized, errorBody{
			Error:   "Unauthorized",
			Message: err.Error(),
		})
		return
	}

	var parseErr scraper.ParseError
	var statusErr scraper.StatusError
	if errors.As(err, &parseErr) || errors.As(err, &statusErr) {
		writeJSON(w, http.StatusBadGateway, errorBody{
			Error:   "Portal Integration Error",
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorBody{
		Error:   "Portal Integration Error",
		Message: err.Error(),
	})
}

package eatap

import (
	"net/http"
	"time"
	"unicode/utf8"

	scraper "eatap-backend/lib/scrapers/eatap"

	"github.com/go-chi/chi/v5"
)

type applicationListResponse struct {
	Success      bool                  `json:"success"`
	Count        int                   `json:"count"`
	Filters      applicationFilters    `json:"filters"`
	Applications []scraper.Application `json:"applications"`
}

type applicationFilters struct {
	Keyword string `json:"keyword,omitempty"`
	CA      string `json:"ca,omitempty"`
	Status  string `json:"status,omitempty"`
}

func (s Service) listApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	query := scraper.ApplicationQuery{
		Keyword: r.URL.Query().Get("keyword"),
		CA:      r.URL.Query().Get("ca"),
		Status:  r.URL.Query().Get("status"),
	}

	client, err := s.newClient(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	applications, err := client.ListApplications(ctx, query)
	s.record(ctx, "list_applications", "/applications", start, err)
	if err != nil {
		writeError(w, err)
		return
	}
	if applications == nil {
		applications = []scraper.Application{}
	}

	writeJSON(w, http.StatusOK, applicationListResponse{
		Success: true,
		Count:   len(applications),
		Filters: applicationFilters{
			Keyword: query.Keyword,
			CA:      query.CA,
			Status:  query.Status,
		},
		Applications: applications,
	})
}

type applicationDetailResponse struct {
	Success       bool   `json:"success"`
	ApplicationId string `json:"application_id"`
	Url           string `json:"url"`
	scraper.ApplicationDetail
}

func (s Service) getApplicationDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	applicationId := chi.URLParam(r, "applicationId")

	client, err := s.newClient(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := client.GetApplicationDetail(ctx, applicationId)
	s.record(ctx, "get_application_detail", applicationId, start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, applicationDetailResponse{
		Success:           true,
		ApplicationId:     applicationId,
		Url:               "/applications/" + applicationId + "/applicant",
		ApplicationDetail: detail,
	})
}

const rawPreviewLength = 2000

func (s Service) getApplicationRaw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	applicationId := chi.URLParam(r, "applicationId")

	client, err := s.newClient(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	html, err := client.GetApplicationRaw(ctx, applicationId)
	s.record(ctx, "get_application_raw", applicationId, start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	preview := html
	if len(preview) > rawPreviewLength {
		cut := rawPreviewLength
		// never split a multi-byte character, the preview has to stay
		// valid utf-8 through the json encoder
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"application_id": applicationId,
		"html_length":    len(html),
		"html_preview":   preview,
	})
}

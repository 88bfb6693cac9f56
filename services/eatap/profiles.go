package eatap

import (
	"fmt"
	"net/http"
	"time"

	scraper "eatap-backend/lib/scrapers/eatap"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func (s Service) listProfiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	client, err := s.newClient(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	profiles, err := client.ListProfiles(ctx)
	s.record(ctx, "list_profiles", "/profiles", start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}

// searchProfiles resolves a profile by name. Exact mode (the default)
// insists on a single case-insensitive match and refuses to guess when
// several distinct records share the name; fuzzy mode ranks the whole
// listing by similarity and leaves the choice to the caller.
func (s Service) searchProfiles(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "searchProfiles")
	defer span.End()
	start := time.Now()

	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "Bad Request",
			Message: "the `name` query parameter is required",
		})
		return
	}
	exact := r.URL.Query().Get("exact") != "false"
	span.SetAttributes(attribute.String("name", name), attribute.Bool("exact", exact))

	client, err := s.newClient(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	profiles, err := client.ListProfiles(ctx)
	s.record(ctx, "search_profiles", "/profiles", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list profiles")
		writeError(w, err)
		return
	}

	if !exact {
		writeJSON(w, http.StatusOK, scraper.RankProfilesByName(name, profiles))
		return
	}

	matches := scraper.FilterProfilesByName(name, profiles)
	switch len(matches) {
	case 0:
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:   "Not Found",
			Message: fmt.Sprintf("profile with name %q not found", name),
		})
	case 1:
		writeJSON(w, http.StatusOK, map[string]string{
			"id":                  matches[0].Id,
			"type":                matches[0].Kind,
			"name":                matches[0].Name,
			"registration_number": matches[0].RegistrationNumber,
		})
	default:
		span.AddEvent("ambiguous match")
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "Ambiguous match",
			"message": fmt.Sprintf("found %d profiles with the name %q, human check required", len(matches), name),
			"matches": matches,
		})
	}
}

func (s Service) getProfileDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	profileId := chi.URLParam(r, "profileId")

	client, err := s.newClient(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	fields, err := client.ProfileDetail(ctx, profileId)
	s.record(ctx, "get_profile_detail", profileId, start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fields)
}

func (s Service) createProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var fields scraper.FormFields
	err := readFormFields(r, &fields)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "Bad Request",
			Message: err.Error(),
		})
		return
	}

	client, err := s.newClient(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	outcome, err := client.CreateProfile(ctx, fields)
	s.record(ctx, "create_profile", "/profiles/individuals", start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	if !outcome.OK {
		writeJSON(w, http.StatusBadRequest, outcome)
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}

func (s Service) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	profileId := chi.URLParam(r, "profileId")

	var fields scraper.FormFields
	err := readFormFields(r, &fields)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "Bad Request",
			Message: err.Error(),
		})
		return
	}

	client, err := s.newClient(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	outcome, err := client.UpdateProfile(ctx, profileId, fields)
	s.record(ctx, "update_profile", profileId, start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	if !outcome.OK {
		writeJSON(w, http.StatusBadRequest, outcome)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

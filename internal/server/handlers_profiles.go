package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/profile-scraper/internal/db"
	"github.com/jonathan/profile-scraper/internal/platform"
	"github.com/jonathan/profile-scraper/internal/schemas"
	"github.com/jonathan/profile-scraper/internal/types"
)

const maxProfileBytes = 1 << 20

// ListProfilesResponse is the result of GET /profiles.
type ListProfilesResponse struct {
	Profiles []db.ProfileRecord `json:"profiles"`
	Count    int                `json:"count"`
}

// handleCreateProfile stores a profile posted by the browser extension after checking
// it against the profile schema.
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProfileBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("profile exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := schemas.ValidateProfile(body); err != nil {
		var schemaErr *schemas.ValidationError
		if errors.As(err, &schemaErr) {
			s.jsonResponse(w, http.StatusBadRequest, map[string]any{
				"error":  "profile does not match schema",
				"fields": schemaErr.Errors,
			})
			return
		}
		s.fail(w, err)
		return
	}

	var p types.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	normalizeSubmitted(&p, s.now())

	rec, err := s.store.UpsertProfile(r.Context(), &p)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, rec)
}

// normalizeSubmitted fills derived fields the extension may leave out.
func normalizeSubmitted(p *types.Profile, now time.Time) {
	if p.FirstName == "" {
		p.FullName, p.FirstName, p.LastName = types.SplitName(p.FullName)
	}
	p.ProfileURL = platform.NormalizeProfileURL(p.ProfileURL)
	if p.ExtractedAt.IsZero() {
		p.ExtractedAt = now.UTC()
	}
	if p.Experience == nil {
		p.Experience = []types.ExperienceEntry{}
	}
	if p.Education == nil {
		p.Education = []types.EducationEntry{}
	}
}

// handleListProfiles lists stored profiles, optionally filtered by company and source.
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := db.ProfileFilters{
		Company: q.Get("company"),
		Source:  types.Source(q.Get("source")),
	}

	var err error
	if filters.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		s.fail(w, err)
		return
	}
	if filters.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		s.fail(w, err)
		return
	}

	records, err := s.store.ListProfiles(r.Context(), filters)
	if err != nil {
		s.fail(w, err)
		return
	}
	if records == nil {
		records = []db.ProfileRecord{}
	}
	s.jsonResponse(w, http.StatusOK, ListProfilesResponse{Profiles: records, Count: len(records)})
}

// handleGetProfile looks a profile up by ?key= or, for convenience, ?url=.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	rec, err := s.store.GetProfileByKey(r.Context(), key)
	if err != nil {
		s.fail(w, err)
		return
	}
	if rec == nil {
		s.fail(w, &ErrProfileNotFound{Key: key})
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.store.DeleteProfile(r.Context(), key); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func keyParam(r *http.Request) (string, error) {
	q := r.URL.Query()
	if key := q.Get("key"); key != "" {
		return key, nil
	}
	if u := q.Get("url"); u != "" {
		return platform.NormalizeProfileURL(u), nil
	}
	return "", &ErrValidation{Field: "key", Message: "key or url query parameter is required"}
}

func intParam(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &ErrValidation{Field: field, Message: "must be a non-negative integer"}
	}
	return n, nil
}

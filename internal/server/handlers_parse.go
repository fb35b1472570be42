package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jonathan/profile-scraper/internal/db"
	"github.com/jonathan/profile-scraper/internal/ingestion"
	"github.com/jonathan/profile-scraper/internal/types"
)

const maxUploadBytes = 20 << 20

// ParseResponse is the result of POST /parse.
type ParseResponse struct {
	Status  types.ItemStatus  `json:"status"`
	Icon    string            `json:"icon"`
	Pages   int               `json:"pages"`
	Hash    string            `json:"hash"`
	Profile *types.Profile    `json:"profile"`
	Record  *db.ProfileRecord `json:"record,omitempty"`
}

// handleParse extracts a profile from an uploaded export (multipart field "file") and
// stores it unless persist=false.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.fail(w, &ErrValidation{Field: "file", Message: "a PDF upload is required"})
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		s.fail(w, &ErrValidation{Field: "file", Message: "only .pdf uploads are accepted"})
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}

	res := ingestion.ParseBytes(raw, name, s.parseOpts...)
	if res.Err != nil {
		s.fail(w, res.Err)
		return
	}
	if res.Profile == nil {
		s.fail(w, &ErrNotRecognized{Filename: name})
		return
	}

	resp := ParseResponse{
		Status:  res.Status(),
		Icon:    res.Status().Icon(),
		Pages:   res.Metadata.Pages,
		Hash:    res.Metadata.Hash,
		Profile: res.Profile,
	}
	if r.URL.Query().Get("persist") != "false" {
		rec, err := s.store.UpsertProfile(r.Context(), res.Profile)
		if err != nil {
			s.fail(w, err)
			return
		}
		resp.Record = rec
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

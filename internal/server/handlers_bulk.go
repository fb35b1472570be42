package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/profile-scraper/internal/bulk"
)

// BulkStartRequest is the body of POST /bulk/start. An empty body starts a run with
// defaults.
type BulkStartRequest struct {
	AutoScroll   bool `json:"auto_scroll"`
	MaxProfiles  int  `json:"max_profiles" validate:"gte=0,lte=1000"`
	OpenProfiles bool `json:"open_profiles"`
}

// BulkStatusResponse reports the controller state. Finished is set once the last run
// has ended.
type BulkStatusResponse struct {
	State    bulk.State `json:"state"`
	Running  bool       `json:"running"`
	Finished bool       `json:"finished"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest converts the first validator failure to *ErrValidation.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := "failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		return &ErrValidation{Field: fe.Field(), Message: msg}
	}
	return &ErrValidation{Field: "(body)", Message: err.Error()}
}

// handleBulkStart launches a traversal in the background and returns immediately.
// Progress is delivered on GET /bulk/events.
func (s *Server) handleBulkStart(w http.ResponseWriter, r *http.Request) {
	if s.bulk == nil {
		s.fail(w, ErrBulkUnavailable)
		return
	}

	var req BulkStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validateRequest(req); err != nil {
		s.fail(w, err)
		return
	}
	cfg := bulk.Config{
		AutoScroll:   req.AutoScroll,
		MaxProfiles:  req.MaxProfiles,
		OpenProfiles: req.OpenProfiles,
	}

	s.runMu.Lock()
	if s.running || s.bulk.Running() {
		s.runMu.Unlock()
		s.fail(w, bulk.ErrAlreadyRunning)
		return
	}
	s.running = true
	s.runMu.Unlock()

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer func() {
			s.runMu.Lock()
			s.running = false
			s.runMu.Unlock()
		}()

		res, err := s.bulk.Start(s.baseCtx, cfg)
		if res == nil && err != nil {
			// Rejected before the run began, so no event reached subscribers yet.
			s.events.Emitter().Error(err.Error())
			s.logger.Warn().Err(err).Msg("bulk start rejected")
			return
		}
		s.logger.Info().
			Str("state", string(res.State)).
			Int("succeeded", res.Succeeded).
			Int("failed", res.Failed).
			Int("total", res.Total).
			Msg("bulk run finished")
	}()

	s.jsonResponse(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// handleBulkStop requests a stop at the next item boundary.
func (s *Server) handleBulkStop(w http.ResponseWriter, _ *http.Request) {
	if s.bulk == nil {
		s.fail(w, ErrBulkUnavailable)
		return
	}
	if !s.bulk.Stop() {
		s.fail(w, ErrNoActiveRun)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]string{"status": "stopping"})
}

func (s *Server) handleBulkStatus(w http.ResponseWriter, _ *http.Request) {
	if s.bulk == nil {
		s.fail(w, ErrBulkUnavailable)
		return
	}
	state := s.bulk.State()
	s.jsonResponse(w, http.StatusOK, BulkStatusResponse{
		State:    state,
		Running:  s.bulk.Running(),
		Finished: state.Terminal(),
	})
}

// handleBulkEvents streams controller events until a run ends or the client leaves.
func (s *Server) handleBulkEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		s.fail(w, ErrBulkUnavailable)
		return
	}

	events, unsubscribe := s.events.Subscribe(64)
	defer unsubscribe()

	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Debug().Err(err).Msg("could not clear write deadline")
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := sse.WriteEvent(string(e.Type), e); err != nil {
				return
			}
			if isFinal(e.Type) {
				return
			}
		}
	}
}

// isFinal reports whether an event ends a run.
func isFinal(t bulk.EventType) bool {
	switch t {
	case bulk.EventComplete, bulk.EventError, bulk.EventStopped:
		return true
	default:
		return false
	}
}

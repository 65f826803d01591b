package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"trip_planner/internal/domain"
)

const maxBodyBytes = 64 << 10

// TripPlanner is the slice of the planner the handlers need.
type TripPlanner interface {
	PlanTrip(ctx context.Context, req domain.TripRequest, opts domain.Options) (*domain.TripSummary, error)
}

type Handlers struct {
	Planner  TripPlanner
	Defaults domain.Options
}

type problem struct {
	Type        string              `json:"type"`
	Title       string              `json:"title"`
	Status      int                 `json:"status"`
	Detail      string              `json:"detail,omitempty"`
	PlanID      string              `json:"plan_id,omitempty"`
	Stage       domain.Stage        `json:"stage,omitempty"`
	Kind        domain.ErrorKind    `json:"kind,omitempty"`
	Diagnostics []domain.Diagnostic `json:"diagnostics,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/plans", h.createPlan)
}

func writeProblem(w http.ResponseWriter, p problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// failureProblem maps a planning failure onto an HTTP problem.
func failureProblem(err error) problem {
	var pf *domain.PlanningFailure
	if !errors.As(err, &pf) {
		return problem{Title: "Internal Error", Status: http.StatusInternalServerError, Detail: err.Error(), Kind: domain.KindOf(err)}
	}
	p := problem{Detail: pf.Error(), PlanID: pf.PlanID, Stage: pf.Stage, Kind: pf.Kind, Diagnostics: pf.Diagnostics}
	switch pf.Kind {
	case domain.KindInvalidRequest:
		p.Title, p.Status = "Invalid Request", http.StatusBadRequest
	case domain.KindDataUnavailable:
		p.Title, p.Status = "Upstream Data Unavailable", http.StatusBadGateway
	default:
		p.Title, p.Status = "Planning Failed", http.StatusInternalServerError
	}
	return p
}

func (h *Handlers) createPlan(w http.ResponseWriter, r *http.Request) {
	var dto planRequestDTO
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dto); err != nil {
		writeProblem(w, problem{Title: "Invalid JSON", Status: http.StatusBadRequest, Detail: err.Error(), Kind: domain.KindInvalidRequest})
		return
	}

	req, opts, err := dto.toDomain(h.Defaults)
	if err != nil {
		writeProblem(w, problem{Title: "Invalid Request", Status: http.StatusBadRequest, Detail: err.Error(), Stage: domain.StageRequest, Kind: domain.KindInvalidRequest})
		return
	}

	summary, err := h.Planner.PlanTrip(r.Context(), req, opts)
	if err != nil {
		p := failureProblem(err)
		if p.Status >= 500 {
			log.Error().Err(err).Str("plan_id", p.PlanID).Msg("plan request failed")
		}
		writeProblem(w, p)
		return
	}

	etag, body := calcETagAndBody(summary)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/v1/plans/"+summary.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write plan body")
	}
}

// Package httpapi exposes the review service over a JSON HTTP surface.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Angad-23/paper-checker/internal/platform/errors"
	"github.com/Angad-23/paper-checker/internal/services/review/domain"
	"github.com/Angad-23/paper-checker/internal/services/review/feed"
)

// Handler serves the review HTTP API.
type Handler struct {
	service *domain.Service
	broker  *feed.Broker
	auth    *TokenAuthenticator
	tracer  trace.Tracer
}

// NewHandler wires the HTTP surface around the review service.
func NewHandler(service *domain.Service, broker *feed.Broker, auth *TokenAuthenticator) *Handler {
	return &Handler{
		service: service,
		broker:  broker,
		auth:    auth,
		tracer:  otel.Tracer("review-http"),
	}
}

// RegisterRoutes attaches every API route to mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/submissions", h.handleCreateSubmission)
	mux.HandleFunc("GET /v1/submissions", h.handleListSubmissions)
	mux.HandleFunc("GET /v1/submissions/{id}", h.handleGetSubmission)
	mux.HandleFunc("POST /v1/submissions/{id}/claim", h.handleClaim)
	mux.HandleFunc("POST /v1/submissions/{id}/decline", h.handleDecline)
	mux.HandleFunc("POST /v1/submissions/{id}/finalize", h.handleFinalize)
	mux.HandleFunc("GET /v1/submissions/{id}/artifacts/{kind}", h.handleGetArtifact)
	mux.HandleFunc("GET /v1/inbox", h.handleListInbox)
	mux.HandleFunc("POST /v1/notifications/{id}/read", h.handleMarkNotificationRead)
	mux.HandleFunc("GET /v1/feed", h.handleFeed)
}

type submissionResponse struct {
	ID               string    `json:"id"`
	RequesterID      string    `json:"requester_id"`
	ReviewerID       string    `json:"reviewer_id,omitempty"`
	Title            string    `json:"title"`
	State            string    `json:"state"`
	OriginalLocator  string    `json:"original_locator"`
	ReferenceLocator string    `json:"reference_locator,omitempty"`
	CheckedLocator   string    `json:"checked_locator,omitempty"`
	Score            *int      `json:"score,omitempty"`
	Grade            string    `json:"grade,omitempty"`
	Feedback         string    `json:"feedback,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toSubmissionResponse(s domain.Submission) submissionResponse {
	return submissionResponse{
		ID:               s.ID,
		RequesterID:      s.RequesterID,
		ReviewerID:       s.ReviewerID,
		Title:            s.Title,
		State:            string(s.State),
		OriginalLocator:  s.OriginalLocator,
		ReferenceLocator: s.ReferenceLocator,
		CheckedLocator:   s.CheckedLocator,
		Score:            s.Score,
		Grade:            s.Grade,
		Feedback:         s.Feedback,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

type notificationResponse struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	Message      string    `json:"message"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}

func toNotificationResponse(n domain.Notification) notificationResponse {
	return notificationResponse{
		ID:           n.ID,
		SubmissionID: n.SubmissionID,
		Message:      n.Message,
		Read:         n.Read,
		CreatedAt:    n.CreatedAt,
	}
}

type createSubmissionRequest struct {
	Title     string `json:"title"`
	Original  []byte `json:"original"`
	Reference []byte `json:"reference,omitempty"`
}

func (h *Handler) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateSubmission")
	defer span.End()

	actor, err := h.auth.ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var request createSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, errors.Wrap(errors.CodeRequestMalformed, "decode request body", err))
		return
	}

	created, err := h.service.CreateSubmission(ctx, actor, domain.CreateSubmissionInput{
		Title:     request.Title,
		Original:  request.Original,
		Reference: request.Reference,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubmissionResponse(created))
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListSubmissions")
	defer span.End()

	actor, err := h.auth.ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	submissions, err := h.service.ListVisibleSubmissions(ctx, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]submissionResponse, 0, len(submissions))
	for _, s := range submissions {
		responses = append(responses, toSubmissionResponse(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": responses})
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetSubmission")
	defer span.End()

	actor, err := h.auth.ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	submission, err := h.service.GetSubmission(ctx, actor, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(submission))
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ClaimSubmission")
	defer span.End()

	actor, err := h.auth.ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	claimed, err := h.service.Claim(ctx, actor, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(claimed))
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeclineSubmission")
	defer span.End()

	actor, err := h.auth.ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	declined, err := h.service.Decline(ctx, actor, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(declined))
}

type finalizeRequest struct {
	Checked  []byte `json:"checked"`
	Score    int    `json:"score"`
	Grade    string `json:"grade"`
	Feedback string `json:"feedback,omitempty"`
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "FinalizeSubmission")
	defer span.End()

	actor, err := h.auth.ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var request finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, errors.Wrap(errors.CodeRequestMalformed, "decode request body", err))
		return
	}

	finalized, err := h.service.Finalize(ctx, actor, domain.FinalizeInput{
		SubmissionID: r.PathValue("id"),
		Checked:      request.Checked,
		Score:        request.Score,
		Grade:        request.Grade,
		Feedback:     request.Feedback,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(finalized))
}

func (h *Handler) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetArtifact")
	defer span.End()

	actor, err := h.auth.ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := h.service.GetArtifact(ctx, actor, r.PathValue("id"), domain.ArtifactKind(r.PathValue("kind")))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("http: write artifact response: %v", err)
	}
}

func (h *Handler) handleListInbox(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListInbox")
	defer span.End()

	actor, err := h.auth.ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	pageSize := 0
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		pageSize, _ = strconv.Atoi(raw)
	}
	page, err := h.service.ListInbox(ctx, actor, domain.ListInboxInput{
		PageSize:  pageSize,
		PageToken: r.URL.Query().Get("page_token"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]notificationResponse, 0, len(page.Notifications))
	for _, n := range page.Notifications {
		responses = append(responses, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications":   responses,
		"next_page_token": page.NextPageToken,
		"unread_count":    page.UnreadCount,
	})
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MarkNotificationRead")
	defer span.End()

	actor, err := h.auth.ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.MarkNotificationRead(ctx, actor, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationResponse(updated))
}

// handleFeed streams entity-change events as server-sent events until the
// client disconnects. An optional kind query parameter limits the stream to
// one entity kind.
func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Feed")
	defer span.End()

	if _, err := h.auth.ActorFromRequest(r); err != nil {
		writeError(w, err)
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind != "" && kind != domain.EntityKindSubmission && kind != domain.EntityKindNotification {
		writeError(w, errors.New(errors.CodeNotFound, "unknown feed entity kind"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errors.New(errors.CodeUnknown, "streaming is not supported"))
		return
	}

	events, cancel := h.broker.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			if kind != "" && event.EntityKind != kind {
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				log.Printf("http: marshal feed event: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %d\ndata: %s\n\n", event.Seq, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	body := errorBody{
		Code:     string(code),
		Message:  err.Error(),
		Metadata: errors.GetMetadata(err),
	}
	writeJSON(w, code.HTTPStatus(), map[string]errorBody{"error": body})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

package httpapi

import (
	"net/http"
	"strings"
	"time"

	"propdesk.org/internal/auth"
	"propdesk.org/internal/crm"
)

// Meetings -------------------------------------------------------------------

type meetingRequest struct {
	Datetime     time.Time `json:"datetime"`
	DealID       *string   `json:"deal_id"`
	TeamMemberID *string   `json:"team_member_id"`
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Location     *string   `json:"location"`
}

type updateMeetingRequest struct {
	Datetime    *time.Time `json:"datetime"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	DealID      *string    `json:"deal_id"`
}

type meetingNoteRequest struct {
	Content      string  `json:"content"`
	TeamMemberID *string `json:"team_member_id"`
}

func (a *API) handleMeetings(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		filter := crm.MeetingFilter{
			DealID: strings.TrimSpace(r.URL.Query().Get("deal_id")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("after")); raw != "" {
			after, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "after must be an RFC 3339 timestamp")
				return
			}
			filter.After = &after
		}
		meetings, err := a.crm.ListMeetings(r.Context(), principal, filter)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"meetings": meetings})
	case http.MethodPost:
		var req meetingRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		meeting, err := a.crm.CreateMeeting(r.Context(), principal, crm.NewMeeting{
			Datetime:     req.Datetime,
			DealID:       req.DealID,
			TeamMemberID: req.TeamMemberID,
			Title:        req.Title,
			Description:  req.Description,
			Location:     req.Location,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/meetings/"+meeting.ID)
		writeJSON(w, http.StatusCreated, meeting)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleMeetingResource routes /v1/meetings/{id} and /v1/meetings/{id}/notes.
func (a *API) handleMeetingResource(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/meetings/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	id := parts[0]

	if len(parts) == 2 && parts[1] == "notes" {
		a.handleMeetingNotes(w, r, principal, id)
		return
	}
	if len(parts) != 1 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		meeting, err := a.crm.GetMeeting(r.Context(), principal, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, meeting)
	case http.MethodPut:
		var req updateMeetingRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		meeting, err := a.crm.UpdateMeeting(r.Context(), principal, id, crm.MeetingUpdate{
			Datetime:    req.Datetime,
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			DealID:      req.DealID,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, meeting)
	case http.MethodDelete:
		if err := a.crm.DeleteMeeting(r.Context(), principal, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleMeetingNotes(w http.ResponseWriter, r *http.Request, principal auth.Principal, meetingID string) {
	switch r.Method {
	case http.MethodGet:
		notes, err := a.crm.ListMeetingNotes(r.Context(), principal, meetingID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
	case http.MethodPost:
		var req meetingNoteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		note, err := a.crm.AddMeetingNote(r.Context(), principal, meetingID, req.Content, req.TeamMemberID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, note)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// Documents ------------------------------------------------------------------

type documentRequest struct {
	Name       string  `json:"name"`
	URL        string  `json:"url"`
	PropertyID *string `json:"property_id"`
	DealID     *string `json:"deal_id"`
	UploadedBy *string `json:"uploaded_by"` // team member id
}

func (a *API) handleDocuments(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		filter := crm.DocumentFilter{
			PropertyID: strings.TrimSpace(r.URL.Query().Get("property_id")),
			DealID:     strings.TrimSpace(r.URL.Query().Get("deal_id")),
		}
		documents, err := a.crm.ListDocuments(r.Context(), principal, filter)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": documents})
	case http.MethodPost:
		var req documentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		doc, err := a.crm.CreateDocument(r.Context(), principal, crm.NewDocument{
			Name:       req.Name,
			URL:        req.URL,
			PropertyID: req.PropertyID,
			DealID:     req.DealID,
			UploadedBy: req.UploadedBy,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/documents/"+doc.ID)
		writeJSON(w, http.StatusCreated, doc)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleDocumentResource(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := resourceID(r, "/v1/documents/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		doc, err := a.crm.GetDocument(r.Context(), principal, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := a.crm.DeleteDocument(r.Context(), principal, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

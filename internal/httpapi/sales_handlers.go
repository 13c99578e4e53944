package httpapi

import (
	"net/http"
	"strings"
	"time"

	"propdesk.org/internal/crm"
)

// Deals ----------------------------------------------------------------------

type dealRequest struct {
	Name       string   `json:"name"`
	PropertyID *string  `json:"property_id"`
	AssignedTo *string  `json:"assigned_to"`
	Status     string   `json:"status"`
	Value      *float64 `json:"value"`
}

type updateDealRequest struct {
	Name       *string  `json:"name"`
	PropertyID *string  `json:"property_id"`
	AssignedTo *string  `json:"assigned_to"`
	Status     *string  `json:"status"`
	Value      *float64 `json:"value"`
}

func (a *API) handleDeals(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		filter := crm.DealFilter{
			PropertyID: strings.TrimSpace(r.URL.Query().Get("property_id")),
			AssignedTo: strings.TrimSpace(r.URL.Query().Get("assigned_to")),
			Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		}
		deals, err := a.crm.ListDeals(r.Context(), principal, filter)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deals": deals})
	case http.MethodPost:
		var req dealRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		deal, err := a.crm.CreateDeal(r.Context(), principal, crm.NewDeal{
			Name:       req.Name,
			PropertyID: req.PropertyID,
			AssignedTo: req.AssignedTo,
			Status:     req.Status,
			Value:      req.Value,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/deals/"+deal.ID)
		writeJSON(w, http.StatusCreated, deal)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleDealResource(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := resourceID(r, "/v1/deals/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		deal, err := a.crm.GetDeal(r.Context(), principal, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, deal)
	case http.MethodPut:
		var req updateDealRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		deal, err := a.crm.UpdateDeal(r.Context(), principal, id, crm.DealUpdate{
			Name:       req.Name,
			PropertyID: req.PropertyID,
			AssignedTo: req.AssignedTo,
			Status:     req.Status,
			Value:      req.Value,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, deal)
	case http.MethodDelete:
		if err := a.crm.DeleteDeal(r.Context(), principal, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// Team members ---------------------------------------------------------------

type teamMemberRequest struct {
	Name   string  `json:"team_member_name"`
	Email  string  `json:"team_member_email_id"`
	UserID *string `json:"user_id"`
}

type updateTeamMemberRequest struct {
	Name  *string `json:"team_member_name"`
	Email *string `json:"team_member_email_id"`
}

func (a *API) handleTeamMembers(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		members, err := a.crm.ListTeamMembers(r.Context(), principal)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"teamMembers": members})
	case http.MethodPost:
		var req teamMemberRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		member, err := a.crm.CreateTeamMember(r.Context(), principal, crm.NewTeamMember{
			Name:   req.Name,
			Email:  req.Email,
			UserID: req.UserID,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/team-members/"+member.ID)
		writeJSON(w, http.StatusCreated, member)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTeamMemberResource(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := resourceID(r, "/v1/team-members/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		member, err := a.crm.GetTeamMember(r.Context(), principal, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, member)
	case http.MethodPut:
		var req updateTeamMemberRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		member, err := a.crm.UpdateTeamMember(r.Context(), principal, id, crm.TeamMemberUpdate{
			Name:  req.Name,
			Email: req.Email,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, member)
	case http.MethodDelete:
		if err := a.crm.DeleteTeamMember(r.Context(), principal, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// Tasks ----------------------------------------------------------------------

type taskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      string     `json:"status"`
	AssignedTo  *string    `json:"assigned_to"`
	DealID      *string    `json:"deal_id"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      *string    `json:"status"`
	AssignedTo  *string    `json:"assigned_to"`
	DealID      *string    `json:"deal_id"`
}

func (a *API) handleTasks(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		filter := crm.TaskFilter{
			Status:     strings.TrimSpace(r.URL.Query().Get("status")),
			AssignedTo: strings.TrimSpace(r.URL.Query().Get("assigned_to")),
			DealID:     strings.TrimSpace(r.URL.Query().Get("deal_id")),
		}
		tasks, err := a.crm.ListTasks(r.Context(), principal, filter)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
	case http.MethodPost:
		var req taskRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		task, err := a.crm.CreateTask(r.Context(), principal, crm.NewTask{
			Title:       req.Title,
			Description: req.Description,
			DueDate:     req.DueDate,
			Status:      req.Status,
			AssignedTo:  req.AssignedTo,
			DealID:      req.DealID,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/tasks/"+task.ID)
		writeJSON(w, http.StatusCreated, task)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTaskResource(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := resourceID(r, "/v1/tasks/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		task, err := a.crm.GetTask(r.Context(), principal, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodPut:
		var req updateTaskRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		task, err := a.crm.UpdateTask(r.Context(), principal, id, crm.TaskUpdate{
			Title:       req.Title,
			Description: req.Description,
			DueDate:     req.DueDate,
			Status:      req.Status,
			AssignedTo:  req.AssignedTo,
			DealID:      req.DealID,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodDelete:
		if err := a.crm.DeleteTask(r.Context(), principal, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

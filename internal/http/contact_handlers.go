package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ybilyk/contactbook/internal/domain"
	"github.com/ybilyk/contactbook/internal/service/contact"
)

func (r *Router) handleContacts(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for contacts", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	switch req.Method {
	case http.MethodGet:
		contacts, err := r.contacts.List(req.Context(), info.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if contacts == nil {
			contacts = []domain.Contact{}
		}
		writeJSON(w, http.StatusOK, marshalContacts(contacts))
	case http.MethodPost:
		var payload contact.Input
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := r.contacts.Create(req.Context(), info.UserID, payload)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, marshalContact(*created))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleContactSubroutes(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for contact subroute", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	trimmed := strings.TrimPrefix(req.URL.Path, "/api/contacts/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		r.notFound(w)
		return
	}
	contactID := parts[0]
	if len(parts) == 2 && parts[1] == "favorite" {
		r.handleContactFavorite(w, req, info.UserID, contactID)
		return
	}
	if len(parts) != 1 {
		r.notFound(w)
		return
	}

	switch req.Method {
	case http.MethodGet:
		found, err := r.contacts.Get(req.Context(), info.UserID, contactID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, marshalContact(*found))
	case http.MethodPut:
		var payload contact.Input
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := r.contacts.Update(req.Context(), info.UserID, contactID, payload)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, marshalContact(*updated))
	case http.MethodDelete:
		if err := r.contacts.Delete(req.Context(), info.UserID, contactID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "contact deleted"})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleContactFavorite(w http.ResponseWriter, req *http.Request, ownerID, contactID string) {
	if req.Method != http.MethodPatch {
		r.methodNotAllowed(w)
		return
	}
	var payload contact.FavoriteInput
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	updated, err := r.contacts.UpdateFavorite(req.Context(), ownerID, contactID, payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, marshalContact(*updated))
}

func marshalContact(c domain.Contact) map[string]any {
	return map[string]any{
		"id":       c.ID,
		"name":     c.Name,
		"email":    c.Email,
		"phone":    c.Phone,
		"favorite": c.Favorite,
	}
}

func marshalContacts(contacts []domain.Contact) []map[string]any {
	out := make([]map[string]any, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, marshalContact(c))
	}
	return out
}

package handlers

import "net/http"

// RosterEntry represents an identity in the roster response.
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// RosterResponse represents the roster response.
type RosterResponse struct {
	Identities []RosterEntry `json:"identities"`
}

// Roster handles the identity roster used by the "message this person"
// picker. Purely a convenience view over the external identity
// catalog, not authoritative.
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	roster := h.svc.Roster()

	entries := make([]RosterEntry, len(roster))
	for i, ident := range roster {
		entries[i] = RosterEntry{ID: ident.ID, Name: ident.Name, Role: ident.Role}
	}

	h.JSON(w, http.StatusOK, RosterResponse{Identities: entries})
}

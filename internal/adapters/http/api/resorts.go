// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/slopetrace/slopetrace/pkg/logger"
)

// ResortsHandler serves the per-resort unique skier count.
type ResortsHandler struct {
	reader Reader
	log    logger.Logger
}

// NewResortsHandler creates a new resorts handler.
func NewResortsHandler(reader Reader) *ResortsHandler {
	return &ResortsHandler{
		reader: reader,
		log:    logger.Named("api.resorts"),
	}
}

// HandleResortSkiers handles
// GET /resorts/{resortID}/seasons/{seasonID}/days/{dayID}/skiers.
func (h *ResortsHandler) HandleResortSkiers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")
	if len(parts) != 8 {
		writeMessage(w, http.StatusBadRequest, "Invalid URL length")
		return
	}
	if parts[1] != "resorts" || parts[3] != "seasons" || parts[5] != "days" || parts[7] != "skiers" {
		writeMessage(w, http.StatusBadRequest, "Invalid URL format")
		return
	}

	resortID, err1 := strconv.Atoi(parts[2])
	seasonID, err2 := strconv.Atoi(parts[4])
	dayID, err3 := strconv.Atoi(parts[6])
	if err1 != nil || err2 != nil || err3 != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid URL numeric")
		return
	}

	count, err := h.reader.UniqueSkiers(r.Context(), resortID, seasonID, dayID)
	if err != nil {
		h.log.Error(r.Context(), "unique skiers read failed", logger.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	if count == 0 {
		// An empty set and an absent set are indistinguishable here.
		writeRaw(w, http.StatusOK, notFoundBody)
		return
	}
	writeJSON(w, http.StatusOK, uniqueSkiersResponse{UniqueSkiers: count})
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/slopetrace/slopetrace/internal/adapters/repository"
	"github.com/slopetrace/slopetrace/internal/domain/model"
	"github.com/slopetrace/slopetrace/pkg/logger"
)

// notFoundBody is the literal body the query endpoints return for absent data,
// with a 200 status. Existing clients parse on this exact string.
const notFoundBody = "Data not found"

var seasonPattern = regexp.MustCompile(`^\d{4}$`)

// SkiersHandler serves the /skiers/ subtree: lift ride ingestion plus the
// per-skier vertical queries.
type SkiersHandler struct {
	pub    Publisher
	reader Reader
	log    logger.Logger
}

// NewSkiersHandler creates a new skiers handler.
func NewSkiersHandler(pub Publisher, reader Reader) *SkiersHandler {
	return &SkiersHandler{
		pub:    pub,
		reader: reader,
		log:    logger.Named("api.skiers"),
	}
}

// HandleSkiers dispatches by method and path shape.
//
// POST /skiers/{resortID}/seasons/{seasonID}/days/{dayID}/skiers/{skierID}
// GET  /skiers/{resortID}/seasons/{seasonID}/days/{dayID}/skiers/{skierID}
// GET  /skiers/{skierID}/vertical?resort=R[&season=YYYY]
func (h *SkiersHandler) HandleSkiers(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")

	switch r.Method {
	case http.MethodPost:
		h.handlePostRide(w, r, parts)
	case http.MethodGet:
		switch len(parts) {
		case 9:
			h.handleDayVertical(w, r, parts)
		case 4:
			h.handleTotalVertical(w, r, parts)
		default:
			writeMessage(w, http.StatusBadRequest, "Invalid URL length")
		}
	default:
		http.NotFound(w, r)
	}
}

// ridePath holds the identifiers parsed from the nine-segment ride path.
type ridePath struct {
	resortID int
	seasonID int
	dayID    int
	skierID  int
}

// parseRidePath validates /skiers/{r}/seasons/{s}/days/{d}/skiers/{k}.
// parts carries a leading empty segment from the root slash.
func parseRidePath(parts []string) (ridePath, bool) {
	if len(parts) != 9 {
		return ridePath{}, false
	}
	if parts[1] != "skiers" || parts[3] != "seasons" || parts[5] != "days" || parts[7] != "skiers" {
		return ridePath{}, false
	}

	var p ridePath
	var err error
	if p.resortID, err = strconv.Atoi(parts[2]); err != nil {
		return ridePath{}, false
	}
	if p.seasonID, err = strconv.Atoi(parts[4]); err != nil {
		return ridePath{}, false
	}
	if p.dayID, err = strconv.Atoi(parts[6]); err != nil {
		return ridePath{}, false
	}
	if p.skierID, err = strconv.Atoi(parts[8]); err != nil {
		return ridePath{}, false
	}
	return p, true
}

func (h *SkiersHandler) handlePostRide(w http.ResponseWriter, r *http.Request, parts []string) {
	const op = "api.post_ride"

	p, ok := parseRidePath(parts)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid URL format")
		return
	}

	var payload model.LiftRidePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.log.Debug(r.Context(), "rejecting malformed body",
			logger.Error(WrapKind(op, ErrBadRequest, err)))
		writeMessage(w, http.StatusBadRequest, "Malformed JSON: "+err.Error())
		return
	}
	if err := payload.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid lift ride data")
		return
	}

	event := model.LiftRideEvent{
		ResortID: p.resortID,
		SeasonID: p.seasonID,
		DayID:    p.dayID,
		SkierID:  p.skierID,
		LiftRide: payload.LiftRide(),
	}

	if err := h.pub.Publish(r.Context(), event); err != nil {
		h.log.Error(r.Context(), "publish failed",
			logger.Error(WrapKind(op, ErrPublish, err)),
			logger.Int("skierID", event.SkierID),
		)
		writeMessage(w, http.StatusInternalServerError, "Failed to process lift ride data")
		return
	}

	writeMessage(w, http.StatusCreated, "Lift ride data successfully processed")
}

func (h *SkiersHandler) handleDayVertical(w http.ResponseWriter, r *http.Request, parts []string) {
	p, ok := parseRidePath(parts)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid URL format")
		return
	}

	vertical, err := h.reader.DayVertical(r.Context(), p.resortID, p.seasonID, p.dayID, p.skierID)
	if errors.Is(err, repository.ErrNotFound) {
		writeRaw(w, http.StatusOK, notFoundBody)
		return
	}
	if err != nil {
		h.log.Error(r.Context(), "day vertical read failed", logger.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	writeRaw(w, http.StatusOK, strconv.FormatInt(vertical, 10))
}

func (h *SkiersHandler) handleTotalVertical(w http.ResponseWriter, r *http.Request, parts []string) {
	if parts[1] != "skiers" || parts[3] != "vertical" {
		writeMessage(w, http.StatusBadRequest, "Invalid URL format")
		return
	}

	skierID, err := strconv.Atoi(parts[2])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid skierID: must be a valid integer")
		return
	}

	resort := r.URL.Query().Get("resort")
	season := r.URL.Query().Get("season")

	if resort == "" {
		writeMessage(w, http.StatusBadRequest, "Invalid input: 'resort' is required")
		return
	}
	resortID, err := strconv.Atoi(resort)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid input: 'resort' must be a valid integer")
		return
	}
	if season != "" && !seasonPattern.MatchString(season) {
		writeMessage(w, http.StatusBadRequest, "Invalid season format: must be a 4-digit year")
		return
	}

	total, err := h.reader.TotalVertical(r.Context(), resortID, skierID, season)
	if errors.Is(err, repository.ErrNotFound) {
		writeMessage(w, http.StatusOK, notFoundBody)
		return
	}
	if err != nil {
		h.log.Error(r.Context(), "total vertical read failed", logger.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	resp := totalVerticalResponse{TotalVert: total}
	if season == "" {
		resp.Resort = resort
	} else {
		resp.SeasonID = season
	}
	writeJSON(w, http.StatusOK, resp)
}

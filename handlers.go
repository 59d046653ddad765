package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"mediacatalog/database"
	"mediacatalog/logging"
	"mediacatalog/models"
	"mediacatalog/repository"
	"mediacatalog/validation"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

const (
	maxBodyBytes = 1 << 20

	msgServerError  = "Internal server error"
	msgNotFound     = "Media not found"
	msgInvalidBody  = "Invalid request body"
	msgInvalidDate  = "releaseDate must be a date in YYYY-MM-DD format"
	msgDBConnected  = "Database connection OK"
	msgDBConnFailed = "Database connection failed"
)

// App represents the application with its dependencies
type App struct {
	db        *database.DB
	mediaRepo *repository.MediaRepository
}

// NewApp wires the handlers to an open database.
func NewApp(db *database.DB) *App {
	return &App{
		db:        db,
		mediaRepo: repository.NewMediaRepository(db),
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

type connectionResponse struct {
	Message string `json:"message"`
	Result  int    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Message: message})
}

// respondStoreError maps a repository error to 404 or a generic 500; the
// detail of a 500 only goes to the log.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, msgNotFound)
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Str("action", action).Msg("Store error")
	respondError(w, r, http.StatusInternalServerError, msgServerError)
}

// mediaID reads the {id} path variable. A value that is not an integer cannot
// name a stored record, so callers answer 404 for it.
func mediaID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// decodeMediaInput reads and validates a create/update body. An empty body
// counts as all fields missing. On failure the 400 response is already written.
func decodeMediaInput(w http.ResponseWriter, r *http.Request) (*models.MediaRecord, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}

	var in models.MediaInput
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &in); err != nil {
			respondError(w, r, http.StatusBadRequest, msgInvalidBody)
			return nil, false
		}
	}

	in.Normalize()
	if err := validation.ValidateStruct(&in); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}

	rec, err := in.Record(0)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, msgInvalidDate)
		return nil, false
	}
	return rec, true
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		logging.Error().Err(err).Msg("Failed to write response")
	}
}

func (app *App) testConnectionHandler(w http.ResponseWriter, r *http.Request) {
	result, err := app.db.TestConnection(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Database connection test failed")
		writeJSON(w, r, http.StatusInternalServerError, connectionResponse{
			Message: msgDBConnFailed,
			Error:   err.Error(),
		})
		return
	}
	writeJSON(w, r, http.StatusOK, connectionResponse{Message: msgDBConnected, Result: result})
}

func (app *App) listMediaHandler(w http.ResponseWriter, r *http.Request) {
	records, err := app.mediaRepo.GetAll(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "list")
		return
	}
	writeJSON(w, r, http.StatusOK, records)
}

func (app *App) getMediaHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := mediaID(r)
	if !ok {
		respondError(w, r, http.StatusNotFound, msgNotFound)
		return
	}

	rec, err := app.mediaRepo.GetByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "get")
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

func (app *App) createMediaHandler(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeMediaInput(w, r)
	if !ok {
		return
	}

	if err := app.mediaRepo.Create(r.Context(), rec); err != nil {
		respondStoreError(w, r, err, "create")
		return
	}

	logging.Ctx(r.Context()).Info().Int64("id", rec.ID).Str("title", rec.Title).Msg("Media created")
	writeJSON(w, r, http.StatusCreated, rec)
}

func (app *App) updateMediaHandler(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeMediaInput(w, r)
	if !ok {
		return
	}

	id, ok := mediaID(r)
	if !ok {
		respondError(w, r, http.StatusNotFound, msgNotFound)
		return
	}
	rec.ID = id

	if err := app.mediaRepo.Update(r.Context(), rec); err != nil {
		respondStoreError(w, r, err, "update")
		return
	}

	logging.Ctx(r.Context()).Info().Int64("id", rec.ID).Msg("Media updated")
	writeJSON(w, r, http.StatusOK, rec)
}

func (app *App) deleteMediaHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := mediaID(r)
	if !ok {
		respondError(w, r, http.StatusNotFound, msgNotFound)
		return
	}

	if err := app.mediaRepo.Delete(r.Context(), id); err != nil {
		respondStoreError(w, r, err, "delete")
		return
	}

	logging.Ctx(r.Context()).Info().Int64("id", id).Msg("Media deleted")
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"speech-translation-service/internal/app"
	"speech-translation-service/internal/history"
	"speech-translation-service/internal/models"
	"speech-translation-service/internal/pipeline"
	"speech-translation-service/internal/service/audio"
)

const (
	maxTranslateBody = 1 << 20
	maxHistoryLimit  = 500
	// multipartOverhead covers form boundaries and headers around the file.
	multipartOverhead = 1 << 20
)

type handlers struct {
	app    *app.Application
	logger zerolog.Logger
}

type translateRequest struct {
	Text   string          `json:"text"`
	RoomID json.RawMessage `json:"roomId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type historyResponse struct {
	Translations []models.TranslationRecord `json:"translations"`
}

type deleteResponse struct {
	Deleted int64 `json:"deleted"`
}

func (h *handlers) translate(w http.ResponseWriter, r *http.Request) {
	var body translateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTranslateBody))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	roomID, err := pipeline.ParseRoomID(body.RoomID)
	if err != nil {
		h.writePipelineError(w, r, err, "Error processing translation")
		return
	}

	resp, err := h.app.Pipeline.Translate(r.Context(), pipeline.Request{
		Text:      body.Text,
		RoomID:    roomID,
		UserID:    r.Header.Get(UserIDHeader),
		RequestID: middleware.GetReqID(r.Context()),
		Transport: "http",
	})
	if err != nil {
		h.writePipelineError(w, r, err, "Error processing translation")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) transcribe(w http.ResponseWriter, r *http.Request) {
	maxAudio := h.app.Cfg.STT.MaxAudioBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxAudio+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "audio file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAudio+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid audio upload")
		return
	}

	res, err := h.app.Audio.Transcribe(r.Context(), audio.Chunk{
		Audio:     data,
		Filename:  header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		UserID:    r.Header.Get(UserIDHeader),
		RequestID: middleware.GetReqID(r.Context()),
	})
	if err != nil {
		h.writePipelineError(w, r, err, "Error processing audio")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) userHistory(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.historyReader(w)
	if !ok {
		return
	}
	recs, err := reader.ListByUser(r.Context(), r.Header.Get(UserIDHeader), parseLimit(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("List user history failed")
		writeError(w, http.StatusInternalServerError, "Error loading history")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Translations: nonNil(recs)})
}

func (h *handlers) roomHistory(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.historyReader(w)
	if !ok {
		return
	}
	recs, err := reader.ListByRoom(r.Context(), chi.URLParam(r, "roomID"), parseLimit(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("List room history failed")
		writeError(w, http.StatusInternalServerError, "Error loading history")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Translations: nonNil(recs)})
}

func (h *handlers) deleteRoomHistory(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.historyReader(w)
	if !ok {
		return
	}
	roomID := chi.URLParam(r, "roomID")
	n, err := reader.DeleteRoom(r.Context(), roomID)
	if err != nil {
		h.logger.Error().Err(err).Str("roomId", roomID).Msg("Delete room history failed")
		writeError(w, http.StatusInternalServerError, "Error deleting history")
		return
	}
	h.logger.Info().
		Str("roomId", roomID).
		Str("userId", r.Header.Get(UserIDHeader)).
		Int64("deleted", n).
		Msg("Room history cleared")
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: n})
}

func (h *handlers) roomFeed(w http.ResponseWriter, r *http.Request) {
	h.app.Hub.ServeWS(w, r, chi.URLParam(r, "roomID"))
}

func (h *handlers) historyReader(w http.ResponseWriter) (history.Reader, bool) {
	if h.app.History == nil {
		writeError(w, http.StatusNotImplemented, "History is not available")
		return nil, false
	}
	return h.app.History, true
}

// writePipelineError maps validation errors to 400 and everything else to 500.
func (h *handlers) writePipelineError(w http.ResponseWriter, r *http.Request, err error, prefix string) {
	var verr *pipeline.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	h.logger.Error().
		Err(err).
		Str("requestId", middleware.GetReqID(r.Context())).
		Msg(prefix)
	writeError(w, http.StatusInternalServerError, prefix+": "+err.Error())
}

func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return history.DefaultListLimit
	}
	if n > maxHistoryLimit {
		return maxHistoryLimit
	}
	return n
}

func nonNil(recs []models.TranslationRecord) []models.TranslationRecord {
	if recs == nil {
		return []models.TranslationRecord{}
	}
	return recs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"pitchtutor/services/tutor"

	"github.com/gorilla/mux"
)

const sessionExpiredMessage = "Session Error: your session appears to have expired or was never started. " +
	"Please start a new session."

type StartSessionResponse struct {
	StudentID string `json:"student_id"`
	Message   string `json:"message"`
}

type EndSessionResponse struct {
	Message string `json:"message"`
}

type SessionHandler struct {
	service *tutor.Service
}

func NewSessionHandler(service *tutor.Service) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sessions", h.StartSession).Methods("POST")
	router.HandleFunc("/sessions/{studentID}", h.EndSession).Methods("DELETE")
}

func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received start session request")

	session, welcome := h.service.StartSession()

	writeJSONResponse(w, http.StatusCreated, StartSessionResponse{
		StudentID: session.StudentID,
		Message:   welcome,
	})
}

func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["studentID"]

	message, err := h.service.EndSession(studentID)
	if err != nil {
		if errors.Is(err, tutor.ErrSessionNotFound) {
			writeErrorResponse(w, http.StatusNotFound, sessionExpiredMessage)
			return
		}
		log.Printf("[ERROR] Failed to end session %s: %v", studentID, err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to end session")
		return
	}

	writeJSONResponse(w, http.StatusOK, EndSessionResponse{Message: message})
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

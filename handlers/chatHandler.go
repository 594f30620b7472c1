package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"pitchtutor/services/tutor"

	"github.com/gorilla/mux"
)

const aiServiceErrorMessage = "AI Service Error: there was an issue connecting to the AI service. " +
	"Please try again in a moment."

type ChatRequest struct {
	Content string `json:"content"`
}

type ChatResponse struct {
	StudentID     string   `json:"student_id"`
	Reply         string   `json:"reply"`
	Notifications []string `json:"notifications,omitempty"`
}

type ChatHandler struct {
	service *tutor.Service
}

func NewChatHandler(service *tutor.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sessions/{studentID}/messages", h.PostMessage).Methods("POST")
}

func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["studentID"]

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode chat request JSON: %v", err)
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if req.Content == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Message content is required")
		return
	}

	if r.URL.Query().Get("stream") == "true" {
		h.streamMessage(w, r, studentID, req.Content)
		return
	}

	result, err := h.service.HandleMessage(r.Context(), studentID, req.Content, nil)
	if err != nil {
		h.writeMessageError(w, studentID, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, ChatResponse{
		StudentID:     studentID,
		Reply:         result.Reply,
		Notifications: result.Notifications,
	})
}

// streamMessage forwards generated fragments over SSE as they arrive, then
// emits a final "done" event carrying the assembled result. The displayed
// reply in the done event has the completion marker stripped even though the
// raw fragments may have carried it.
func (h *ChatHandler) streamMessage(w http.ResponseWriter, r *http.Request, studentID, content string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	onFragment := func(fragment string) error {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", fragment); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	result, err := h.service.HandleMessage(r.Context(), studentID, content, onFragment)
	if err != nil {
		message := aiServiceErrorMessage
		if errors.Is(err, tutor.ErrSessionNotFound) {
			message = sessionExpiredMessage
		}
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", message)
		flusher.Flush()
		return
	}

	payload, err := json.Marshal(ChatResponse{
		StudentID:     studentID,
		Reply:         result.Reply,
		Notifications: result.Notifications,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to marshal chat response for student %s: %v", studentID, err)
		return
	}

	fmt.Fprintf(w, "event: done\ndata: %s\n\n", payload)
	flusher.Flush()
}

func (h *ChatHandler) writeMessageError(w http.ResponseWriter, studentID string, err error) {
	if errors.Is(err, tutor.ErrSessionNotFound) {
		writeErrorResponse(w, http.StatusNotFound, sessionExpiredMessage)
		return
	}

	log.Printf("[ERROR] Error in message processing for student %s: %v", studentID, err)
	writeErrorResponse(w, http.StatusBadGateway, aiServiceErrorMessage)
}

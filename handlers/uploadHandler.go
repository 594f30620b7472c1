package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"pitchtutor/services/extract"
	"pitchtutor/services/tutor"

	"github.com/gorilla/mux"
)

const maxUploadBytes = 20 << 20 // 20 MB

const unsupportedFormatMessage = "Couldn't extract text. Please upload a valid .pdf or .docx."

type UploadResponse struct {
	StudentID string `json:"student_id"`
	StepName  string `json:"step_name"`
	Score     *int   `json:"score"`
	Feedback  string `json:"feedback"`
}

type UploadHandler struct {
	service *tutor.Service
}

func NewUploadHandler(service *tutor.Service) *UploadHandler {
	return &UploadHandler{service: service}
}

func (h *UploadHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sessions/{studentID}/pitch", h.UploadPitch).Methods("POST")
}

// UploadPitch accepts a multipart "file" field, extracts its text and routes
// it through the evaluation pipeline.
func (h *UploadHandler) UploadPitch(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["studentID"]

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Printf("[ERROR] Failed to read uploaded file for student %s: %v", studentID, err)
		writeErrorResponse(w, http.StatusBadRequest, "No file was uploaded. Try again with the pitch endpoint.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("[ERROR] Failed to read upload body for student %s: %v", studentID, err)
		writeErrorResponse(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	pitchText, err := extract.Text(header.Filename, data)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			writeErrorResponse(w, http.StatusBadRequest, unsupportedFormatMessage)
			return
		}
		// Extraction failures may carry raw detail to aid manual recovery.
		writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf(
			"Error during pitch extraction: %v. Please record this message and your Student ID: #%s", err, studentID))
		return
	}

	if pitchText == "" {
		writeErrorResponse(w, http.StatusBadRequest, unsupportedFormatMessage)
		return
	}

	evaluation, err := h.service.EvaluatePitch(r.Context(), studentID, pitchText)
	if err != nil {
		if errors.Is(err, tutor.ErrSessionNotFound) {
			writeErrorResponse(w, http.StatusNotFound, sessionExpiredMessage)
			return
		}
		log.Printf("[ERROR] Evaluation error for student %s: %v", studentID, err)
		writeErrorResponse(w, http.StatusBadGateway, aiServiceErrorMessage)
		return
	}

	writeJSONResponse(w, http.StatusOK, UploadResponse{
		StudentID: evaluation.StudentID,
		StepName:  evaluation.StepName,
		Score:     evaluation.Score,
		Feedback:  evaluation.Feedback,
	})
}

package handlers

import (
	"net/http"

	"github.com/Timi2001/AI-Email-Assistant/internal/models"
)

func Tones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"tones": models.Tones})
}

func Samples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"samples": models.SamplePrompts})
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

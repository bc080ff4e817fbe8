package http

import (
	"errors"
	"net/http"
	"strconv"

	"compras/internal/core"
	"compras/internal/feedback"
	"compras/internal/log"
)

type feedbackResult struct {
	Message string
	Entry   core.Feedback
	Panel   *feedbackPanel
}

func (s *Server) feedbackPanel(r *http.Request) *feedbackPanel {
	panel := &feedbackPanel{
		Min:     feedback.MinScore,
		Max:     feedback.MaxScore,
		Default: feedback.DefaultScore,
	}
	stats, err := s.feedback.Stats(r.Context())
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Feedback stats unavailable",
			log.NewFields().WithComponent(log.ComponentFeedback).WithError(err).ToSlice()...)
		return panel
	}
	panel.Stats = stats
	panel.HasStats = stats.Count > 0
	return panel
}

// handleFeedback stores a survey submission sent as a form or as JSON.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.feedback == nil {
		ServiceUnavailableError("La encuesta no está disponible.").Write(w)
		return
	}

	parser := NewRequestBodyParser(r, maxFeedbackBody)
	if err := parser.Parse(); err != nil {
		BadRequestError("Formato de solicitud no válido").Write(w)
		return
	}

	score := feedback.DefaultScore
	if v := parser.Get("score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			UnprocessableEntityError("La calificación debe ser un número entre 1 y 10.").Write(w)
			return
		}
		score = n
	}
	in := feedback.Input{
		Name:    parser.Get("name"),
		Comment: parser.Get("comment"),
		Score:   score,
	}

	entry, message, err := s.feedback.Submit(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, feedback.ErrInvalidScore):
			UnprocessableEntityError("La calificación debe ser un número entre 1 y 10.").Write(w)
		case errors.Is(err, feedback.ErrNameTooLong):
			UnprocessableEntityError("El nombre no puede superar los " + strconv.Itoa(feedback.MaxNameLen) + " caracteres.").Write(w)
		case errors.Is(err, feedback.ErrCommentTooLong):
			UnprocessableEntityError("El comentario no puede superar los " + strconv.Itoa(feedback.MaxCommentLen) + " caracteres.").Write(w)
		default:
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Feedback submission failed",
				log.NewFields().WithComponent(log.ComponentFeedback).WithOperation(log.OpCreate).WithError(err).ToSlice()...)
			InternalServerError("No se pudo guardar tu respuesta.").Write(w)
		}
		return
	}

	panel := s.feedbackPanel(r)
	if parser.IsJSON() {
		writeJSON(w, r, http.StatusCreated, map[string]interface{}{
			"feedback": entry,
			"message":  message,
			"stats":    panel.Stats,
		})
		return
	}

	body, err := s.execute("feedback-result", feedbackResult{Message: message, Entry: entry, Panel: panel})
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed", log.FieldError, err)
		InternalServerError("Error al generar la página").Write(w)
		return
	}
	NewHTMXResponse().
		TriggerFeedbackSubmitted(panel.Stats).
		TriggerFormReset().
		TriggerSuccessNotification(message).
		Header("Content-Type", "text/html; charset=utf-8").
		Body(body).
		Write(w)
}

package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"nestsync/internal/record"

	dErrors "nestsync/pkg/domain-errors"
)

type decisionResponse struct {
	ID          string `json:"id"`
	ConsentType string `json:"consent_type"`
	Granted     bool   `json:"granted"`
	Version     string `json:"version"`
	Purpose     string `json:"purpose"`
	Feature     string `json:"feature,omitempty"`
	Platform    string `json:"platform,omitempty"`
	RecordedAt  string `json:"recorded_at"`
}

type listDecisionsResponse struct {
	Decisions []decisionResponse `json:"decisions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toDecisionResponse(d record.Decision) decisionResponse {
	return decisionResponse{
		ID:          d.ID,
		ConsentType: d.ConsentType.String(),
		Granted:     d.Granted,
		Version:     d.Version,
		Purpose:     d.Purpose,
		Feature:     d.Feature,
		Platform:    d.Platform,
		RecordedAt:  d.RecordedAt.Format(time.RFC3339Nano),
	}
}

func toListResponse(decisions []record.Decision) listDecisionsResponse {
	out := listDecisionsResponse{Decisions: make([]decisionResponse, 0, len(decisions))}
	for _, d := range decisions {
		out.Decisions = append(out.Decisions, toDecisionResponse(d))
	}
	return out
}

var codeStatus = map[dErrors.Code]int{
	dErrors.CodeInvalidInput: http.StatusBadRequest,
	dErrors.CodeBadRequest:   http.StatusBadRequest,
	dErrors.CodeUnauthorized: http.StatusUnauthorized,
	dErrors.CodeNotFound:     http.StatusNotFound,
	dErrors.CodeConflict:     http.StatusConflict,
	dErrors.CodeTimeout:      http.StatusGatewayTimeout,
	dErrors.CodeUnavailable:  http.StatusServiceUnavailable,
	dErrors.CodeInternal:     http.StatusInternalServerError,
}

func writeError(w http.ResponseWriter, err error) {
	status, ok := codeStatus[dErrors.CodeOf(err)]
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorResponse{Error: string(dErrors.CodeOf(err))})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

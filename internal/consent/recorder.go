package consent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"nestsync/pkg/domain"

	dErrors "nestsync/pkg/domain-errors"
)

// HTTPRecorder posts decisions to the NestSync consent recorder service. Any
// transport failure or non-success response is one RemoteRecordError to the
// broker; there is no retry.
type HTTPRecorder struct {
	baseURL string
	client  *http.Client
	// token supplies the bearer token per call so session refresh does not
	// require rebuilding the recorder.
	token func() (string, error)
}

func NewHTTPRecorder(baseURL string, client *http.Client, token func() (string, error)) *HTTPRecorder {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRecorder{baseURL: baseURL, client: client, token: token}
}

type recordDecisionRequest struct {
	ConsentType string `json:"consent_type"`
	Granted     bool   `json:"granted"`
	Version     string `json:"version"`
	Feature     string `json:"feature,omitempty"`
}

type recordDecisionError struct {
	Error string `json:"error"`
}

func (r *HTTPRecorder) Record(ctx context.Context, t domain.ConsentType, granted bool, version, feature string) error {
	body, err := json.Marshal(recordDecisionRequest{
		ConsentType: t.String(),
		Granted:     granted,
		Version:     version,
		Feature:     feature,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode decision")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/consent/decisions", bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build decision request")
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := r.token()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, "resolve bearer token")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "post decision")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr recordDecisionError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return dErrors.New(dErrors.CodeRemoteRecord, "recorder rejected decision: "+msg)
	}
	return nil
}

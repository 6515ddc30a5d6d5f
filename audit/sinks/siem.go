package sinks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iyotee/LSFTP/audit"
	"github.com/iyotee/LSFTP/errs"
)

// SIEM pushes events as JSON over HTTP(S) to a configured collector
// endpoint; the Logger routes Failure-result and SecurityEvent events here.
type SIEM struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewSIEM creates a SIEM push sink targeting endpoint, authenticated via
// a bearer apiKey.
func NewSIEM(endpoint, apiKey string) *SIEM {
	return &SIEM{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SIEM) Name() string { return "siem" }

func (s *SIEM) Write(e audit.Event) error {
	body, err := json.Marshal(jsonEvent(e))
	if err != nil {
		return errs.NewAudit("siem_marshal_failed", "failed to marshal audit event for SIEM push", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return errs.NewAudit("siem_request_build_failed", "failed to build SIEM push request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errs.NewAudit("siem_push_failed", "failed to reach SIEM endpoint", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errs.NewAudit("siem_rejected", fmt.Sprintf("SIEM endpoint returned status %d", resp.StatusCode), nil)
	}
	return nil
}

package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thewiin/aws-saas-etl/pkg/logger"
)

// maxRemoteTextLen is the longest input the detection endpoint accepts.
// Longer text is truncated, not rejected.
const maxRemoteTextLen = 4900

type RemoteConfig struct {
	APIURL   string
	APIToken string
}

// Remote sends text to an external sentiment detection service. Every failure
// mode (transport, non-2xx, bad body, unknown label) degrades to LabelError
// so a single row can never abort a whole dataset.
type Remote struct {
	config     RemoteConfig
	httpClient *http.Client
}

type detectRequest struct {
	Text         string `json:"text"`
	LanguageCode string `json:"language_code"`
}

type detectResponse struct {
	Sentiment string `json:"sentiment"`
}

func NewRemote(cfg RemoteConfig) *Remote {
	return &Remote{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (r *Remote) Classify(ctx context.Context, text string) Label {
	if isBlank(text) {
		return LabelNeutral
	}

	if len(text) > maxRemoteTextLen {
		text = text[:maxRemoteTextLen]
	}

	label, err := r.detect(ctx, text)
	if err != nil {
		logger.Warn(ctx, "remote classification failed", "error", err)
		return LabelError
	}
	return label
}

func (r *Remote) detect(ctx context.Context, text string) (Label, error) {
	reqBody, err := json.Marshal(detectRequest{Text: text, LanguageCode: "en"})
	if err != nil {
		return LabelError, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.APIURL+"/v1/sentiment", bytes.NewReader(reqBody))
	if err != nil {
		return LabelError, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.config.APIToken)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return LabelError, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return LabelError, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return LabelError, fmt.Errorf("sentiment API status %d: %s", resp.StatusCode, string(body))
	}

	var result detectResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return LabelError, fmt.Errorf("parse response: %w", err)
	}

	return normalizeLabel(result.Sentiment)
}

// normalizeLabel maps the service's label vocabulary onto ours. MIXED is
// treated as neutral; anything else is unrecognized.
func normalizeLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return LabelPositive, nil
	case "negative":
		return LabelNegative, nil
	case "neutral", "mixed":
		return LabelNeutral, nil
	default:
		return LabelError, fmt.Errorf("unrecognized sentiment label: %q", s)
	}
}

package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	annotateURL = "https://vision.googleapis.com/v1/images:annotate"
	visionScope = "https://www.googleapis.com/auth/cloud-vision"
)

// GoogleClient implements TextRecognizer against the Cloud Vision REST API
// using a service-account key for auth.
type GoogleClient struct {
	httpClient *http.Client
	url        string
}

// NewGoogleClient builds a client from service-account JSON credentials.
func NewGoogleClient(ctx context.Context, credentialsJSON string, timeout time.Duration) (*GoogleClient, error) {
	if strings.TrimSpace(credentialsJSON) == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_CREDENTIALS_JSON is required")
	}
	jwtCfg, err := google.JWTConfigFromJSON([]byte(credentialsJSON), visionScope)
	if err != nil {
		return nil, fmt.Errorf("parse vision credentials: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := oauth2.NewClient(ctx, jwtCfg.TokenSource(ctx))
	httpClient.Timeout = timeout

	return &GoogleClient{
		httpClient: httpClient,
		url:        annotateURL,
	}, nil
}

type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateEntry struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateImage struct {
	Content string `json:"content"`
}

type annotateFeature struct {
	Type string `json:"type"`
}

type annotateResponse struct {
	Responses []struct {
		FullTextAnnotation *struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// DetectText runs DOCUMENT_TEXT_DETECTION over the image and returns the
// full detected text. An image with no recognizable text yields "".
func (c *GoogleClient) DetectText(ctx context.Context, image []byte) (string, error) {
	payload := annotateRequest{
		Requests: []annotateEntry{{
			Image:    annotateImage{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []annotateFeature{{Type: "DOCUMENT_TEXT_DETECTION"}},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal annotate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("vision annotate: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision annotate: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var decoded annotateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("vision annotate: decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("vision annotate: %s", decoded.Error.Message)
	}
	if len(decoded.Responses) == 0 {
		return "", nil
	}

	first := decoded.Responses[0]
	if first.Error != nil && first.Error.Message != "" {
		return "", fmt.Errorf("vision annotate: %s", first.Error.Message)
	}
	if first.FullTextAnnotation == nil {
		return "", nil
	}
	return first.FullTextAnnotation.Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

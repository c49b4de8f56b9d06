package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HuggingFace calls the hosted text-generation inference API. It satisfies
// Predictor; callers treat every error as a signal to fall back.
type HuggingFace struct {
	baseURL string
	model   string
	token   string
	client  *http.Client
}

// NewHuggingFace constructs the inference client. baseURL is the models root
// (e.g. https://api-inference.huggingface.co/models).
func NewHuggingFace(baseURL, model, token string, timeout time.Duration) *HuggingFace {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HuggingFace{
		baseURL: baseURL,
		model:   model,
		token:   token,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type generationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters generationParameters `json:"parameters"`
}

type generationParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generationResponse struct {
	GeneratedText string `json:"generated_text"`
}

// Predict asks the model for the next month's consumption given the
// historical kWh sequence and returns the raw generated text.
func (h *HuggingFace) Predict(ctx context.Context, historical []int) (string, error) {
	if h.token == "" {
		return "", errors.New("inference token not configured")
	}

	histJSON, err := json.Marshal(historical)
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf(
		"Given the historical energy consumption data in kWh: %s, predict the next month's energy consumption. Return only a number between 1000 and 2000.",
		histJSON,
	)

	payload, err := json.Marshal(generationRequest{
		Inputs: prompt,
		Parameters: generationParameters{
			MaxNewTokens:   10,
			Temperature:    0.7,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s", h.baseURL, h.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.token)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("inference api returned status %d: %s", resp.StatusCode, body)
	}

	var results []generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("failed to decode inference response: %w", err)
	}
	if len(results) == 0 {
		return "", errors.New("inference api returned no generations")
	}
	return results[0].GeneratedText, nil
}

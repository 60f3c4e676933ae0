package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sweetlayer/cakeshop/models"
)

// ErrEmptyQuery is returned when a design request is blank after
// trimming whitespace.
var ErrEmptyQuery = errors.New("empty query")

// OpenAIConfig holds the AI backend configuration.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
}

// OpenAIService generates cake design candidates and flavor
// recommendations. The remote output is treated as untrusted input:
// cardinality and value domains are re-validated here regardless of
// what the model claims to return.
type OpenAIService struct {
	config     *OpenAIConfig
	httpClient *http.Client
}

var (
	openAIService *OpenAIService
	openAIOnce    sync.Once
)

// GetOpenAIService returns the singleton instance configured from the
// environment.
func GetOpenAIService() *OpenAIService {
	openAIOnce.Do(func() {
		baseURL := os.Getenv("OPENAI_BASE_URL")
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		textModel := os.Getenv("OPENAI_TEXT_MODEL")
		if textModel == "" {
			textModel = "gpt-4o-mini"
		}
		imageModel := os.Getenv("OPENAI_IMAGE_MODEL")
		if imageModel == "" {
			imageModel = "gpt-image-1"
		}

		openAIService = NewOpenAIService(&OpenAIConfig{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    baseURL,
			TextModel:  textModel,
			ImageModel: imageModel,
		})
	})
	return openAIService
}

// NewOpenAIService builds a service for an explicit config. Tests use
// this with an httptest server as the base URL.
func NewOpenAIService(config *OpenAIConfig) *OpenAIService {
	return &OpenAIService{
		config: config,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// ValidateConfig checks the AI backend configuration.
func (s *OpenAIService) ValidateConfig() error {
	if s.config.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if s.config.BaseURL == "" {
		return fmt.Errorf("OpenAI base URL is not set")
	}
	return nil
}

// DesignCandidate is one AI-generated design offered to the customer.
// Image is a data URL holding the generated PNG.
type DesignCandidate struct {
	Title string `json:"title"`
	Image string `json:"image"`
}

type designSuggestion struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

const designSystemPrompt = `You are a cake design assistant.

Generate EXACTLY 3 DIFFERENT cake design concepts for the user's request.

IMPORTANT:
- Each design MUST be visually different (style, decoration, structure).
- Use different design styles:
  1) Minimal / elegant
  2) Playful / decorative
  3) Aesthetic but still decorative, not plain like minimalism

Return ONLY valid JSON in this format:
{"suggestions": [{"title": "...", "prompt": "..."}, {"title": "...", "prompt": "..."}, {"title": "...", "prompt": "..."}]}

Rules:
- suggestions length MUST be exactly 3
- title: short design name
- prompt: detailed prompt for cake image generation
- NO prices
- NO descriptions
- NO extra text`

// GenerateDesigns asks the model for exactly three design concepts and
// renders one image per concept. Anything other than three complete
// (title, image) pairs is a hard failure; the response is never
// truncated or padded. Style diversity is requested in the prompt but
// cannot be verified here.
func (s *OpenAIService) GenerateDesigns(query string) ([]DesignCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	suggestions, err := s.requestSuggestions(query)
	if err != nil {
		return nil, err
	}

	if err := validateSuggestions(suggestions); err != nil {
		return nil, err
	}

	candidates := make([]DesignCandidate, 0, len(suggestions))
	for _, suggestion := range suggestions {
		image, err := s.generateImage(suggestion.Prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to generate image for design %q: %w", suggestion.Title, err)
		}
		candidates = append(candidates, DesignCandidate{
			Title: suggestion.Title,
			Image: "data:image/png;base64," + image,
		})
	}

	return candidates, nil
}

func validateSuggestions(suggestions []designSuggestion) error {
	if len(suggestions) != 3 {
		return fmt.Errorf("AI did not return exactly 3 designs (got %d)", len(suggestions))
	}
	for _, suggestion := range suggestions {
		if strings.TrimSpace(suggestion.Title) == "" || strings.TrimSpace(suggestion.Prompt) == "" {
			return fmt.Errorf("AI returned an incomplete design suggestion")
		}
	}
	return nil
}

func (s *OpenAIService) requestSuggestions(query string) ([]designSuggestion, error) {
	payload := map[string]interface{}{
		"model": s.config.TextModel,
		"messages": []map[string]string{
			{"role": "system", "content": designSystemPrompt},
			{"role": "user", "content": fmt.Sprintf("User request: %q", query)},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	body, err := s.post("/v1/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("error unmarshaling completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("AI returned no choices")
	}

	var parsed struct {
		Suggestions []designSuggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("AI did not return valid JSON: %w", err)
	}

	return parsed.Suggestions, nil
}

func (s *OpenAIService) generateImage(prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": s.config.ImageModel,
		"prompt": strings.TrimSpace(fmt.Sprintf(`Realistic professional product photo of a cake.
Studio lighting, clean background.
%s
Different from other designs.`, prompt)),
		"size": "1024x1024",
	}

	body, err := s.post("/v1/images/generations", payload)
	if err != nil {
		return "", err
	}

	var imageResp struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &imageResp); err != nil {
		return "", fmt.Errorf("error unmarshaling image response: %w", err)
	}
	if len(imageResp.Data) == 0 || imageResp.Data[0].B64JSON == "" {
		return "", fmt.Errorf("image generation returned no image data")
	}

	return imageResp.Data[0].B64JSON, nil
}

const flavorSystemPrompt = `You are a predictive AI for a cake ordering system.

Goal:
Recommend cake flavors ONLY from the allowed list, based on:
- season
- occasion
- age group

Allowed flavors (STRICT - do not invent new ones):
%s

Rules:
- Return EXACTLY 3 different flavors.
- Use ONLY flavors from the allowed list.
- Adjust choices based on season, occasion, and age group.
- If occasion is "Other", base recommendations only on season + age group.
- No long explanations.

Output format (JSON ONLY):
{"recommended": ["Flavor 1", "Flavor 2", "Flavor 3"]}`

// PredictFlavors recommends three flavors for the given inputs. The
// model output is filtered against the fixed allow-list; if fewer than
// three valid distinct flavors remain, the whole response fails rather
// than returning a partial or padded list.
func (s *OpenAIService) PredictFlavors(season, occasion, ageGroup string) ([]string, error) {
	system := fmt.Sprintf(flavorSystemPrompt, strings.Join(models.FlavorAllowList, ", "))
	user := fmt.Sprintf("Inputs:\n- season: %s\n- occasion: %s\n- ageGroup: %s\n\nReturn JSON only.", season, occasion, ageGroup)

	payload := map[string]interface{}{
		"model": s.config.TextModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	body, err := s.post("/v1/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("error unmarshaling completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("AI returned no choices")
	}

	var parsed struct {
		Recommended []string `json:"recommended"`
	}
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("AI did not return valid JSON: %w", err)
	}

	return filterFlavors(parsed.Recommended)
}

// filterFlavors re-validates the model's claim of compliance. Exactly
// three distinct allow-listed flavors must survive the filter.
func filterFlavors(recommended []string) ([]string, error) {
	if len(recommended) != 3 {
		return nil, fmt.Errorf("AI did not return exactly 3 flavors (got %d)", len(recommended))
	}

	seen := make(map[string]bool, 3)
	valid := make([]string, 0, 3)
	for _, flavor := range recommended {
		if models.IsAllowedFlavor(flavor) && !seen[flavor] {
			seen[flavor] = true
			valid = append(valid, flavor)
		}
	}

	if len(valid) != 3 {
		return nil, fmt.Errorf("AI returned flavors outside the allowed list")
	}

	return valid, nil
}

// post sends an authenticated JSON request to the AI backend and
// returns the raw response body.
func (s *OpenAIService) post(path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", s.config.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

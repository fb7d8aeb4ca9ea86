package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ecocropai/ecocrop-backend/internal/apperrors"
	"github.com/ecocropai/ecocrop-backend/internal/config"
	"github.com/ecocropai/ecocrop-backend/internal/logger"
	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

const systemPrompt = `You are EcoCrop AI, a sustainable agriculture expert. Analyze crop health data and provide eco-friendly farming advice.

You MUST respond with ONLY valid JSON in this exact format:
{
  "diagnosis": "Brief diagnosis (e.g., Early Blight, Water Stress)",
  "confidence_score": 85,
  "immediate_action": "Urgent step needed",
  "sustainable_treatment": "Detailed organic/eco-friendly solution",
  "resource_efficiency_tip": "Water/energy saving advice",
  "risk_level": "Low or Medium or High"
}

Prioritize:
- Organic pest control over synthetic pesticides
- Water-efficient irrigation techniques
- Soil health through composting and crop rotation
- Minimize chemical runoff`

// Observation is the structured crop-health input submitted for diagnosis
type Observation struct {
	CropName     string
	GrowthStage  string
	Symptoms     string
	SoilMoisture *int
	Temperature  *float64
	Humidity     *int
}

// DiagnosisSource tags whether a result came from the model's structured
// output or from the degraded fallback used when that output is unparseable.
type DiagnosisSource string

const (
	DiagnosisParsed   DiagnosisSource = "parsed"
	DiagnosisFallback DiagnosisSource = "fallback"
)

// DiagnosisResult is the post-processed model output
type DiagnosisResult struct {
	Diagnosis             string
	ConfidenceScore       int
	ImmediateAction       string
	SustainableTreatment  string
	ResourceEfficiencyTip string
	RiskLevel             string
	Source                DiagnosisSource
}

type generateFunc func(ctx context.Context, system, user string, imageJPEG []byte) (string, error)

// AIService builds diagnosis prompts and calls the configured model
// provider. External-call failures propagate to the caller; only an
// unparseable response is recovered, into the degraded fallback record.
type AIService struct {
	geminiClient *genai.Client
	geminiModel  string
	openaiClient *openai.Client
	openaiModel  string
	generate     generateFunc
}

func NewAIService(ctx context.Context, cfg config.AIConfig) (*AIService, error) {
	s := &AIService{
		geminiModel: cfg.GeminiModel,
		openaiModel: cfg.OpenAIModel,
	}

	switch cfg.Provider {
	case "openai":
		s.openaiClient = openai.NewClient(cfg.OpenAIAPIKey)
		s.generate = s.generateWithOpenAI
	default:
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
		s.generate = s.generateWithGemini
	}

	return s, nil
}

// RequestDiagnosis asks the model for a structured diagnosis of the
// observation. The optional image is a downscaled JPEG. No retries: any
// provider failure is terminal for the request.
func (s *AIService) RequestDiagnosis(ctx context.Context, obs Observation, imageJPEG []byte) (*DiagnosisResult, error) {
	prompt := buildUserPrompt(obs, len(imageJPEG) > 0)

	raw, err := s.generate(ctx, systemPrompt, prompt, imageJPEG)
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, "ai")
	}

	result := parseDiagnosis(raw)
	if result.Source == DiagnosisFallback {
		logger.Warn("AI response was not valid JSON, using fallback diagnosis",
			"response_length", len(raw))
	}
	result.RiskLevel = normalizeRiskLevel(result.RiskLevel)

	return result, nil
}

func buildUserPrompt(obs Observation, hasImage bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this crop:\nCrop: %s\nGrowth Stage: %s\nSymptoms: %s\n",
		obs.CropName, obs.GrowthStage, obs.Symptoms)

	if obs.SoilMoisture != nil {
		fmt.Fprintf(&b, "\nSoil Moisture: %d%%", *obs.SoilMoisture)
	}
	if obs.Temperature != nil {
		fmt.Fprintf(&b, "\nTemperature: %.1f°C", *obs.Temperature)
	}
	if obs.Humidity != nil {
		fmt.Fprintf(&b, "\nHumidity: %d%%", *obs.Humidity)
	}

	if hasImage {
		b.WriteString("\n\nNote: Image of crop symptoms provided for visual analysis.")
	}
	b.WriteString("\n\nProvide analysis in JSON format only.")

	return b.String()
}

func (s *AIService) generateWithGemini(ctx context.Context, system, user string, imageJPEG []byte) (string, error) {
	model := s.geminiClient.GenerativeModel(s.geminiModel)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	parts := []genai.Part{genai.Text(user)}
	if len(imageJPEG) > 0 {
		parts = append([]genai.Part{genai.ImageData("jpeg", imageJPEG)}, parts...)
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

func (s *AIService) generateWithOpenAI(ctx context.Context, system, user string, imageJPEG []byte) (string, error) {
	userMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user}
	if len(imageJPEG) > 0 {
		userMsg = openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: user},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageJPEG),
					},
				},
			},
		}
	}

	resp, err := s.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.openaiModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			userMsg,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

type diagnosisWire struct {
	Diagnosis             string          `json:"diagnosis"`
	ConfidenceScore       json.RawMessage `json:"confidence_score"`
	ImmediateAction       string          `json:"immediate_action"`
	SustainableTreatment  string          `json:"sustainable_treatment"`
	ResourceEfficiencyTip string          `json:"resource_efficiency_tip"`
	RiskLevel             string          `json:"risk_level"`
}

// parseDiagnosis decodes the model's response as strict JSON. Any failure,
// including an uncoercible confidence score, yields the degraded fallback
// instead of an error.
func parseDiagnosis(raw string) *DiagnosisResult {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return fallbackDiagnosis(raw)
	}

	var wire diagnosisWire
	if err := json.Unmarshal([]byte(jsonStr), &wire); err != nil {
		return fallbackDiagnosis(raw)
	}

	confidence, err := coerceInt(wire.ConfidenceScore)
	if err != nil {
		return fallbackDiagnosis(raw)
	}

	return &DiagnosisResult{
		Diagnosis:             wire.Diagnosis,
		ConfidenceScore:       confidence,
		ImmediateAction:       wire.ImmediateAction,
		SustainableTreatment:  wire.SustainableTreatment,
		ResourceEfficiencyTip: wire.ResourceEfficiencyTip,
		RiskLevel:             wire.RiskLevel,
		Source:                DiagnosisParsed,
	}
}

func fallbackDiagnosis(raw string) *DiagnosisResult {
	return &DiagnosisResult{
		Diagnosis:             "Analysis completed",
		ConfidenceScore:       75,
		ImmediateAction:       "Monitor crop closely",
		SustainableTreatment:  truncate(raw, 200),
		ResourceEfficiencyTip: "Implement drip irrigation to conserve water",
		RiskLevel:             "Medium",
		Source:                DiagnosisFallback,
	}
}

// extractJSON attempts to extract a JSON object from the given string,
// handling responses wrapped in code blocks or surrounding text.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// coerceInt accepts the confidence score as a JSON number or a numeric
// string; models return either.
func coerceInt(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	s := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// normalizeRiskLevel constrains the model's risk_level to the closed set.
// Out-of-set values collapse to Medium.
func normalizeRiskLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return "Low"
	case "medium":
		return "Medium"
	case "high":
		return "High"
	default:
		logger.Warn("model returned out-of-set risk level", "risk_level", level)
		return "Medium"
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

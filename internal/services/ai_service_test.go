package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ecocropai/ecocrop-backend/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubAIService(response string, err error) *AIService {
	return &AIService{
		generate: func(ctx context.Context, system, user string, imageJPEG []byte) (string, error) {
			return response, err
		},
	}
}

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func TestRequestDiagnosisParsesStructuredResponse(t *testing.T) {
	response := "```json\n" + `{
		"diagnosis": "Early Blight",
		"confidence_score": "85",
		"immediate_action": "Remove affected leaves",
		"sustainable_treatment": "Apply neem oil weekly",
		"resource_efficiency_tip": "Water at the roots in the morning",
		"risk_level": "High"
	}` + "\n```"

	svc := stubAIService(response, nil)
	result, err := svc.RequestDiagnosis(context.Background(), Observation{
		CropName:    "Tomato",
		GrowthStage: "Flowering",
		Symptoms:    "brown spots on leaves",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, DiagnosisParsed, result.Source)
	assert.Equal(t, "Early Blight", result.Diagnosis)
	assert.Equal(t, 85, result.ConfidenceScore) // numeric string coerced to int
	assert.Equal(t, "Remove affected leaves", result.ImmediateAction)
	assert.Equal(t, "High", result.RiskLevel)
}

func TestRequestDiagnosisNumericConfidence(t *testing.T) {
	svc := stubAIService(`{"diagnosis":"Water Stress","confidence_score":92,"immediate_action":"Irrigate","sustainable_treatment":"Mulch","resource_efficiency_tip":"Drip lines","risk_level":"low"}`, nil)

	result, err := svc.RequestDiagnosis(context.Background(), Observation{CropName: "Maize", GrowthStage: "V4", Symptoms: "wilting"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 92, result.ConfidenceScore)
	assert.Equal(t, "Low", result.RiskLevel) // case-normalized
}

func TestRequestDiagnosisFallbackOnFreeText(t *testing.T) {
	raw := strings.Repeat("The crop looks stressed. ", 20) // well over 200 chars, no JSON

	svc := stubAIService(raw, nil)
	result, err := svc.RequestDiagnosis(context.Background(), Observation{CropName: "Rice", GrowthStage: "Tillering", Symptoms: "yellowing"}, nil)
	require.NoError(t, err)

	assert.Equal(t, DiagnosisFallback, result.Source)
	assert.Equal(t, "Analysis completed", result.Diagnosis)
	assert.Equal(t, 75, result.ConfidenceScore)
	assert.Equal(t, "Monitor crop closely", result.ImmediateAction)
	assert.Equal(t, raw[:200], result.SustainableTreatment)
	assert.Equal(t, "Implement drip irrigation to conserve water", result.ResourceEfficiencyTip)
	assert.Equal(t, "Medium", result.RiskLevel)
}

func TestRequestDiagnosisFallbackOnBrokenJSON(t *testing.T) {
	svc := stubAIService(`{"diagnosis": "Early Blight", "confidence_score": }`, nil)

	result, err := svc.RequestDiagnosis(context.Background(), Observation{CropName: "Tomato", GrowthStage: "Seedling", Symptoms: "spots"}, nil)
	require.NoError(t, err)

	assert.Equal(t, DiagnosisFallback, result.Source)
	assert.Equal(t, 75, result.ConfidenceScore)
}

func TestRequestDiagnosisFallbackOnUncoercibleConfidence(t *testing.T) {
	svc := stubAIService(`{"diagnosis":"x","confidence_score":"very sure","risk_level":"Low"}`, nil)

	result, err := svc.RequestDiagnosis(context.Background(), Observation{CropName: "Wheat", GrowthStage: "Booting", Symptoms: "rust"}, nil)
	require.NoError(t, err)

	assert.Equal(t, DiagnosisFallback, result.Source)
}

func TestRequestDiagnosisNormalizesOutOfSetRiskLevel(t *testing.T) {
	svc := stubAIService(`{"diagnosis":"Blight","confidence_score":80,"immediate_action":"a","sustainable_treatment":"b","resource_efficiency_tip":"c","risk_level":"Severe"}`, nil)

	result, err := svc.RequestDiagnosis(context.Background(), Observation{CropName: "Potato", GrowthStage: "Mature", Symptoms: "lesions"}, nil)
	require.NoError(t, err)

	assert.Equal(t, DiagnosisParsed, result.Source)
	assert.Equal(t, "Medium", result.RiskLevel)
}

func TestRequestDiagnosisPropagatesProviderFailure(t *testing.T) {
	svc := stubAIService("", errors.New("quota exceeded"))

	_, err := svc.RequestDiagnosis(context.Background(), Observation{CropName: "Tomato", GrowthStage: "Flowering", Symptoms: "spots"}, nil)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeExternal, appErr.Type)
}

func TestBuildUserPrompt(t *testing.T) {
	obs := Observation{
		CropName:     "Tomato",
		GrowthStage:  "Flowering",
		Symptoms:     "brown spots",
		SoilMoisture: intPtr(45),
		Temperature:  floatPtr(25.5),
		Humidity:     intPtr(70),
	}

	prompt := buildUserPrompt(obs, true)

	assert.Contains(t, prompt, "Crop: Tomato")
	assert.Contains(t, prompt, "Growth Stage: Flowering")
	assert.Contains(t, prompt, "Symptoms: brown spots")
	assert.Contains(t, prompt, "Soil Moisture: 45%")
	assert.Contains(t, prompt, "Temperature: 25.5°C")
	assert.Contains(t, prompt, "Humidity: 70%")
	assert.Contains(t, prompt, "Image of crop symptoms provided")
	assert.True(t, strings.HasSuffix(prompt, "Provide analysis in JSON format only."))
}

func TestBuildUserPromptOmitsMissingReadings(t *testing.T) {
	prompt := buildUserPrompt(Observation{CropName: "Rice", GrowthStage: "Tillering", Symptoms: "yellowing"}, false)

	assert.NotContains(t, prompt, "Soil Moisture")
	assert.NotContains(t, prompt, "Temperature")
	assert.NotContains(t, prompt, "Humidity")
	assert.NotContains(t, prompt, "Image of crop symptoms")
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("noise {\"a\":1} trailing"))
	assert.Equal(t, "", extractJSON("no braces here"))
	assert.Equal(t, "", extractJSON("} reversed {"))
}

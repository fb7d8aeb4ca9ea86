package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/ecocropai/ecocrop-backend/internal/apperrors"
	"github.com/ecocropai/ecocrop-backend/internal/database"
	"github.com/ecocropai/ecocrop-backend/internal/interfaces"
	"github.com/ecocropai/ecocrop-backend/internal/logger"
	"github.com/gin-gonic/gin"
)

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	UserService     interfaces.UserServiceInterface
	AuthService     interfaces.AuthServiceInterface
	AIService       interfaces.AIServiceInterface
	AnalysisService interfaces.AnalysisServiceInterface
}

// Handler shapes HTTP requests and responses around the services
type Handler struct {
	deps Dependencies
}

func New(deps Dependencies) *Handler {
	return &Handler{deps: deps}
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type analysisResponse struct {
	ID                    string    `json:"id"`
	CropName              string    `json:"crop_name"`
	GrowthStage           string    `json:"growth_stage"`
	Diagnosis             string    `json:"diagnosis"`
	ConfidenceScore       int       `json:"confidence_score"`
	ImmediateAction       string    `json:"immediate_action"`
	SustainableTreatment  string    `json:"sustainable_treatment"`
	ResourceEfficiencyTip string    `json:"resource_efficiency_tip"`
	RiskLevel             string    `json:"risk_level"`
	CreatedAt             time.Time `json:"created_at"`
}

// analysisDetail is the full stored record, returned by the single-analysis
// lookup. History listings use the lighter analysisResponse without the
// embedded image.
type analysisDetail struct {
	analysisResponse
	UserID       string   `json:"user_id"`
	Symptoms     string   `json:"symptoms"`
	SoilMoisture *int     `json:"soil_moisture"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *int     `json:"humidity"`
	ImageData    string   `json:"image_data,omitempty"`
}

func toUserPayload(u *database.User) userPayload {
	return userPayload{ID: u.ID, Email: u.Email, Name: u.Name}
}

func toAnalysisResponse(a *database.CropAnalysis) analysisResponse {
	return analysisResponse{
		ID:                    a.ID,
		CropName:              a.CropName,
		GrowthStage:           a.GrowthStage,
		Diagnosis:             a.Diagnosis,
		ConfidenceScore:       a.ConfidenceScore,
		ImmediateAction:       a.ImmediateAction,
		SustainableTreatment:  a.SustainableTreatment,
		ResourceEfficiencyTip: a.ResourceEfficiencyTip,
		RiskLevel:             a.RiskLevel,
		CreatedAt:             a.CreatedAt,
	}
}

func toAnalysisDetail(a *database.CropAnalysis) analysisDetail {
	return analysisDetail{
		analysisResponse: toAnalysisResponse(a),
		UserID:           a.UserID,
		Symptoms:         a.Symptoms,
		SoilMoisture:     a.SoilMoisture,
		Temperature:      a.Temperature,
		Humidity:         a.Humidity,
		ImageData:        a.ImageData,
	}
}

// respondError maps application errors to HTTP statuses. Anything outside
// the known taxonomy becomes a generic 500 without leaking details.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		var status int
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			status = http.StatusBadRequest
		case apperrors.ErrorTypeAuth:
			status = http.StatusUnauthorized
		case apperrors.ErrorTypeNotFound:
			status = http.StatusNotFound
		default:
			status = http.StatusInternalServerError
		}
		if status == http.StatusInternalServerError {
			logger.Error("request failed", appErr.LogFields()...)
			c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
			return
		}
		c.AbortWithStatusJSON(status, gin.H{"error": appErr.Message})
		return
	}

	logger.Error("request failed", "error", err.Error())
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

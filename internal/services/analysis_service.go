package services

import (
	"context"
	"errors"
	"time"

	"github.com/ecocropai/ecocrop-backend/internal/apperrors"
	"github.com/ecocropai/ecocrop-backend/internal/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// historyLimit caps how many records a history listing returns
const historyLimit = 100

// AnalysisService persists diagnosed observations, scoped per owning user
type AnalysisService struct {
	db *gorm.DB
}

func NewAnalysisService(db *gorm.DB) *AnalysisService {
	return &AnalysisService{db: db}
}

// Save assigns a fresh id and timestamp and persists the combined record.
// Records are immutable after this point.
func (s *AnalysisService) Save(ctx context.Context, userID string, obs Observation, imageBase64 string, result *DiagnosisResult) (*database.CropAnalysis, error) {
	analysis := &database.CropAnalysis{
		ID:                    uuid.NewString(),
		UserID:                userID,
		CropName:              obs.CropName,
		GrowthStage:           obs.GrowthStage,
		Symptoms:              obs.Symptoms,
		SoilMoisture:          obs.SoilMoisture,
		Temperature:           obs.Temperature,
		Humidity:              obs.Humidity,
		ImageData:             imageBase64,
		Diagnosis:             result.Diagnosis,
		ConfidenceScore:       result.ConfidenceScore,
		ImmediateAction:       result.ImmediateAction,
		SustainableTreatment:  result.SustainableTreatment,
		ResourceEfficiencyTip: result.ResourceEfficiencyTip,
		RiskLevel:             result.RiskLevel,
		CreatedAt:             time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(analysis).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	return analysis, nil
}

// ListForUser returns the user's analyses newest first, capped at 100
func (s *AnalysisService) ListForUser(ctx context.Context, userID string) ([]database.CropAnalysis, error) {
	var analyses []database.CropAnalysis
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(historyLimit).
		Find(&analyses).Error
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return analyses, nil
}

// GetForUser fetches one analysis scoped to the requesting user. A record
// owned by another user is indistinguishable from a nonexistent one.
func (s *AnalysisService) GetForUser(ctx context.Context, userID, analysisID string) (*database.CropAnalysis, error) {
	var analysis database.CropAnalysis
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", analysisID, userID).
		First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAnalysisNotFound
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return &analysis, nil
}

package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ecocropai/ecocrop-backend/internal/apperrors"
	"github.com/ecocropai/ecocrop-backend/internal/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func registerTestUser(t *testing.T, db *gorm.DB, email string) *database.User {
	t.Helper()
	user, err := NewUserService(db).Register(context.Background(), email, "Test", "password")
	require.NoError(t, err)
	return user
}

func testDiagnosis() *DiagnosisResult {
	return &DiagnosisResult{
		Diagnosis:             "Early Blight",
		ConfidenceScore:       85,
		ImmediateAction:       "Remove affected leaves",
		SustainableTreatment:  "Apply neem oil weekly",
		ResourceEfficiencyTip: "Water at the roots",
		RiskLevel:             "High",
		Source:                DiagnosisParsed,
	}
}

func TestSavePersistsFullRecord(t *testing.T) {
	db := newTestDB(t)
	user := registerTestUser(t, db, "a@x.com")
	svc := NewAnalysisService(db)

	obs := Observation{
		CropName:     "Tomato",
		GrowthStage:  "Flowering",
		Symptoms:     "brown spots",
		SoilMoisture: intPtr(45),
		Temperature:  floatPtr(25.5),
		Humidity:     intPtr(70),
	}

	analysis, err := svc.Save(context.Background(), user.ID, obs, "aW1hZ2U=", testDiagnosis())
	require.NoError(t, err)

	assert.NotEmpty(t, analysis.ID)
	assert.False(t, analysis.CreatedAt.IsZero())
	assert.Equal(t, user.ID, analysis.UserID)

	var stored database.CropAnalysis
	require.NoError(t, db.Where("id = ?", analysis.ID).First(&stored).Error)
	assert.Equal(t, "Tomato", stored.CropName)
	assert.Equal(t, "brown spots", stored.Symptoms)
	require.NotNil(t, stored.SoilMoisture)
	assert.Equal(t, 45, *stored.SoilMoisture)
	require.NotNil(t, stored.Temperature)
	assert.Equal(t, 25.5, *stored.Temperature)
	assert.Equal(t, "aW1hZ2U=", stored.ImageData)
	assert.Equal(t, 85, stored.ConfidenceScore)
	assert.Equal(t, "High", stored.RiskLevel)
}

func TestListForUserNewestFirstCappedAt100(t *testing.T) {
	db := newTestDB(t)
	user := registerTestUser(t, db, "a@x.com")
	svc := NewAnalysisService(db)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 105; i++ {
		record := &database.CropAnalysis{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			CropName:  fmt.Sprintf("Crop %d", i),
			Symptoms:  "s",
			RiskLevel: "Low",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(record).Error)
	}

	analyses, err := svc.ListForUser(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Len(t, analyses, 100)
	assert.Equal(t, "Crop 104", analyses[0].CropName) // newest first
	for i := 1; i < len(analyses); i++ {
		assert.False(t, analyses[i].CreatedAt.After(analyses[i-1].CreatedAt))
	}
}

func TestListForUserExcludesOtherUsers(t *testing.T) {
	db := newTestDB(t)
	userA := registerTestUser(t, db, "a@x.com")
	userB := registerTestUser(t, db, "b@x.com")
	svc := NewAnalysisService(db)

	obs := Observation{CropName: "Tomato", GrowthStage: "Flowering", Symptoms: "spots"}
	_, err := svc.Save(context.Background(), userA.ID, obs, "", testDiagnosis())
	require.NoError(t, err)

	analyses, err := svc.ListForUser(context.Background(), userB.ID)
	require.NoError(t, err)
	assert.Empty(t, analyses)
}

func TestGetForUserScoping(t *testing.T) {
	db := newTestDB(t)
	userA := registerTestUser(t, db, "a@x.com")
	userB := registerTestUser(t, db, "b@x.com")
	svc := NewAnalysisService(db)

	obs := Observation{CropName: "Tomato", GrowthStage: "Flowering", Symptoms: "spots"}
	saved, err := svc.Save(context.Background(), userA.ID, obs, "", testDiagnosis())
	require.NoError(t, err)

	got, err := svc.GetForUser(context.Background(), userA.ID, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)

	// A foreign record and a nonexistent one must be indistinguishable
	_, foreignErr := svc.GetForUser(context.Background(), userB.ID, saved.ID)
	_, unknownErr := svc.GetForUser(context.Background(), userB.ID, uuid.NewString())
	assert.ErrorIs(t, foreignErr, apperrors.ErrAnalysisNotFound)
	assert.ErrorIs(t, unknownErr, apperrors.ErrAnalysisNotFound)
	assert.Equal(t, foreignErr.Error(), unknownErr.Error())
}

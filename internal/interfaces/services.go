package interfaces

import (
	"context"

	"github.com/ecocropai/ecocrop-backend/internal/database"
	"github.com/ecocropai/ecocrop-backend/internal/services"
)

// UserServiceInterface defines the contract for account operations
type UserServiceInterface interface {
	Register(ctx context.Context, email, name, password string) (*database.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*database.User, error)
	GetByID(ctx context.Context, id string) (*database.User, error)
}

// AuthServiceInterface defines the contract for bearer-token operations
type AuthServiceInterface interface {
	IssueToken(userID, email string) (string, error)
	Authenticate(ctx context.Context, token string) (*database.User, error)
}

// AIServiceInterface defines the contract for diagnosis requests
type AIServiceInterface interface {
	RequestDiagnosis(ctx context.Context, obs services.Observation, imageJPEG []byte) (*services.DiagnosisResult, error)
}

// AnalysisServiceInterface defines the contract for analysis persistence
type AnalysisServiceInterface interface {
	Save(ctx context.Context, userID string, obs services.Observation, imageBase64 string, result *services.DiagnosisResult) (*database.CropAnalysis, error)
	ListForUser(ctx context.Context, userID string) ([]database.CropAnalysis, error)
	GetForUser(ctx context.Context, userID, analysisID string) (*database.CropAnalysis, error)
}

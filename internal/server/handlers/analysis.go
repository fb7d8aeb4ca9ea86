package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"strconv"

	"github.com/ecocropai/ecocrop-backend/internal/imaging"
	"github.com/ecocropai/ecocrop-backend/internal/logger"
	"github.com/ecocropai/ecocrop-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// CreateAnalysis accepts a multipart observation, runs the AI diagnosis and
// persists the combined record. Either the record is fully saved or nothing
// is persisted: a failed AI call aborts before any write.
func (h *Handler) CreateAnalysis(c *gin.Context) {
	obs, ok := bindObservation(c)
	if !ok {
		return
	}

	var imageJPEG []byte
	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
			return
		}
		defer file.Close()

		raw, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
			return
		}

		imageJPEG, err = imaging.Downscale(raw, imaging.MaxDimension)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
			return
		}
	}

	user := currentUser(c)

	result, err := h.deps.AIService.RequestDiagnosis(c.Request.Context(), obs, imageJPEG)
	if err != nil {
		respondError(c, err)
		return
	}

	var imageBase64 string
	if len(imageJPEG) > 0 {
		imageBase64 = base64.StdEncoding.EncodeToString(imageJPEG)
	}

	analysis, err := h.deps.AnalysisService.Save(c.Request.Context(), user.ID, obs, imageBase64, result)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("analysis created",
		"analysis_id", analysis.ID,
		"user_id", user.ID,
		"diagnosis_source", result.Source,
	)

	c.JSON(http.StatusOK, toAnalysisResponse(analysis))
}

// History lists the user's analyses, newest first, capped at 100
func (h *Handler) History(c *gin.Context) {
	user := currentUser(c)

	analyses, err := h.deps.AnalysisService.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]analysisResponse, 0, len(analyses))
	for i := range analyses {
		responses = append(responses, toAnalysisResponse(&analyses[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetAnalysis returns one full stored record. Records owned by other users
// 404 exactly like unknown ids.
func (h *Handler) GetAnalysis(c *gin.Context) {
	user := currentUser(c)

	analysis, err := h.deps.AnalysisService.GetForUser(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAnalysisDetail(analysis))
}

// bindObservation pulls the structured fields out of the multipart form.
// crop_name, growth_stage and symptoms are required; the environmental
// readings are optional but must parse when present.
func bindObservation(c *gin.Context) (services.Observation, bool) {
	obs := services.Observation{
		CropName:    c.PostForm("crop_name"),
		GrowthStage: c.PostForm("growth_stage"),
		Symptoms:    c.PostForm("symptoms"),
	}

	if obs.CropName == "" || obs.GrowthStage == "" || obs.Symptoms == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "crop_name, growth_stage and symptoms are required"})
		return obs, false
	}

	if v := c.PostForm("soil_moisture"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "soil_moisture must be an integer"})
			return obs, false
		}
		obs.SoilMoisture = &n
	}
	if v := c.PostForm("temperature"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "temperature must be a number"})
			return obs, false
		}
		obs.Temperature = &f
	}
	if v := c.PostForm("humidity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "humidity must be an integer"})
			return obs, false
		}
		obs.Humidity = &n
	}

	return obs, true
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/entitlement"
	"github.com/nextshorts/nextshorts/internal/trends"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Analyzer is the subset of the trends service the handler needs.
type Analyzer interface {
	AnalyzeTrend(ctx context.Context, regionCode string) (*trends.TrendReport, error)
	FindOutliers(ctx context.Context, keyword string) (*trends.OutlierReport, error)
	ViralPlans(ctx context.Context, keyword, outlierTitle string, ratio float64) ([]trends.ViralPlan, error)
}

// AnalysisHandler handles the metered analysis endpoints.
type AnalysisHandler struct {
	db      *gorm.DB
	service Analyzer
}

// NewAnalysisHandler constructs an AnalysisHandler. The service may be nil
// when API keys are not configured; requests then fail with 500.
func NewAnalysisHandler(db *gorm.DB, service Analyzer) *AnalysisHandler {
	return &AnalysisHandler{db: db, service: service}
}

// Trend runs a regional trend analysis, consuming one weekly quota unit.
func (h *AnalysisHandler) Trend(c *gin.Context) {
	user := getUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API keys are missing"})
		return
	}

	limits := entitlement.LimitsFromSettings()
	usage, errConsume := entitlement.Consume(c.Request.Context(), h.db, user.UID, entitlement.ActionTrend, limits)
	if errConsume != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "usage check failed"})
		return
	}
	if !usage.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "usage limit exceeded", "usage": usage})
		return
	}

	report, errAnalyze := h.service.AnalyzeTrend(c.Request.Context(), c.Query("region"))
	if errAnalyze != nil {
		if errors.Is(errAnalyze, trends.ErrNoTrendingVideos) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No trending videos found"})
			return
		}
		log.WithError(errAnalyze).Error("trend analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trend analysis failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"region":         report.Region,
		"original_video": report.OriginalVideo,
		"analysis":       report.Analysis,
		"usage":          usage,
	})
}

// outlierRequest defines the request body for outlier searches.
type outlierRequest struct {
	Keyword string `json:"keyword"`
}

// Outliers searches a keyword for outlier videos, consuming one monthly
// quota unit.
func (h *AnalysisHandler) Outliers(c *gin.Context) {
	user := getUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API keys are missing"})
		return
	}

	var body outlierRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Keyword is required"})
		return
	}

	limits := entitlement.LimitsFromSettings()
	usage, errConsume := entitlement.Consume(c.Request.Context(), h.db, user.UID, entitlement.ActionKeyword, limits)
	if errConsume != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "usage check failed"})
		return
	}
	if !usage.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "usage limit exceeded", "usage": usage})
		return
	}

	report, errFind := h.service.FindOutliers(c.Request.Context(), body.Keyword)
	if errFind != nil {
		if errors.Is(errFind, trends.ErrMissingKeyword) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Keyword is required"})
			return
		}
		log.WithError(errFind).Error("outlier search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "outlier search failed"})
		return
	}

	response := gin.H{
		"success":  true,
		"outliers": report.Outliers,
		"usage":    usage,
	}
	if report.Analysis != "" {
		response["analysis"] = report.Analysis
	}
	if report.Message != "" {
		response["message"] = report.Message
	}
	c.JSON(http.StatusOK, response)
}

// viralRequest defines the request body for viral plan generation.
type viralRequest struct {
	Keyword      string  `json:"keyword"`
	OutlierTitle string  `json:"outlierTitle"`
	Ratio        float64 `json:"ratio"`
}

// ViralPlans generates planning drafts from a previously found outlier. The
// outlier search already consumed the quota; this step is not metered.
func (h *AnalysisHandler) ViralPlans(c *gin.Context) {
	user := getUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API keys are missing"})
		return
	}

	var body viralRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	plans, errPlans := h.service.ViralPlans(c.Request.Context(), body.Keyword, body.OutlierTitle, body.Ratio)
	if errPlans != nil {
		if errors.Is(errPlans, trends.ErrMissingKeyword) || errors.Is(errPlans, trends.ErrMissingOutlier) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required data (keyword, outlierTitle)"})
			return
		}
		log.WithError(errPlans).Error("viral plan generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "viral plan generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "viral_plans": plans})
}

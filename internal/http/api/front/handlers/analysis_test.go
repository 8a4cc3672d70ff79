package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/models"
	"github.com/nextshorts/nextshorts/internal/trends"
	"gorm.io/gorm"
)

type fakeAnalyzer struct {
	trendReport   *trends.TrendReport
	trendErr      error
	outlierReport *trends.OutlierReport
	outlierErr    error
	plans         []trends.ViralPlan
	plansErr      error

	trendCalls   int
	outlierCalls int
}

func (f *fakeAnalyzer) AnalyzeTrend(context.Context, string) (*trends.TrendReport, error) {
	f.trendCalls++
	return f.trendReport, f.trendErr
}

func (f *fakeAnalyzer) FindOutliers(context.Context, string) (*trends.OutlierReport, error) {
	f.outlierCalls++
	return f.outlierReport, f.outlierErr
}

func (f *fakeAnalyzer) ViralPlans(context.Context, string, string, float64) ([]trends.ViralPlan, error) {
	return f.plans, f.plansErr
}

func analysisRouter(conn *gorm.DB, user *models.User, service Analyzer) *gin.Engine {
	engine := gin.New()
	handler := NewAnalysisHandler(conn, service)
	authed := engine.Group("", withUser(user))
	authed.GET("/api/trend", handler.Trend)
	authed.POST("/api/outlier", handler.Outliers)
	authed.POST("/api/viral-list", handler.ViralPlans)
	return engine
}

func TestTrend_ConsumesQuotaAndReturnsReport(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "kakao_t1", models.TierFree)
	resetSnapshot(t, map[string]json.RawMessage{"FREE_TREND_LIMIT": json.RawMessage(`2`)})
	service := &fakeAnalyzer{trendReport: &trends.TrendReport{
		Region:   "KR",
		Analysis: trends.Analysis{TrendAnalysis: "short form everywhere"},
	}}
	engine := analysisRouter(conn, user, service)

	rec := performRequest(t, engine, http.MethodGet, "/api/trend?region=KR", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("body = %v, want success", body)
	}
	usage, _ := body["usage"].(map[string]any)
	if usage["current"] != float64(1) || usage["limit"] != float64(2) {
		t.Fatalf("usage = %v, want current 1 limit 2", usage)
	}

	var stored models.User
	if errFind := conn.First(&stored, "uid = ?", "kakao_t1").Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	if stored.TrendAnalysesThisWeek != 1 {
		t.Fatalf("trend counter = %d, want 1", stored.TrendAnalysesThisWeek)
	}
}

func TestTrend_OverLimitRejectedWithoutCallingService(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "kakao_t2", models.TierFree)
	if errUpdate := conn.Model(&models.User{}).Where("uid = ?", user.UID).
		Update("trend_analyses_this_week", 3).Error; errUpdate != nil {
		t.Fatalf("seed counter: %v", errUpdate)
	}
	resetSnapshot(t, map[string]json.RawMessage{"FREE_TREND_LIMIT": json.RawMessage(`3`)})
	service := &fakeAnalyzer{}
	engine := analysisRouter(conn, user, service)

	rec := performRequest(t, engine, http.MethodGet, "/api/trend", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", rec.Code, rec.Body.String())
	}
	if service.trendCalls != 0 {
		t.Fatalf("service called %d times despite exhausted quota", service.trendCalls)
	}
	body := decodeBody(t, rec)
	if _, ok := body["usage"]; !ok {
		t.Fatalf("403 body should carry usage: %v", body)
	}
}

func TestTrend_PaidTierIsUnmetered(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "kakao_t3", models.TierPro)
	resetSnapshot(t, map[string]json.RawMessage{"FREE_TREND_LIMIT": json.RawMessage(`0`)})
	service := &fakeAnalyzer{trendReport: &trends.TrendReport{}}
	engine := analysisRouter(conn, user, service)

	rec := performRequest(t, engine, http.MethodGet, "/api/trend", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for paid tier: %s", rec.Code, rec.Body.String())
	}

	var stored models.User
	if errFind := conn.First(&stored, "uid = ?", "kakao_t3").Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	if stored.TrendAnalysesThisWeek != 0 {
		t.Fatalf("paid tier counter = %d, want untouched", stored.TrendAnalysesThisWeek)
	}
}

func TestTrend_NoTrendingVideos(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "kakao_t4", models.TierPro)
	service := &fakeAnalyzer{trendErr: trends.ErrNoTrendingVideos}
	engine := analysisRouter(conn, user, service)

	rec := performRequest(t, engine, http.MethodGet, "/api/trend", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTrend_MissingServiceKeys(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "kakao_t5", models.TierPro)
	engine := analysisRouter(conn, user, nil)

	rec := performRequest(t, engine, http.MethodGet, "/api/trend", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestOutliers_ConsumesMonthlyQuota(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "kakao_o1", models.TierFree)
	resetSnapshot(t, map[string]json.RawMessage{"FREE_KEYWORD_LIMIT": json.RawMessage(`5`)})
	service := &fakeAnalyzer{outlierReport: &trends.OutlierReport{
		Outliers: []trends.Outlier{{ID: "v1", Title: "hit", Ratio: 42.5}},
		Analysis: "breakdown",
	}}
	engine := analysisRouter(conn, user, service)

	rec := performRequest(t, engine, http.MethodPost, "/api/outlier", `{"keyword":"camping"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["analysis"] != "breakdown" {
		t.Fatalf("body = %v, want analysis passthrough", body)
	}

	var stored models.User
	if errFind := conn.First(&stored, "uid = ?", "kakao_o1").Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	if stored.KeywordSearchesThisMonth != 1 {
		t.Fatalf("keyword counter = %d, want 1", stored.KeywordSearchesThisMonth)
	}
}

func TestOutliers_MissingKeyword(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "kakao_o2", models.TierFree)
	engine := analysisRouter(conn, user, &fakeAnalyzer{})

	rec := performRequest(t, engine, http.MethodPost, "/api/outlier", `{"keyword":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestViralPlans_NotMetered(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "kakao_v1", models.TierFree)
	resetSnapshot(t, map[string]json.RawMessage{"FREE_KEYWORD_LIMIT": json.RawMessage(`0`)})
	service := &fakeAnalyzer{plans: []trends.ViralPlan{{Title: "plan"}}}
	engine := analysisRouter(conn, user, service)

	rec := performRequest(t, engine, http.MethodPost, "/api/viral-list",
		`{"keyword":"camping","outlierTitle":"hit","ratio":42.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite exhausted quota: %s", rec.Code, rec.Body.String())
	}

	var stored models.User
	if errFind := conn.First(&stored, "uid = ?", "kakao_v1").Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	if stored.KeywordSearchesThisMonth != 0 {
		t.Fatalf("viral plans should not consume quota, counter = %d", stored.KeywordSearchesThisMonth)
	}
}

func TestViralPlans_MissingData(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "kakao_v2", models.TierFree)
	engine := analysisRouter(conn, user, &fakeAnalyzer{plansErr: trends.ErrMissingOutlier})

	rec := performRequest(t, engine, http.MethodPost, "/api/viral-list", `{"keyword":"camping"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

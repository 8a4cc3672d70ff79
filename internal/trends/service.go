// Package trends implements the analysis features: regional trend analysis,
// keyword outlier search, and viral plan generation.
package trends

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nextshorts/nextshorts/internal/gemini"
	"github.com/nextshorts/nextshorts/internal/youtube"
	log "github.com/sirupsen/logrus"
)

// outlierRatio is the view-to-subscriber ratio above which a video counts
// as an outlier.
const outlierRatio = 10

// maxOutliers caps how many outliers a report returns.
const maxOutliers = 5

// outlierSearchSize is how many search hits feed the outlier scan.
const outlierSearchSize = 15

// Region is one supported trend region.
type Region struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// SupportedRegions lists the regions trend analysis accepts, default first.
var SupportedRegions = []Region{
	{Code: "KR", Name: "South Korea", Label: "Korea 🇰🇷"},
	{Code: "US", Name: "USA", Label: "Global (US) 🌐"},
	{Code: "JP", Name: "Japan", Label: "Japan 🇯🇵"},
	{Code: "GB", Name: "United Kingdom", Label: "UK 🇬🇧"},
	{Code: "IN", Name: "India", Label: "India 🇮🇳"},
	{Code: "DE", Name: "Germany", Label: "Germany 🇩🇪"},
	{Code: "FR", Name: "France", Label: "France 🇫🇷"},
	{Code: "BR", Name: "Brazil", Label: "Brazil 🇧🇷"},
}

// RegionByCode resolves a region code, falling back to the default region.
func RegionByCode(code string) Region {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, region := range SupportedRegions {
		if region.Code == code {
			return region
		}
	}
	return SupportedRegions[0]
}

// Errors returned by the service.
var (
	// ErrNoTrendingVideos indicates the search returned no videos.
	ErrNoTrendingVideos = errors.New("trends: no trending videos found")
	// ErrMissingKeyword indicates a blank keyword.
	ErrMissingKeyword = errors.New("trends: keyword is required")
	// ErrMissingOutlier indicates viral plan input without an outlier title.
	ErrMissingOutlier = errors.New("trends: outlier title is required")
)

// VideoSource is the subset of the YouTube client the service needs.
type VideoSource interface {
	Search(ctx context.Context, query youtube.SearchQuery) ([]youtube.SearchResult, error)
	Videos(ctx context.Context, videoIDs []string) ([]youtube.VideoDetails, error)
	Channel(ctx context.Context, channelID string) (*youtube.ChannelStats, error)
}

// Generator is the subset of the Gemini client the service needs.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Service runs the analysis features against the video and AI backends.
type Service struct {
	videos VideoSource
	ai     Generator
}

// NewService constructs a Service.
func NewService(videos VideoSource, ai Generator) *Service {
	return &Service{videos: videos, ai: ai}
}

// Idea is one content idea inside a trend analysis.
type Idea struct {
	Title       string `json:"title"`
	Hook        string `json:"hook"`
	ScriptGuide string `json:"script_guide"`
}

// GlobalInsight carries the localization fields for non-KR analyses.
type GlobalInsight struct {
	ReactionSummary      string   `json:"reaction_summary"`
	LocalKeywords        []string `json:"local_keywords"`
	LocalizationStrategy string   `json:"localization_strategy"`
}

// Analysis is the structured AI output of a trend analysis.
type Analysis struct {
	TrendAnalysis string         `json:"trend_analysis"`
	Ideas         []Idea         `json:"ideas"`
	GlobalInsight *GlobalInsight `json:"global_insight,omitempty"`
}

// TrendVideo identifies the analyzed source video.
type TrendVideo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TrendReport is the result of AnalyzeTrend.
type TrendReport struct {
	Region        string     `json:"region"`
	OriginalVideo TrendVideo `json:"original_video"`
	Analysis      Analysis   `json:"analysis"`
}

// AnalyzeTrend analyzes the top trending short for a region.
func (s *Service) AnalyzeTrend(ctx context.Context, regionCode string) (*TrendReport, error) {
	region := RegionByCode(regionCode)
	isGlobal := region.Code != "KR"

	query := "shorts trending"
	if isGlobal {
		query = "shorts trending global"
	}
	results, errSearch := s.videos.Search(ctx, youtube.SearchQuery{
		Query:      query,
		Order:      youtube.OrderViewCount,
		RegionCode: region.Code,
		MaxResults: 5,
	})
	if errSearch != nil {
		return nil, errSearch
	}
	if len(results) == 0 {
		return nil, ErrNoTrendingVideos
	}

	top := results[0]
	prompt := trendPrompt(top.Title, region, isGlobal)

	text, errGenerate := s.ai.GenerateContent(ctx, prompt)
	if errGenerate != nil {
		return nil, errGenerate
	}

	var analysis Analysis
	if errExtract := gemini.ExtractJSONObject(text, &analysis); errExtract != nil {
		// Malformed AI output degrades to a format-error payload carrying
		// the raw text instead of failing the request.
		log.WithError(errExtract).WithField("video_id", top.VideoID).Warn("trends: unparseable analysis output")
		analysis = Analysis{
			TrendAnalysis: "데이터 파싱 실패",
			Ideas:         []Idea{{Title: "Error", Hook: "Format Error", ScriptGuide: text}},
		}
	}

	return &TrendReport{
		Region:        region.Code,
		OriginalVideo: TrendVideo{ID: top.VideoID, Title: top.Title},
		Analysis:      analysis,
	}, nil
}

// trendPrompt builds the analysis prompt. Transcript extraction is not
// wired, so the prompt always declares it unavailable.
func trendPrompt(videoTitle string, region Region, isGlobal bool) string {
	var builder strings.Builder
	builder.WriteString(`You are a Professional Content Strategist specialized in YouTube Shorts.
Analyze the following video data and regenerate a high-efficiency content idea for a mid-level creator.

Video Title: ` + videoTitle + `

IMPORTANT: The transcript below might be long. Please extract only the **CORE CONTEXT and KEY HOOKS** to minimize token usage and focus on what makes this video successful.
Transcript: Transcript not available

Region: ` + region.Name + `

Please provide the output in the following JSON format:
{
    "trend_analysis": "Summary of current visual/audio patterns",
    "ideas": [
        {
            "title": "Proposed Title",
            "hook": "Strong initial hook strategy",
            "script_guide": "3-step storyboard/script guide"
        }
    ],
    "global_insight": {
        "reaction_summary": "Summary of international audience reactions",
        "local_keywords": ["keyword1", "keyword2"],
        "localization_strategy": "How to adapt this international trend for the Korean market"
    }
}
`)
	if isGlobal {
		builder.WriteString(`
SPECIAL MISSION for Global Analysis:
1. Focus heavily on 'Non-verbal visual elements' that transcend language barriers.
2. Identify if there's a specific global BGM or challenge format.
3. MUST include a 'Localization Strategy' for the Korean market in the global_insight.
`)
	}
	builder.WriteString("\nResponse must be in Korean.")
	return builder.String()
}

// Outlier is one video whose views far exceed its channel size.
type Outlier struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	ViewCount        int64   `json:"viewCount"`
	SubscriberCount  int64   `json:"subscriberCount"`
	Ratio            float64 `json:"ratio"`
	ChannelID        string  `json:"channelId"`
	ChannelTitle     string  `json:"channelTitle"`
	ChannelThumbnail string  `json:"channelThumbnail"`
}

// OutlierReport is the result of FindOutliers.
type OutlierReport struct {
	Outliers []Outlier `json:"outliers"`
	Analysis string    `json:"analysis,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// FindOutliers searches a keyword and returns videos whose view count
// exceeds their channel's subscriber count by more than 10x, best first.
func (s *Service) FindOutliers(ctx context.Context, keyword string) (*OutlierReport, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrMissingKeyword
	}

	results, errSearch := s.videos.Search(ctx, youtube.SearchQuery{
		Query:      keyword,
		MaxResults: outlierSearchSize,
	})
	if errSearch != nil {
		return nil, errSearch
	}

	videoIDs := make([]string, 0, len(results))
	for _, result := range results {
		videoIDs = append(videoIDs, result.VideoID)
	}
	details, errVideos := s.videos.Videos(ctx, videoIDs)
	if errVideos != nil {
		return nil, errVideos
	}

	channels := make(map[string]*youtube.ChannelStats)
	outliers := make([]Outlier, 0, len(details))
	for _, video := range details {
		channel, cached := channels[video.ChannelID]
		if !cached {
			var errChannel error
			channel, errChannel = s.videos.Channel(ctx, video.ChannelID)
			if errChannel != nil {
				// One unavailable channel should not sink the whole scan.
				log.WithError(errChannel).WithField("channel_id", video.ChannelID).Warn("trends: channel lookup failed")
				continue
			}
			channels[video.ChannelID] = channel
		}

		ratio := float64(video.ViewCount)
		if channel.SubscriberCount > 0 {
			ratio = float64(video.ViewCount) / float64(channel.SubscriberCount)
		}
		if ratio <= outlierRatio {
			continue
		}
		outliers = append(outliers, Outlier{
			ID:               video.VideoID,
			Title:            video.Title,
			ViewCount:        video.ViewCount,
			SubscriberCount:  channel.SubscriberCount,
			Ratio:            ratio,
			ChannelID:        channel.ChannelID,
			ChannelTitle:     channel.Title,
			ChannelThumbnail: channel.ThumbnailURL,
		})
	}

	sort.Slice(outliers, func(i, j int) bool { return outliers[i].Ratio > outliers[j].Ratio })
	if len(outliers) == 0 {
		return &OutlierReport{Outliers: []Outlier{}, Message: "No outliers found for this keyword."}, nil
	}
	if len(outliers) > maxOutliers {
		outliers = outliers[:maxOutliers]
	}

	top := outliers[0]
	analysis, errGenerate := s.ai.GenerateContent(ctx, outlierPrompt(top))
	if errGenerate != nil {
		return nil, errGenerate
	}

	return &OutlierReport{Outliers: outliers, Analysis: analysis}, nil
}

func outlierPrompt(top Outlier) string {
	return fmt.Sprintf(`Analyze this YouTube 'Outlier' video which has a view-to-subscriber ratio of %.1fx.
Title: %s

Based on the title and the fact that it performed exceptionally well compared to the channel size, reverse-engineer its success.
Provide:
1. Success Cheat-sheet (Hook points, audience reaction triggers)
2. Thumbnail Copy Strategy
3. Audience Retention Strategy (Why did people keep watching?)

Response must be in Korean.`, top.Ratio, top.Title)
}

// ViralPlan is one generated planning draft.
type ViralPlan struct {
	Title         string `json:"title"`
	ViralTrigger  string `json:"viral_trigger"`
	ProductionTip string `json:"production_tip"`
}

// ViralPlans generates five planning drafts modeled on a successful outlier.
func (s *Service) ViralPlans(ctx context.Context, keyword, outlierTitle string, ratio float64) ([]ViralPlan, error) {
	keyword = strings.TrimSpace(keyword)
	outlierTitle = strings.TrimSpace(outlierTitle)
	if keyword == "" {
		return nil, ErrMissingKeyword
	}
	if outlierTitle == "" {
		return nil, ErrMissingOutlier
	}

	prompt := fmt.Sprintf(`You are a Viral Content Engineer.
Based on a successful 'Outlier' video related to the keyword "%s", generate 5 unique and highly viral video planning drafts for a creator to replicate that success.

Successful Outlier Info:
- Title: %s
- Success Multiplier: %.1fx higher views than subscribers.

Each draft MUST include:
1. title: A catchy, click-worthy title.
2. viral_trigger: The psychological reason why this will go viral (e.g., Curiosity, Fear of Missing Out, Unexpected Twist).
3. production_tip: A specific tip on how to film or edit this to maximize engagement.

Return the response as a valid JSON array of objects:
[
  {
    "title": "Title 1",
    "viral_trigger": "Trigger 1",
    "production_tip": "Tip 1"
  },
  ...
]

Language: Korean.
Focus on YouTube Shorts format.`, keyword, outlierTitle, ratio)

	text, errGenerate := s.ai.GenerateContent(ctx, prompt)
	if errGenerate != nil {
		return nil, errGenerate
	}

	var plans []ViralPlan
	if errExtract := gemini.ExtractJSONArray(text, &plans); errExtract != nil {
		return nil, fmt.Errorf("trends: parse viral plans: %w", errExtract)
	}
	return plans, nil
}

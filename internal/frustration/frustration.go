// Package frustration scores free text for frustration/emotional
// intensity using keyword, punctuation, and time-expression heuristics.
// It requires no external model or network call.
package frustration

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// keywords maps an English frustration cue to its weight in [0,1].
var keywords = map[string]float64{
	"nightmare": 1.0, "impossible": 0.95, "hate": 0.9, "worst": 0.9,
	"terrible": 0.9, "hell": 0.9, "disaster": 0.9, "furious": 0.95, "rage": 0.95,
	"frustrated": 0.8, "frustrating": 0.8, "annoying": 0.7, "annoyed": 0.7,
	"stuck": 0.75, "blocked": 0.7, "waste": 0.7, "wasted": 0.75,
	"pain": 0.7, "painful": 0.75, "struggle": 0.7, "struggling": 0.75, "headache": 0.7,
	"finally": 0.5, "hours": 0.4, "days": 0.5, "weeks": 0.6,
	"confusing": 0.5, "confused": 0.5, "unclear": 0.45, "broken": 0.55,
	"bug": 0.4, "bugs": 0.45, "issue": 0.35, "problem": 0.4, "error": 0.35,
	"fail": 0.5, "failed": 0.55, "failure": 0.6,
	"tricky": 0.3, "weird": 0.3, "strange": 0.3, "unexpected": 0.35,
	"workaround": 0.4, "hack": 0.35, "gotcha": 0.4,
}

// keywordsJA maps a Japanese frustration cue to its weight. Matched
// against the original-case content; Japanese script has no case fold.
var keywordsJA = map[string]float64{
	"最悪": 1.0, "地獄": 0.95, "絶望": 0.95, "クソ": 0.9, "死ぬ": 0.85, "殺す": 0.9,
	"ハマった": 0.8, "詰んだ": 0.85,
	"つらい": 0.75, "辛い": 0.75, "イライラ": 0.8, "困った": 0.6, "困る": 0.55,
	"面倒": 0.6, "めんどくさい": 0.65, "わからん": 0.5, "分からない": 0.45,
	"やっと": 0.5, "時間かかった": 0.6, "バグ": 0.4, "エラー": 0.35, "失敗": 0.5,
}

var capsWordPattern = regexp.MustCompile(`\b[A-Z]{3,}\b`)

type timePattern struct {
	re        *regexp.Regexp
	extractor func(match []string) float64
}

var timePatterns = []timePattern{
	{regexp.MustCompile(`(\d+)\s*hours?`), func(m []string) float64 { return atof(m[1]) }},
	{regexp.MustCompile(`(\d+)\s*時間`), func(m []string) float64 { return atof(m[1]) }},
	{regexp.MustCompile(`(\d+)\s*days?`), func(m []string) float64 { return atof(m[1]) * 8 }},
	{regexp.MustCompile(`(\d+)\s*日`), func(m []string) float64 { return atof(m[1]) * 8 }},
	{regexp.MustCompile(`half\s*(?:a\s*)?day`), func(m []string) float64 { return 4.0 }},
	{regexp.MustCompile(`半日`), func(m []string) float64 { return 4.0 }},
	{regexp.MustCompile(`all\s*day`), func(m []string) float64 { return 8.0 }},
	{regexp.MustCompile(`一日中`), func(m []string) float64 { return 8.0 }},
	{regexp.MustCompile(`(\d+)\s*weeks?`), func(m []string) float64 { return atof(m[1]) * 40 }},
	{regexp.MustCompile(`(\d+)\s*週間?`), func(m []string) float64 { return atof(m[1]) * 40 }},
}

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// Result is the outcome of scoring one piece of content.
type Result struct {
	Score         float64
	Confidence    float64
	Indicators    []string
	EstimatedHours *float64
}

// BoostFactor converts a frustration score into a boost multiplier,
// 1 + 2×score. Recall's hybrid scoring does not call it; it weights
// FrustrationScore directly.
func (r Result) BoostFactor() float64 {
	return 1 + 2*r.Score
}

// Analyze scores content for frustration. isPainful, when non-nil,
// overrides the keyword-derived score: true floors it at 0.7, false
// caps it at 0.3.
func Analyze(content string, isPainful *bool) Result {
	lower := strings.ToLower(content)
	var scores []float64
	var indicators []string

	for kw, weight := range keywords {
		if strings.Contains(lower, kw) {
			scores = append(scores, weight)
			indicators = append(indicators, "keyword:"+kw)
		}
	}
	for kw, weight := range keywordsJA {
		if strings.Contains(content, kw) {
			scores = append(scores, weight)
			indicators = append(indicators, "keyword_ja:"+kw)
		}
	}

	exclamations := strings.Count(content, "!")
	switch {
	case exclamations >= 3:
		scores = append(scores, 0.6)
		indicators = append(indicators, "exclamation:"+strconv.Itoa(exclamations))
	case exclamations >= 1:
		scores = append(scores, 0.3)
		indicators = append(indicators, "exclamation:"+strconv.Itoa(exclamations))
	}

	capsWords := capsWordPattern.FindAllString(content, -1)
	if len(capsWords) >= 2 {
		scores = append(scores, 0.5)
		indicators = append(indicators, "caps:"+strconv.Itoa(len(capsWords)))
	}

	estimatedHours := extractTimeSpent(content)
	if estimatedHours != nil {
		timeScore := math.Min(0.8, *estimatedHours/20.0)
		if timeScore > 0.2 {
			scores = append(scores, timeScore)
			indicators = append(indicators, "time_spent:"+strconv.FormatFloat(*estimatedHours, 'g', -1, 64)+"h")
		}
	}

	var baseScore float64
	if len(scores) > 0 {
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		baseScore = sum / float64(len(scores))
		boost := math.Min(0.2, float64(len(indicators))*0.03)
		baseScore = math.Min(1.0, baseScore+boost)
	}

	if isPainful != nil {
		if *isPainful {
			baseScore = math.Max(0.7, baseScore)
			indicators = append(indicators, "explicit:is_painful=true")
		} else {
			baseScore = math.Min(0.3, baseScore)
			indicators = append(indicators, "explicit:is_painful=false")
		}
	}

	confidence := math.Min(1.0, 0.3+float64(len(indicators))*0.15)

	return Result{
		Score:          round3(baseScore),
		Confidence:     round3(confidence),
		Indicators:     indicators,
		EstimatedHours: estimatedHours,
	}
}

// extractTimeSpent tries every time pattern and keeps the largest
// extracted hour value, since a piece of content can mention more than
// one time expression and the largest is the most informative.
func extractTimeSpent(content string) *float64 {
	lower := strings.ToLower(content)
	var max *float64
	for _, tp := range timePatterns {
		m := tp.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		hours := tp.extractor(m)
		if max == nil || hours > *max {
			h := hours
			max = &h
		}
	}
	return max
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

package diary

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// Chart ranks. This ordering only positions points on the trend chart; it is
// not a severity scale and must not be read as one.
const (
	RankAngry   = 0
	RankSadness = 1
	RankNeutral = 2
	RankJoy     = 3
)

var emotionRanks = map[string]int{
	"angry":   RankAngry,
	"sadness": RankSadness,
	"neutral": RankNeutral,
	"joy":     RankJoy,
}

var rankLabels = map[int]string{
	RankAngry:   "angry",
	RankSadness: "sadness",
	RankNeutral: "neutral",
	RankJoy:     "joy",
}

// EmotionPoint is one point of the emotion trend.
type EmotionPoint struct {
	Date  time.Time
	Value int
}

// MarshalJSON renders the date without a time component.
func (p EmotionPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  string `json:"date"`
		Value int    `json:"value"`
	}{
		Date:  p.Date.Format("2006-01-02"),
		Value: p.Value,
	})
}

// EmotionRank looks a label up case-insensitively. ok is false for labels
// outside the vocabulary.
func EmotionRank(label string) (int, bool) {
	rank, ok := emotionRanks[strings.ToLower(strings.TrimSpace(label))]
	return rank, ok
}

// EmotionLabel is the axis label for a rank, or "unknown".
func EmotionLabel(rank int) string {
	if l, ok := rankLabels[rank]; ok {
		return l
	}
	return "unknown"
}

// BuildTrend reduces entries into a date-ordered emotion series, reading each
// calendar date in the entry's own location.
//
// Entries without an emotion are skipped. Labels outside the vocabulary are
// charted as neutral. Points on the same date keep their input order.
func BuildTrend(entries []Entry) []EmotionPoint {
	return BuildTrendIn(entries, nil)
}

// BuildTrendIn is BuildTrend with calendar dates read in loc, the same way
// SelectView reads them. A nil loc keeps each entry's own location.
func BuildTrendIn(entries []Entry, loc *time.Location) []EmotionPoint {
	points := make([]EmotionPoint, 0, len(entries))
	for _, e := range entries {
		if e.Emotion == nil {
			continue
		}
		rank, ok := EmotionRank(*e.Emotion)
		if !ok {
			rank = RankNeutral
		}
		points = append(points, EmotionPoint{Date: dateOnly(e.CreatedAt, loc), Value: rank})
	}

	slices.SortStableFunc(points, func(a, b EmotionPoint) int {
		return a.Date.Compare(b.Date)
	})
	return points
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

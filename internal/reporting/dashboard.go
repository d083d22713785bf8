package reporting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
	"github.com/powergrid-labs/gridtrack/internal/core/storage"
)

// Scoring weights for the event-date suggestion.
const (
	weightParticipation = 0.5
	weightFrequency     = 0.3
	weightCategory      = 0.2
)

// DashboardStats aggregates per-date and per-category counts over [start,
// end]. Every date in the range appears in the maps, zero-filled when no
// activity falls on it.
func (s *Service) DashboardStats(ctx context.Context, start, end time.Time) (*DashboardStats, error) {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		DateCounts:        make(map[string]int64),
		ParticipantCounts: make(map[string]int64),
		CategoryCounts:    make(map[string]int64),
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(v1.DateLayout)
		stats.DateCounts[key] = 0
		stats.ParticipantCounts[key] = 0
	}

	states := make(map[string]struct{})
	for _, a := range records {
		date, ok := parseDateIn(a.EventDate, start, end)
		if !ok {
			continue
		}
		key := date.Format(v1.DateLayout)

		stats.TotalActivities++
		stats.TotalParticipants += int64(a.NumberOfParticipants)
		stats.DateCounts[key]++
		stats.ParticipantCounts[key] += int64(a.NumberOfParticipants)
		if a.EventCategory != "" {
			stats.CategoryCounts[a.EventCategory]++
		}
		if a.State != "" {
			states[a.State] = struct{}{}
		}
	}
	stats.UniqueStates = len(states)

	if stats.TotalActivities > 0 {
		stats.AvgParticipants = decimal.NewFromInt(stats.TotalParticipants).
			DivRound(decimal.NewFromInt(stats.TotalActivities), 2)
	} else {
		stats.AvgParticipants = decimal.Zero
	}

	return stats, nil
}

// Summary totals the full record set, no date filter.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	for _, a := range records {
		sum.TotalActivities++
		sum.TotalParticipants += int64(a.NumberOfParticipants)
	}
	return sum, nil
}

// Suggestion scores every date in the acceptance window and returns the best
// one. Participation share weighs 0.5, activity frequency 0.3 and the share
// of the overall most popular category 0.2. Returns storage.ErrNotFound when
// no dated activity falls inside the window.
func (s *Service) Suggestion(ctx context.Context) (*Suggestion, error) {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	type dayStats struct {
		participants int
		count        int
		topCategory  int
	}

	categoryCounts := make(map[string]int64)
	for _, a := range records {
		if _, ok := parseDateIn(a.EventDate, s.window.Start, s.window.End); !ok {
			continue
		}
		if a.EventCategory != "" {
			categoryCounts[a.EventCategory]++
		}
	}
	topCategory := ""
	var topCategoryCount int64
	for cat, n := range categoryCounts {
		if n > topCategoryCount || (n == topCategoryCount && (topCategory == "" || cat < topCategory)) {
			topCategory = cat
			topCategoryCount = n
		}
	}

	days := make(map[string]*dayStats)
	maxParticipants, maxCount := 0, 0
	for _, a := range records {
		date, ok := parseDateIn(a.EventDate, s.window.Start, s.window.End)
		if !ok {
			continue
		}
		key := date.Format(v1.DateLayout)
		d := days[key]
		if d == nil {
			d = &dayStats{}
			days[key] = d
		}
		d.participants += a.NumberOfParticipants
		d.count++
		if topCategory != "" && a.EventCategory == topCategory {
			d.topCategory++
		}
		if d.participants > maxParticipants {
			maxParticipants = d.participants
		}
		if d.count > maxCount {
			maxCount = d.count
		}
	}

	if len(days) == 0 {
		return nil, storage.ErrNotFound
	}

	best := &Suggestion{}
	for d := s.window.Start; !d.After(s.window.End); d = d.AddDate(0, 0, 1) {
		key := d.Format(v1.DateLayout)
		stats, ok := days[key]
		if !ok {
			continue
		}

		score := 0.0
		if maxParticipants > 0 {
			score += weightParticipation * float64(stats.participants) / float64(maxParticipants)
		}
		if maxCount > 0 {
			score += weightFrequency * float64(stats.count) / float64(maxCount)
		}
		if stats.count > 0 {
			score += weightCategory * float64(stats.topCategory) / float64(stats.count)
		}

		// Strictly greater keeps the earliest date on ties.
		if best.SuggestedDate == "" || score > best.Score {
			best = &Suggestion{
				SuggestedDate:     key,
				Score:             score,
				TotalParticipants: stats.participants,
				ActivityCount:     stats.count,
			}
		}
	}

	best.Reason = "highest combined participation, activity frequency and popular-category share"
	return best, nil
}

// parseDateIn parses a wire-format date and checks it against [start, end].
func parseDateIn(raw string, start, end time.Time) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(v1.DateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	if t.Before(start) || t.After(end) {
		return time.Time{}, false
	}
	return t, true
}

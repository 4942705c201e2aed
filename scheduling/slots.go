package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"interview-scheduler/database"
	"interview-scheduler/utils"
)

// MaxSlotWindowDays bounds a single FindSlots scan.
const MaxSlotWindowDays = 366

// DefaultPreferredTimes is every half hour from 09:00 to 16:30.
var DefaultPreferredTimes = func() []string {
	var out []string
	for h := 9; h <= 16; h++ {
		out = append(out, fmt.Sprintf("%02d:00", h), fmt.Sprintf("%02d:30", h))
	}
	return out
}()

type clock struct{ hour, minute int }

// FindSlots returns the open slots for every day in [start, end] (dates, the
// time of day is ignored) at each preferred time, ascending. A slot is open
// when no active interview sits on it. All interviews in the window are read
// with a single query.
func (s *Service) FindSlots(ctx context.Context, start, end time.Time, preferredTimes []string, excludeCandidateID uint) ([]time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return nil, invalid("start_date", "start and end dates are required")
	}
	first, last := utils.StartOfDay(start.UTC()), utils.StartOfDay(end.UTC())
	if last.Before(first) {
		return nil, invalid("end_date", "must not be before start_date")
	}
	days := int(last.Sub(first).Hours()/24) + 1
	if days > MaxSlotWindowDays {
		return nil, invalid("end_date", fmt.Sprintf("window exceeds %d days", MaxSlotWindowDays))
	}

	if len(preferredTimes) == 0 {
		preferredTimes = DefaultPreferredTimes
	}
	clocks := make([]clock, 0, len(preferredTimes))
	for _, p := range preferredTimes {
		h, m, err := utils.ParseClock(p)
		if err != nil {
			return nil, invalid("preferred_times", err.Error())
		}
		clocks = append(clocks, clock{h, m})
	}

	until := last.AddDate(0, 0, 1)
	booked, err := s.store.ListInterviews(ctx, database.InterviewFilter{
		From:       &first,
		Until:      &until,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, s.outcome("find slots", err, nil)
	}

	taken := make(map[int64]int, len(booked))
	own := make(map[int64]struct{})
	for _, iv := range booked {
		key := iv.InterviewDate.Unix()
		taken[key]++
		if excludeCandidateID != 0 && iv.CandidateID == excludeCandidateID {
			own[key] = struct{}{}
		}
	}

	seen := make(map[int64]struct{})
	var slots []time.Time
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		for _, c := range clocks {
			slot := day.Add(time.Duration(c.hour)*time.Hour + time.Duration(c.minute)*time.Minute)
			key := slot.Unix()
			if taken[key] > 0 {
				continue
			}
			if _, mine := own[key]; mine {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots, nil
}

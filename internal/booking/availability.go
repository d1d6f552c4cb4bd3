package booking

import (
	"sort"
	"time"
)

// AvailabilityPolicy controls how confirmed stays block the calendar.
type AvailabilityPolicy struct {
	// BlockCheckoutDay marks the check-out day of a stay as unavailable,
	// making the blocked span inclusive at both ends.
	BlockCheckoutDay bool
}

// DefaultAvailabilityPolicy blocks the check-out day.
func DefaultAvailabilityPolicy() AvailabilityPolicy {
	return AvailabilityPolicy{BlockCheckoutDay: true}
}

// Days enumerates the calendar days a stay occupies under the policy.
func (p AvailabilityPolicy) Days(r DateRange) []time.Time {
	start := Date(r.Start)
	last := Date(r.End)
	if !p.BlockCheckoutDay {
		last = last.AddDate(0, 0, -1)
	}
	if last.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, int(last.Sub(start)/(24*time.Hour))+1)
	for day := start; !day.After(last); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

// BlockedDates unions the days of every range into an ascending, duplicate-free
// slice. Callers pass only CONFIRMED stays. No ranges yields an empty result.
func (p AvailabilityPolicy) BlockedDates(ranges []DateRange) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, r := range ranges {
		for _, day := range p.Days(r) {
			seen[day] = struct{}{}
		}
	}
	out := make([]time.Time, 0, len(seen))
	for day := range seen {
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Conflicts returns the existing ranges whose days intersect the candidate's.
func (p AvailabilityPolicy) Conflicts(existing []DateRange, candidate DateRange) []DateRange {
	wanted := make(map[time.Time]struct{})
	for _, day := range p.Days(candidate) {
		wanted[day] = struct{}{}
	}
	if len(wanted) == 0 {
		return nil
	}
	var conflicts []DateRange
	for _, r := range existing {
		for _, day := range p.Days(r) {
			if _, ok := wanted[day]; ok {
				conflicts = append(conflicts, r)
				break
			}
		}
	}
	return conflicts
}

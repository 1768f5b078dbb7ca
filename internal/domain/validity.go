package domain

import "time"

// ValidityPeriod bounds a relationship in time. Once EndsAt is set it is
// never moved or cleared.
type ValidityPeriod struct {
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	EndReason *string    `json:"end_reason,omitempty"`
}

func OngoingFrom(start time.Time) ValidityPeriod {
	return ValidityPeriod{StartsAt: start}
}

func FixedTerm(start, end time.Time) ValidityPeriod {
	if end.Before(start) {
		end = start
	}
	return ValidityPeriod{StartsAt: start, EndsAt: &end}
}

// End closes the period at the given time. A period that already has an end
// keeps it and only gains a reason if it had none.
func (v ValidityPeriod) End(at time.Time, reason string) ValidityPeriod {
	out := v.clone()
	if out.EndsAt == nil {
		if at.Before(out.StartsAt) {
			at = out.StartsAt
		}
		out.EndsAt = &at
		out.EndReason = &reason
		return out
	}
	if out.EndReason == nil {
		out.EndReason = &reason
	}
	return out
}

func (v ValidityPeriod) IsActiveAt(now time.Time) bool {
	if now.Before(v.StartsAt) {
		return false
	}
	return v.EndsAt == nil || now.Before(*v.EndsAt)
}

func (v ValidityPeriod) HasEndedAt(now time.Time) bool {
	return v.EndsAt != nil && !now.Before(*v.EndsAt)
}

// DurationDays returns whole days between start and end for a closed period.
func (v ValidityPeriod) DurationDays() (int64, bool) {
	if v.EndsAt == nil {
		return 0, false
	}
	return wholeDays(v.EndsAt.Sub(v.StartsAt)), true
}

func (v ValidityPeriod) Equal(o ValidityPeriod) bool {
	if !v.StartsAt.Equal(o.StartsAt) {
		return false
	}
	if (v.EndsAt == nil) != (o.EndsAt == nil) || (v.EndsAt != nil && !v.EndsAt.Equal(*o.EndsAt)) {
		return false
	}
	if (v.EndReason == nil) != (o.EndReason == nil) || (v.EndReason != nil && *v.EndReason != *o.EndReason) {
		return false
	}
	return true
}

func (v ValidityPeriod) clone() ValidityPeriod {
	out := ValidityPeriod{StartsAt: v.StartsAt}
	if v.EndsAt != nil {
		t := *v.EndsAt
		out.EndsAt = &t
	}
	if v.EndReason != nil {
		r := *v.EndReason
		out.EndReason = &r
	}
	return out
}

func wholeDays(d time.Duration) int64 {
	return int64(d / (24 * time.Hour))
}

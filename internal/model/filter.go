package model

// FeedbackFilter is a conjunction of optional equality filters.
// A nil field matches everything.
type FeedbackFilter struct {
	Branch      *string
	Role        *Role
	Criticality *int
	Sentiment   *Sentiment
}

// IsEmpty reports whether no filter is set
func (f FeedbackFilter) IsEmpty() bool {
	return f.Branch == nil && f.Role == nil && f.Criticality == nil && f.Sentiment == nil
}

// Matches reports whether r satisfies every set filter
func (f FeedbackFilter) Matches(r *FeedbackRecord) bool {
	if f.Branch != nil && r.Branch != *f.Branch {
		return false
	}
	if f.Role != nil && r.Role != *f.Role {
		return false
	}
	if f.Criticality != nil && r.CriticalityLevel != *f.Criticality {
		return false
	}
	if f.Sentiment != nil && r.Sentiment != *f.Sentiment {
		return false
	}
	return true
}

package domain

type WashingMethod string

const (
	WashSimultaneous WashingMethod = "simultaneous"
	WashSequential   WashingMethod = "sequential"
)

// WashPlan describes how many dogs are washed and how they share tubs.
// Implemented by SingleDog, TwoDogsSimultaneous and TwoDogsSequential.
type WashPlan interface {
	Dogs() int
	Method() WashingMethod
	TubsNeeded() int
	TotalDuration() int
	Durations() (int, *int)
	isWashPlan()
}

type SingleDog struct {
	Duration int
}

func (SingleDog) Dogs() int                { return 1 }
func (SingleDog) Method() WashingMethod    { return "" }
func (SingleDog) TubsNeeded() int          { return 1 }
func (p SingleDog) TotalDuration() int     { return p.Duration }
func (p SingleDog) Durations() (int, *int) { return p.Duration, nil }
func (SingleDog) isWashPlan()              {}

// TwoDogsSimultaneous washes both dogs at once, one per tub.
type TwoDogsSimultaneous struct {
	Duration int
}

func (TwoDogsSimultaneous) Dogs() int                { return 2 }
func (TwoDogsSimultaneous) Method() WashingMethod    { return WashSimultaneous }
func (TwoDogsSimultaneous) TubsNeeded() int          { return 2 }
func (p TwoDogsSimultaneous) TotalDuration() int     { return p.Duration }
func (p TwoDogsSimultaneous) Durations() (int, *int) { return p.Duration, nil }
func (TwoDogsSimultaneous) isWashPlan()              {}

// TwoDogsSequential washes the dogs one after the other in the same tub.
type TwoDogsSequential struct {
	Duration1 int
	Duration2 int
}

func (TwoDogsSequential) Dogs() int             { return 2 }
func (TwoDogsSequential) Method() WashingMethod { return WashSequential }
func (TwoDogsSequential) TubsNeeded() int       { return 1 }
func (p TwoDogsSequential) TotalDuration() int  { return p.Duration1 + p.Duration2 }
func (p TwoDogsSequential) Durations() (int, *int) {
	d2 := p.Duration2
	return p.Duration1, &d2
}
func (TwoDogsSequential) isWashPlan() {}

// NewWashPlan builds a plan from the flat request fields and rejects
// combinations that do not describe a real wash.
func NewWashPlan(dogs int, method WashingMethod, d1 int, d2 *int) (WashPlan, error) {
	if d1 <= 0 {
		return nil, NewValidationError("duration1", "must be a positive number of minutes")
	}
	switch dogs {
	case 1:
		if method != "" {
			return nil, NewValidationError("washing_method", "only applies to two dogs")
		}
		if d2 != nil {
			return nil, NewValidationError("duration2", "only applies to two dogs washed sequentially")
		}
		return SingleDog{Duration: d1}, nil
	case 2:
		switch method {
		case WashSimultaneous:
			if d2 != nil {
				return nil, NewValidationError("duration2", "only applies to two dogs washed sequentially")
			}
			return TwoDogsSimultaneous{Duration: d1}, nil
		case WashSequential:
			if d2 == nil || *d2 <= 0 {
				return nil, NewValidationError("duration2", "is required for sequential washing")
			}
			return TwoDogsSequential{Duration1: d1, Duration2: *d2}, nil
		default:
			return nil, NewValidationError("washing_method", "must be simultaneous or sequential for two dogs")
		}
	default:
		return nil, NewValidationError("number_of_dogs", "must be 1 or 2")
	}
}

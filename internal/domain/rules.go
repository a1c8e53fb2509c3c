package domain

// Booking policy.
const (
	MaxStayDays          = 3
	ArrivalOffsetDays    = 1
	MaxAdvanceMonths     = 1
	MaxQueryWindowMonths = 6
	DefaultQueryMonths   = 1
)

// Violation messages returned to API clients.
const (
	MsgDepartureBeforeArrival = "Departure date can not be before arrival date."
	MsgMaxStay                = "Maximum 3 days of reservation is allowed."
	MsgArrivalAfterToday      = "Arrival date must be after today."
	MsgMaxAdvance             = "Maximum one month ahead allowed for arrival or departure date."

	MsgQueryEndBeforeStart = "The end date should be equal to or after start date."
	MsgQueryFromToday      = "Selection must start from today."
	MsgQueryMaxWindow      = "Maximum of 6 months between start date and end date allowed."
)

// ValidationResult is the ordered list of rule violations of one check.
// An empty result means the input is valid.
type ValidationResult []string

// Valid reports whether no rule was violated.
func (r ValidationResult) Valid() bool {
	return len(r) == 0
}

// Err converts a failed result into a *ValidationError, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}

	return &ValidationError{Messages: append([]string(nil), r...)}
}

// ValidateRequest checks a reservation range relative to today.
// An inverted range reports only the ordering violation; otherwise all
// remaining violations are reported together.
func ValidateRequest(arrival, departure, today Date) ValidationResult {
	if departure.Before(arrival) {
		return ValidationResult{MsgDepartureBeforeArrival}
	}

	var res ValidationResult
	if arrival.Before(today.AddDays(ArrivalOffsetDays)) {
		res = append(res, MsgArrivalAfterToday)
	}
	if DaysInclusive(arrival, departure) > MaxStayDays {
		res = append(res, MsgMaxStay)
	}
	limit := today.AddMonths(MaxAdvanceMonths)
	if arrival.After(limit) || departure.After(limit) {
		res = append(res, MsgMaxAdvance)
	}

	return res
}

// ValidateQuery checks an availability window relative to today.
func ValidateQuery(start, end, today Date) ValidationResult {
	if end.Before(start) {
		return ValidationResult{MsgQueryEndBeforeStart}
	}

	var res ValidationResult
	if start.Before(today) || end.Before(today) {
		res = append(res, MsgQueryFromToday)
	}
	if MonthsBetween(start, end) >= MaxQueryWindowMonths {
		res = append(res, MsgQueryMaxWindow)
	}

	return res
}

package memory

// ValidationError is returned when caller-supplied arguments fail type or
// shape expectations. It is always raised before any store access, so a
// validation failure never leaves partial side effects behind.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "invalid arguments: " + e.Reason
	}
	return "invalid argument " + e.Field + ": " + e.Reason
}

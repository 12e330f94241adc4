package chessdto

// DomainError is the displayable form of a host reject or local failure.
type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess protocol error"
}

// Rejected wraps a host reject reason. Rejects never close the connection.
func Rejected(reason string) DomainError {
	return DomainError{Code: "rejected", Message: reason, Retryable: true}
}

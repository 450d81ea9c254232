package failure

// Severity tells the scheduler whether an error may be retried or must
// abort the stage that produced it.
type Severity int

const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

// ClassifiedError is the error contract every pipeline package exposes:
// a plain error plus a severity the scheduler can act on. Packages keep
// their own cause enums; severity is the only field that crosses the
// package boundary for control flow.
type ClassifiedError interface {
	error
	Severity() Severity
}

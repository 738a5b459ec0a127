// Package classify decides whether a failed attempt is worth retrying.
package classify

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Class determines how the runner reacts to a failure.
type Class int

const (
	// Retryable failures are retried with backoff until the attempt budget runs out.
	Retryable Class = iota
	// Fatal failures abort the run immediately regardless of remaining budget.
	Fatal
)

// String returns the class name for logs.
func (c Class) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "fatal"
}

// Classifier maps a failure to a Class. Collaborators with structured error
// kinds can supply their own implementation; SubstringClassifier is the
// fallback policy.
type Classifier interface {
	Classify(err error) Class
}

// DefaultMarkers are the substrings that mark a failure as retryable.
// Unknown errors fail closed: anything not matching stops the retry loop.
var DefaultMarkers = []string{
	"timeout",
	"deadline exceeded",
	"network",
	"connection refused",
	"connection reset",
	"temporary",
	"temporarily",
	"device not found",
	"no such device",
	"device unavailable",
	"unavailable",
	"try again",
}

// SubstringClassifier classifies by case-insensitive substring match against
// a marker list, checking gRPC status codes first as the typed path.
// String matching is a deliberate simplification: the origin errors come
// from heterogeneous collaborators (media, cache, HTTP) that only agree on
// a message.
type SubstringClassifier struct {
	markers []string
}

// NewSubstringClassifier builds a classifier. With no markers given, the
// default marker set is used.
func NewSubstringClassifier(markers ...string) *SubstringClassifier {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	lowered := make([]string, len(markers))
	for i, m := range markers {
		lowered[i] = strings.ToLower(m)
	}
	return &SubstringClassifier{markers: lowered}
}

// Classify returns the class for err. nil is treated as retryable; it should
// not reach the classifier.
func (c *SubstringClassifier) Classify(err error) Class {
	if err == nil {
		return Retryable
	}

	// Typed path: gRPC collaborators carry a status code that beats string
	// matching.
	if s, ok := status.FromError(err); ok && s.Code() != codes.OK {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			return Retryable
		default:
			return Fatal
		}
	}

	return c.ClassifyMessage(err.Error())
}

// ClassifyMessage classifies a bare failure description.
func (c *SubstringClassifier) ClassifyMessage(msg string) Class {
	lower := strings.ToLower(msg)
	for _, m := range c.markers {
		if strings.Contains(lower, m) {
			return Retryable
		}
	}
	return Fatal
}

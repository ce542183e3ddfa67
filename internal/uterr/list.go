package uterr

import (
	"fmt"
	"strings"
)

// Problem is an error about one key of an input, like "sites[3].schedule".
type Problem struct {
	// Key is empty if the problem is about the whole input.
	Key string
	Err error
}

func (p Problem) Error() string {
	if p.Key == "" {
		return p.Err.Error()
	}
	return p.Key + ": " + p.Err.Error()
}

func (p Problem) Unwrap() error {
	return p.Err
}

// List is the problems found in one input.
// errors.Is matches both What and the errors of the problems.
type List struct {
	What     error
	Problems []Problem
}

// Error renders What and then a problem per line, indented.
func (l List) Error() string {
	var sb strings.Builder
	sb.WriteString(l.What.Error())
	sb.WriteString(":")

	for _, p := range l.Problems {
		for _, s := range strings.Split(p.Error(), "\n") {
			sb.WriteString("\n  ")
			sb.WriteString(s)
		}
	}

	return sb.String()
}

func (l List) Unwrap() []error {
	errs := make([]error, 0, len(l.Problems)+1)
	errs = append(errs, l.What)
	for _, p := range l.Problems {
		errs = append(errs, p)
	}
	return errs
}

// Keys returns the keys that have problems, in the order they were found.
func (l List) Keys() []string {
	keys := make([]string, len(l.Problems))
	for i, p := range l.Problems {
		keys[i] = p.Key
	}
	return keys
}

// ListBuilder collects problems to make a List.
type ListBuilder struct {
	What     error
	problems []Problem
}

// Add records err as a problem of key.
func (lb *ListBuilder) Add(key string, err error) {
	lb.problems = append(lb.problems, Problem{Key: key, Err: err})
}

// Addf records a problem of key with a formatted message.
func (lb *ListBuilder) Addf(key, format string, args ...interface{}) {
	lb.Add(key, fmt.Errorf(format, args...))
}

// Build returns nil if no problem was added.
func (lb *ListBuilder) Build() error {
	if len(lb.problems) == 0 {
		return nil
	}

	return List{
		What:     lb.What,
		Problems: lb.problems,
	}
}

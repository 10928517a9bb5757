package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Error maps request fields to what is wrong with them.
// Handlers send Fields as the details of a 400 response.
type Error struct {
	Fields map[string]string
}

// add records the first problem found for field.
func (e *Error) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// err returns e, or nil when no field failed.
func (e *Error) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Error lists the field messages in field order.
func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, len(fields))
	for i, field := range fields {
		msgs[i] = fmt.Sprintf("%s: %s", field, e.Fields[field])
	}
	return strings.Join(msgs, "; ")
}

package domain

import (
	"strings"
	"unicode"
)

const subjectRoot = "relationship"

func CommandSubject(kind string) string { return subjectRoot + ".commands." + kind }
func EventSubject(kind string) string   { return subjectRoot + ".events." + kind }
func QuerySubject(kind string) string   { return subjectRoot + ".queries." + kind }

// EventSubjectFor names the subject an event is published on, e.g.
// relationship.events.edge_created.
func EventSubjectFor(e Event) string {
	return EventSubject(snakeCase(e.EventType()))
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

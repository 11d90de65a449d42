package domain

import "strings"

// CustomSubjectID is the sentinel that makes the request carry its own subject text.
const CustomSubjectID = "custom"

type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var Subjects = []Subject{
	{ID: "mathematics", Name: "Mathematics"},
	{ID: "physics", Name: "Physics"},
	{ID: "chemistry", Name: "Chemistry"},
	{ID: "biology", Name: "Biology"},
	{ID: "history", Name: "History"},
	{ID: "geography", Name: "Geography"},
	{ID: "literature", Name: "Literature"},
	{ID: "computer_science", Name: "Computer Science"},
	{ID: CustomSubjectID, Name: "Custom Subject"},
}

// ResolveSubject returns the subject sent to the generator. The catalogue id is used as is,
// the custom sentinel is replaced by the trimmed custom text. An empty result means the request is unusable.
func ResolveSubject(subject, customSubject string) string {
	subject = strings.TrimSpace(subject)
	if subject == CustomSubjectID {
		return strings.TrimSpace(customSubject)
	}
	return subject
}

// IsKnownSubject reports whether id is in the catalogue.
func IsKnownSubject(id string) bool {
	for _, s := range Subjects {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Package curriculum is the static concept catalog and the next-concept
// recommendation rule. All lookups are pure reads over compile-time data;
// ordering within a subject is declaration order and is used only as a
// tie-break, never as a prerequisite ordering.
package curriculum

import "fmt"

// Concept is an atomic curriculum unit gated by prerequisites and a minimum
// grade level.
type Concept struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Prerequisites []string `json:"prerequisites"`
	GradeLevel    int      `json:"gradeLevel"`
}

type Subject struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Concepts    []Concept `json:"concepts"`
}

// Subjects returns every subject in the catalog.
func Subjects() []Subject {
	return subjects
}

func GetSubject(subjectID string) (Subject, bool) {
	for _, s := range subjects {
		if s.ID == subjectID {
			return s, true
		}
	}
	return Subject{}, false
}

func GetConcept(subjectID, conceptID string) (Concept, bool) {
	subject, ok := GetSubject(subjectID)
	if !ok {
		return Concept{}, false
	}
	for _, c := range subject.Concepts {
		if c.ID == conceptID {
			return c, true
		}
	}
	return Concept{}, false
}

// ConceptsForGrade returns every concept in the subject whose grade level is
// at or below the given grade, in catalog order. This is a superset gate:
// concepts from earlier grade bands stay available for review.
func ConceptsForGrade(subjectID string, gradeLevel int) []Concept {
	subject, ok := GetSubject(subjectID)
	if !ok {
		return nil
	}

	var available []Concept
	for _, c := range subject.Concepts {
		if c.GradeLevel <= gradeLevel {
			available = append(available, c)
		}
	}
	return available
}

// NextConcept picks the first grade-eligible concept, in catalog order, that
// is not yet completed and whose prerequisites are all completed. ok=false
// means the student has exhausted the grade-appropriate curriculum or is
// blocked on a prerequisite above their grade band.
func NextConcept(subjectID string, completed map[string]bool, gradeLevel int) (Concept, bool) {
	for _, c := range ConceptsForGrade(subjectID, gradeLevel) {
		if completed[c.ID] {
			continue
		}
		eligible := true
		for _, prereq := range c.Prerequisites {
			if !completed[prereq] {
				eligible = false
				break
			}
		}
		if eligible {
			return c, true
		}
	}
	return Concept{}, false
}

// ValidateGraph checks every subject's prerequisite relation: each referenced
// id must exist in the same subject and the relation must be acyclic. Run at
// startup so a bad curriculum edit fails the deploy instead of starving
// NextConcept.
func ValidateGraph() error {
	for _, subject := range subjects {
		if err := validateSubject(subject); err != nil {
			return err
		}
	}
	return nil
}

func validateSubject(subject Subject) error {
	prereqs := make(map[string][]string, len(subject.Concepts))
	for _, c := range subject.Concepts {
		prereqs[c.ID] = c.Prerequisites
	}

	for _, c := range subject.Concepts {
		for _, p := range c.Prerequisites {
			if _, ok := prereqs[p]; !ok {
				return fmt.Errorf("subject %s: concept %s requires unknown concept %s", subject.ID, c.ID, p)
			}
		}
	}

	// Colors: 0 unvisited, 1 on stack, 2 done.
	state := make(map[string]int, len(subject.Concepts))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case 1:
			return fmt.Errorf("subject %s: prerequisite cycle through %s", subject.ID, id)
		case 2:
			return nil
		}
		state[id] = 1
		for _, p := range prereqs[id] {
			if err := visit(p); err != nil {
				return err
			}
		}
		state[id] = 2
		return nil
	}

	for _, c := range subject.Concepts {
		if err := visit(c.ID); err != nil {
			return err
		}
	}
	return nil
}

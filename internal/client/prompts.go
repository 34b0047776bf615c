package client

import "fmt"

// TutorContext is everything the tutor prompt knows about the student:
// catalog facts plus a progress digest string, never raw ledger rows.
type TutorContext struct {
	GradeLevel         int
	Subject            string
	ConceptName        string
	ConceptDescription string
	ProgressDigest     string
}

func TutorSystemPrompt(c TutorContext) string {
	return fmt.Sprintf(`You are an encouraging AI tutor for a grade %d student learning %s.

Current concept: %s
%s

Student's learning history: %s

Guidelines:
- Use age-appropriate language for grade %d
- Celebrate small wins and progress
- If the student is struggling, break concepts into smaller steps
- Keep responses concise and engaging
- Use examples relevant to their age group
- Ask questions to check understanding
- Be patient and supportive

When generating practice problems:
- Match the difficulty to grade %d
- Provide hints if asked
- Explain why answers are correct or incorrect`,
		c.GradeLevel, c.Subject, c.ConceptName, c.ConceptDescription, c.ProgressDigest,
		c.GradeLevel, c.GradeLevel)
}

// CoachContext describes the linked child the parent is asking about.
type CoachContext struct {
	ChildGradeLevel     int
	ChildProgressDigest string
}

func CoachSystemPrompt(c CoachContext) string {
	return fmt.Sprintf(`You are a supportive AI coach for parents of students using Open Alpha.

The parent's child is in grade %d.
Child's recent progress: %s

Guidelines:
- Help the parent understand their child's learning journey
- Suggest practical ways to support learning at home
- Never do the child's work - focus on the parent's supportive role
- Be warm, encouraging, and practical
- Explain educational concepts in parent-friendly terms
- Offer specific activities to reinforce what the child is learning
- Provide encouragement strategies and tips
- Acknowledge that every child learns differently`,
		c.ChildGradeLevel, c.ChildProgressDigest)
}

func quizPrompt(subject, conceptName string, gradeLevel, count int) string {
	return fmt.Sprintf(`Generate %d multiple-choice quiz questions for a grade %d student on the topic: %s (%s).

Format each question as JSON:
{
  "questions": [
    {
      "question": "The question text",
      "options": ["A) option1", "B) option2", "C) option3", "D) option4"],
      "correctAnswer": "A",
      "explanation": "Why this is the correct answer"
    }
  ]
}

Make questions age-appropriate and progressively challenging.`,
		count, gradeLevel, conceptName, subject)
}

package course

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	quizQuestionsTag  = "quizquestions"
	quizQuestionsText = "a quiz requires at least one question"

	correctOptionTag  = "correctoption"
	correctOptionText = "correct_option must index an existing option"
)

func init() {
	core.Validate.RegisterStructValidation(assignmentStructValidation, NewAssignment{})
	core.RegisterCustomTranslation(quizQuestionsTag, quizQuestionsText)
	core.RegisterCustomTranslation(correctOptionTag, correctOptionText)
}

// assignmentStructValidation does struct level validation on NewAssignment.
func assignmentStructValidation(sl validator.StructLevel) {
	na, ok := sl.Current().Interface().(NewAssignment)
	if !ok {
		return
	}
	if na.Type == TypeQuiz {
		if len(na.Questions) == 0 {
			sl.ReportError(na.Questions, "questions", "Questions", quizQuestionsTag, "")
			return
		}
		for _, q := range na.Questions {
			if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
				sl.ReportError(na.Questions, "questions", "Questions", correctOptionTag, "")
				return
			}
		}
	}
}

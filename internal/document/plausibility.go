package document

import "regexp"

const minPlausibleChars = 50

var (
	examIndicators = []*regexp.Regexp{
		regexp.MustCompile(`\d+[.)]`),
		regexp.MustCompile(`Q\d+`),
		regexp.MustCompile(`[Qq]uestion`),
		regexp.MustCompile(`[Aa]nswer`),
		regexp.MustCompile(`(?i)\bmarks?\b`),
	}
	syllabusIndicators = []*regexp.Regexp{
		regexp.MustCompile(`[Uu]nit`),
		regexp.MustCompile(`[Mm]odule`),
		regexp.MustCompile(`[Cc]hapter`),
		regexp.MustCompile(`[Ss]yllabus`),
		regexp.MustCompile(`[Cc]ourse`),
		regexp.MustCompile(`[Oo]bjective`),
		regexp.MustCompile(`[Tt]opic`),
	}
)

// LooksLikeExam reports whether text is long enough and carries at least
// two typical exam markers (numbering, "Question", "Answer", marks).
func LooksLikeExam(text string) bool {
	return len(text) >= minPlausibleChars && countMatches(text, examIndicators) >= 2
}

// LooksLikeSyllabus reports whether text is long enough and carries at
// least two typical syllabus markers (Unit, Module, Chapter, Course, ...).
func LooksLikeSyllabus(text string) bool {
	return len(text) >= minPlausibleChars && countMatches(text, syllabusIndicators) >= 2
}

func countMatches(text string, patterns []*regexp.Regexp) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}

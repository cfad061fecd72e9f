package extract

import (
	"regexp"
	"strings"
)

// Entities holds contact details and keyword matches pulled from CV text.
type Entities struct {
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	Experience []string `json:"experience,omitempty"`
	Education  []string `json:"education,omitempty"`
	Languages  []string `json:"languages,omitempty"`
}

// EntityExtractor pulls structured entities out of raw CV text.
type EntityExtractor interface {
	Extract(text string) *Entities
}

// RegexEntityExtractor matches entities with regular expressions and keyword
// dictionaries. Good enough for screening context; an NER model can replace
// it behind the same interface.
type RegexEntityExtractor struct {
	skills     []string
	languages  []string
	eduRegexes []*regexp.Regexp
}

var (
	emailRe = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phoneRe = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?(\(?\d{3}\)?[-.\s]?)?\d{3}[-.\s]?\d{4}`)
	expRe   = regexp.MustCompile(`(?i)(\d+)\s*\+?\s*years?\s*(of\s*)?experience`)
)

var techSkills = []string{
	"JavaScript", "TypeScript", "Python", "Java", "C#", "C++", "Ruby",
	"Go", "Rust", "PHP", "React", "Node.js", "Angular", "Vue", "SQL",
	"MongoDB", "PostgreSQL", "MySQL", "Redis", "Docker", "Kubernetes",
	"AWS", "Azure", "GCP", "Git", "CI/CD", "Agile", "Scrum", "REST API",
	"GraphQL", "TDD", "Express", "Django", "Flask", "Spring", "Laravel",
	".NET",
}

var spokenLanguages = []string{
	"English", "Vietnamese", "Chinese", "Japanese", "Korean", "French",
	"German", "Spanish",
}

var educationKeywords = []string{
	"Bachelor", "Master", "PhD", "Degree", "University", "College",
}

// NewRegexEntityExtractor builds the extractor with the default dictionaries.
func NewRegexEntityExtractor() *RegexEntityExtractor {
	e := &RegexEntityExtractor{
		skills:    techSkills,
		languages: spokenLanguages,
	}
	for _, kw := range educationKeywords {
		// A keyword plus up to 100 chars of context, ended by a period
		// or newline.
		e.eduRegexes = append(e.eduRegexes,
			regexp.MustCompile(`(?i)`+regexp.QuoteMeta(kw)+`[^.\n]{0,100}(\.|\n)`))
	}
	return e
}

// Extract scans the text once per dictionary. Keyword matching is
// case-insensitive substring containment.
func (e *RegexEntityExtractor) Extract(text string) *Entities {
	entities := &Entities{}

	if m := emailRe.FindString(text); m != "" {
		entities.Email = m
	}
	if m := phoneRe.FindString(text); m != "" {
		entities.Phone = m
	}

	lower := strings.ToLower(text)
	for _, skill := range e.skills {
		if strings.Contains(lower, strings.ToLower(skill)) {
			entities.Skills = append(entities.Skills, skill)
		}
	}
	for _, lang := range e.languages {
		if strings.Contains(lower, strings.ToLower(lang)) {
			entities.Languages = append(entities.Languages, lang)
		}
	}

	for _, m := range expRe.FindAllString(text, -1) {
		entities.Experience = append(entities.Experience, strings.TrimSpace(m))
	}

	for _, re := range e.eduRegexes {
		for _, m := range re.FindAllString(text, -1) {
			entities.Education = append(entities.Education, strings.TrimSpace(m))
		}
	}

	return entities
}

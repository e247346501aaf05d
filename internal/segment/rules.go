package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Verdict is the outcome of a single heading rule.
type Verdict int

const (
	Undecided Verdict = iota
	Heading
	NotHeading
)

// Rule is one step of the heading classifier. Rules run in order and the
// first decisive verdict wins; a line no rule decides is body text.
type Rule struct {
	Name  string
	Check func(line string, words []string) Verdict
}

const (
	maxHeadingChars = 100
	maxHeadingWords = 15
	minCapitalRatio = 0.6
)

// enumerationPattern matches leading labels such as "1. ", "2.3 ", "2.3. " and "A. ".
var enumerationPattern = regexp.MustCompile(`^(\d+\.(\d+\.?)*|[A-Z]\.)\s`)

// DefaultRules is the heading rule chain. Order matters.
var DefaultRules = []Rule{
	{Name: "max-length", Check: ruleMaxLength},
	{Name: "max-words", Check: ruleMaxWords},
	{Name: "enumeration", Check: ruleEnumeration},
	{Name: "capitalized-words", Check: ruleCapitalizedWords},
	{Name: "all-caps", Check: ruleAllCaps},
}

func ruleMaxLength(line string, _ []string) Verdict {
	if utf8.RuneCountInString(line) > maxHeadingChars {
		return NotHeading
	}
	return Undecided
}

func ruleMaxWords(_ string, words []string) Verdict {
	if len(words) > maxHeadingWords {
		return NotHeading
	}
	return Undecided
}

func ruleEnumeration(line string, _ []string) Verdict {
	if enumerationPattern.MatchString(line) {
		return Heading
	}
	return Undecided
}

func ruleCapitalizedWords(_ string, words []string) Verdict {
	if len(words) == 0 {
		return Undecided
	}
	capped := 0
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			capped++
		}
	}
	if float64(capped)/float64(len(words)) >= minCapitalRatio {
		return Heading
	}
	return Undecided
}

func ruleAllCaps(line string, _ []string) Verdict {
	letters := 0
	for _, r := range line {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return Undecided
		}
		letters++
	}
	if letters > 0 {
		return Heading
	}
	return Undecided
}

// IsHeading runs rules over the trimmed line. Empty lines are never headings.
func IsHeading(rules []Rule, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	words := strings.Fields(line)
	for _, r := range rules {
		switch r.Check(line, words) {
		case Heading:
			return true
		case NotHeading:
			return false
		}
	}
	return false
}

package validation

import "regexp"

// Hygiene patterns over-reject on purpose: a legitimate value that happens to
// contain one of these fragments is refused rather than stored.
var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)<[^>]*\bon[a-z]+\s*=`),
	regexp.MustCompile(`(?i)<img[^>]*onerror`),
	regexp.MustCompile(`(?i)<[^>]*\bsrc\s*=\s*["']?\s*javascript:`),
	regexp.MustCompile(`(?i)javascript:`),
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)'\s*;?\s*DROP\s+TABLE`),
	regexp.MustCompile(`(?i)'\s*;?\s*DELETE\s+FROM`),
	regexp.MustCompile(`(?i)'\s*;?\s*INSERT\s+INTO`),
	regexp.MustCompile(`(?i)'\s*;?\s*UPDATE\s+\w+\s+SET`),
	regexp.MustCompile(`(?i)'\s*OR\s*'?\d+'?\s*=\s*'?\d+`),
	regexp.MustCompile(`(?i)\bOR\s+\d+\s*=\s*\d+`),
	regexp.MustCompile(`(?m)--[ \t]*$`),
}

// ContainsXSS reports whether v carries a script tag, an inline event
// handler, or a javascript: URL.
func ContainsXSS(v string) bool {
	return matchAny(xssPatterns, v)
}

// ContainsInjectionPattern reports whether v looks like a tampered query
// fragment (quoted statement terminators, tautologies, trailing comments).
func ContainsInjectionPattern(v string) bool {
	return matchAny(injectionPatterns, v)
}

// IsClean is true when v passes both hygiene checks.
func IsClean(v string) bool {
	return !ContainsXSS(v) && !ContainsInjectionPattern(v)
}

func matchAny(patterns []*regexp.Regexp, v string) bool {
	if v == "" {
		return false
	}
	for _, p := range patterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}

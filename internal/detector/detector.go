// Package detector implements validated pattern detection of sensitive data
// within single lines of text. Every detector pairs a regex with a
// normalization and validation step that suppresses the high false-positive
// rate of naive digit-run matching. Detection is pure: no I/O, deterministic
// given identical input.
package detector

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	regexp "github.com/wasilibs/go-re2"

	"github.com/ahrav/datasentry/internal/domain/scanning"
)

// Match is one validated detection within a line, positioned by 0-based
// character offsets into the line as scanned. The raw value never leaves
// this package; only the digest of its normalized form.
type Match struct {
	Type        scanning.FindingType
	ValueHash   string
	LineNumber  int
	ColumnStart int
	ColumnEnd   int
	Context     string
	Confidence  scanning.Confidence
}

var (
	ssnPattern          = regexp.MustCompile(`\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`)
	creditCardPattern   = regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b|\b\d{15,16}\b`)
	awsAccessKeyPattern = regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)
	awsSecretKeyPattern = regexp.MustCompile(`\b[A-Za-z0-9/+=]{40}\b`)
	emailPattern        = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneUSPattern      = regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
)

// Detector runs the battery of sensitive-data detectors over lines of text.
type Detector struct {
	cfg     Config
	enabled map[scanning.FindingType]bool
}

// New creates a Detector from the given configuration.
func New(cfg Config) *Detector {
	enabled := make(map[scanning.FindingType]bool, len(cfg.Detectors))
	for _, name := range cfg.Detectors {
		if t, err := scanning.ParseFindingType(name); err == nil {
			enabled[t] = true
		}
	}
	return &Detector{cfg: cfg, enabled: enabled}
}

// Detect scans a single line and returns all validated matches. A line may
// yield matches of multiple types; matches of the same type never overlap.
func (d *Detector) Detect(line string, lineNumber int) []Match {
	var matches []Match
	if d.enabled[scanning.FindingTypeSSN] {
		matches = append(matches, d.detectSSN(line, lineNumber)...)
	}
	if d.enabled[scanning.FindingTypeCreditCard] {
		matches = append(matches, d.detectCreditCard(line, lineNumber)...)
	}
	if d.enabled[scanning.FindingTypeAWSAccessKey] {
		matches = append(matches, d.detectAWSAccessKey(line, lineNumber)...)
	}
	if d.enabled[scanning.FindingTypeAWSSecretKey] {
		matches = append(matches, d.detectAWSSecretKey(line, lineNumber)...)
	}
	if d.enabled[scanning.FindingTypeEmail] {
		matches = append(matches, d.detectEmail(line, lineNumber)...)
	}
	if d.enabled[scanning.FindingTypePhoneUS] {
		matches = append(matches, d.detectPhoneUS(line, lineNumber)...)
	}
	return matches
}

// detectSSN finds social security numbers. Candidates normalize to exactly 9
// digits; area codes 000, 666 and 9xx are invalid per SSA allocation rules.
func (d *Detector) detectSSN(line string, lineNumber int) []Match {
	var matches []Match
	for _, loc := range ssnPattern.FindAllStringIndex(line, -1) {
		normalized := stripSeparators(line[loc[0]:loc[1]])
		if len(normalized) != 9 || !isDigits(normalized) {
			continue
		}
		if strings.HasPrefix(normalized, "000") ||
			strings.HasPrefix(normalized, "666") ||
			strings.HasPrefix(normalized, "9") {
			continue
		}
		matches = append(matches, d.newMatch(scanning.FindingTypeSSN, line, loc, lineNumber, hashValue(normalized), scanning.ConfidenceHigh))
	}
	return matches
}

// detectCreditCard finds payment card numbers and validates them with the
// Luhn checksum. Candidates failing the checksum are rejected outright; no
// lower-confidence fallback is emitted.
func (d *Detector) detectCreditCard(line string, lineNumber int) []Match {
	var matches []Match
	for _, loc := range creditCardPattern.FindAllStringIndex(line, -1) {
		normalized := stripSeparators(line[loc[0]:loc[1]])
		if !luhnValid(normalized) {
			continue
		}
		matches = append(matches, d.newMatch(scanning.FindingTypeCreditCard, line, loc, lineNumber, hashValue(normalized), scanning.ConfidenceHigh))
	}
	return matches
}

// detectAWSAccessKey finds AWS access key ids by their fixed AKIA prefix.
func (d *Detector) detectAWSAccessKey(line string, lineNumber int) []Match {
	var matches []Match
	for _, loc := range awsAccessKeyPattern.FindAllStringIndex(line, -1) {
		value := line[loc[0]:loc[1]]
		matches = append(matches, d.newMatch(scanning.FindingTypeAWSAccessKey, line, loc, lineNumber, hashValue(value), scanning.ConfidenceHigh))
	}
	return matches
}

// detectAWSSecretKey sweeps for 40-character base64-alphabet runs. The
// pattern is intentionally wide; requiring a mix of upper, lower and digit
// characters is the only false-positive mitigation, and confidence is capped
// at medium. Missed credentials cost more than noisy ones.
func (d *Detector) detectAWSSecretKey(line string, lineNumber int) []Match {
	var matches []Match
	for _, loc := range awsSecretKeyPattern.FindAllStringIndex(line, -1) {
		value := line[loc[0]:loc[1]]
		if !mixesCharacterClasses(value) {
			continue
		}
		matches = append(matches, d.newMatch(scanning.FindingTypeAWSSecretKey, line, loc, lineNumber, hashValue(value), scanning.ConfidenceMedium))
	}
	return matches
}

// detectEmail finds email addresses. The domain part must contain a dot.
// Hashing lower-cases the value first so case variants dedupe together.
func (d *Detector) detectEmail(line string, lineNumber int) []Match {
	var matches []Match
	for _, loc := range emailPattern.FindAllStringIndex(line, -1) {
		value := line[loc[0]:loc[1]]
		at := strings.LastIndex(value, "@")
		if at < 0 || !strings.Contains(value[at+1:], ".") {
			continue
		}
		matches = append(matches, d.newMatch(scanning.FindingTypeEmail, line, loc, lineNumber, hashValue(strings.ToLower(value)), scanning.ConfidenceHigh))
	}
	return matches
}

// detectPhoneUS finds US phone numbers. Normalization keeps digits only and
// drops a leading country code; area codes 000 and 555 are rejected.
func (d *Detector) detectPhoneUS(line string, lineNumber int) []Match {
	var matches []Match
	for _, loc := range phoneUSPattern.FindAllStringIndex(line, -1) {
		normalized := digitsOnly(line[loc[0]:loc[1]])
		if len(normalized) == 11 && normalized[0] == '1' {
			normalized = normalized[1:]
		}
		if len(normalized) != 10 {
			continue
		}
		if strings.HasPrefix(normalized, "000") || strings.HasPrefix(normalized, "555") {
			continue
		}
		matches = append(matches, d.newMatch(scanning.FindingTypePhoneUS, line, loc, lineNumber, hashValue(normalized), scanning.ConfidenceHigh))
	}
	return matches
}

// newMatch converts a byte-offset regex match into a Match with rune-based
// column offsets and extracted context.
func (d *Detector) newMatch(
	t scanning.FindingType,
	line string,
	loc []int,
	lineNumber int,
	valueHash string,
	confidence scanning.Confidence,
) Match {
	colStart := utf8.RuneCountInString(line[:loc[0]])
	colEnd := colStart + utf8.RuneCountInString(line[loc[0]:loc[1]])
	return Match{
		Type:        t,
		ValueHash:   valueHash,
		LineNumber:  lineNumber,
		ColumnStart: colStart,
		ColumnEnd:   colEnd,
		Context:     d.extractContext(line, colStart, colEnd),
		Confidence:  confidence,
	}
}

// extractContext captures up to ContextWindow characters on each side of the
// match span, trims surrounding whitespace, and hard-truncates the result
// with a trailing ellipsis marker.
func (d *Detector) extractContext(line string, start, end int) string {
	runes := []rune(line)

	ctxStart := start - d.cfg.ContextWindow
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + d.cfg.ContextWindow
	if ctxEnd > len(runes) {
		ctxEnd = len(runes)
	}

	context := strings.TrimSpace(string(runes[ctxStart:ctxEnd]))
	if trimmed := []rune(context); len(trimmed) > d.cfg.MaxContextLength {
		context = string(trimmed[:d.cfg.MaxContextLength]) + "..."
	}
	return context
}

// hashValue produces the hex sha256 digest of a normalized value.
func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// luhnValid reports whether a digit string of plausible card length passes
// the Luhn mod-10 checksum.
func luhnValid(number string) bool {
	if len(number) < 13 || len(number) > 19 || !isDigits(number) {
		return false
	}

	var checksum int
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		checksum += digit
		double = !double
	}
	return checksum%10 == 0
}

// stripSeparators removes hyphens and whitespace from a candidate value.
func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// digitsOnly keeps only ASCII digits.
func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// mixesCharacterClasses reports whether s contains at least one uppercase
// letter, one lowercase letter and one digit.
func mixesCharacterClasses(s string) bool {
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

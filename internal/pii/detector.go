package pii

import (
	"regexp"
	"strings"

	"github.com/privhq/dsarkit/internal/dsar"
)

// PII type names emitted by the detector.
const (
	TypeEmail   = "email"
	TypePhone   = "phone"
	TypeAddress = "address"
)

// Fixed confidences per detector rule.
const (
	confEmail   = 0.99
	confPhone   = 0.90
	confAddress = 0.60
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\-\.\s]{7,}\d`)
)

// addressHints are weak contextual signals; a match produces a single
// zero-length finding rather than a precise redaction target.
var addressHints = []string{"street", "ave", "road", "rd", "st "}

// RawFinding is a detector hit before it is attached to an artifact and
// classified against the subject's identifiers.
type RawFinding struct {
	PIIType    string
	Value      string
	Start      int
	End        int
	Confidence float64
}

// Detect scans content and returns raw findings in a fixed order: all email
// matches, then all phone matches, then at most one address-context finding.
// Offsets are byte offsets into content.
func Detect(content string) []RawFinding {
	var findings []RawFinding
	for _, m := range emailRe.FindAllStringIndex(content, -1) {
		findings = append(findings, RawFinding{
			PIIType:    TypeEmail,
			Value:      content[m[0]:m[1]],
			Start:      m[0],
			End:        m[1],
			Confidence: confEmail,
		})
	}
	for _, m := range phoneRe.FindAllStringIndex(content, -1) {
		findings = append(findings, RawFinding{
			PIIType:    TypePhone,
			Value:      content[m[0]:m[1]],
			Start:      m[0],
			End:        m[1],
			Confidence: confPhone,
		})
	}
	low := strings.ToLower(content)
	for _, hint := range addressHints {
		if strings.Contains(low, hint) {
			findings = append(findings, RawFinding{
				PIIType:    TypeAddress,
				Value:      "<context>",
				Confidence: confAddress,
			})
			break
		}
	}
	return findings
}

// DetectAll scans every artifact and classifies each finding against the
// subject identifier set. Artifacts are processed in input order.
func DetectAll(artifacts []dsar.Artifact, subject *SubjectIdentifiers) []dsar.Finding {
	var findings []dsar.Finding
	for _, art := range artifacts {
		for _, raw := range Detect(art.Content) {
			findings = append(findings, dsar.Finding{
				ArtifactID: art.ID,
				PIIType:    raw.PIIType,
				Value:      raw.Value,
				Start:      raw.Start,
				End:        raw.End,
				Confidence: raw.Confidence,
				ThirdParty: subject.ThirdParty(raw.PIIType, raw.Value),
			})
		}
	}
	return findings
}

package pii

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail canonicalizes an email for identity comparison:
// NFC normalization, surrounding whitespace stripped, lower-cased.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// NormalizePhone strips surrounding whitespace only. Phone values are
// otherwise compared raw; separator style is part of the identity.
func NormalizePhone(s string) string {
	return strings.TrimSpace(s)
}

// SubjectIdentifiers is the set of values known to identify the requesting
// subject. Findings whose value is outside this set are third-party data.
type SubjectIdentifiers struct {
	emails map[string]bool
	phones map[string]bool
}

// NewSubjectIdentifiers seeds the set with the subject's request email.
func NewSubjectIdentifiers(subjectEmail string) *SubjectIdentifiers {
	s := &SubjectIdentifiers{
		emails: make(map[string]bool),
		phones: make(map[string]bool),
	}
	s.AddEmail(subjectEmail)
	return s
}

// AddEmail enriches the set with another subject email (e.g. from a CRM
// profile or identity record). Empty values are ignored.
func (s *SubjectIdentifiers) AddEmail(email string) {
	if v := NormalizeEmail(email); v != "" {
		s.emails[v] = true
	}
}

// AddPhone enriches the set with a subject phone number.
func (s *SubjectIdentifiers) AddPhone(phone string) {
	if v := NormalizePhone(phone); v != "" {
		s.phones[v] = true
	}
}

// ThirdParty reports whether a finding of the given type and value belongs
// to someone other than the subject. Only email and phone findings are
// classified; every other type reports false.
func (s *SubjectIdentifiers) ThirdParty(piiType, value string) bool {
	switch piiType {
	case TypeEmail:
		return !s.emails[NormalizeEmail(value)]
	case TypePhone:
		return !s.phones[NormalizePhone(value)]
	}
	return false
}

// Package search owns the query-construction and link-filtering rules for the ATS sources.
package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ats-scout/internal/domain/job"
)

var (
	ErrUnknownTechnology = errors.New("unknown technology")
	ErrUnknownLevel      = errors.New("unknown level")
)

const (
	DefaultTechnology = "php"
	DefaultLevel      = "any"
)

type preset struct {
	key      string
	keywords []string
}

var technologyPresets = []preset{
	{"php", []string{`"PHP"`, `"Laravel"`}},
	{"javascript", []string{`"JavaScript"`, `"TypeScript"`, `"React"`, `"Node.js"`}},
	{"python", []string{`"Python"`, `"Django"`, `"FastAPI"`, `"Flask"`}},
	{"java", []string{`"Java"`, `"Spring"`, `"Spring Boot"`}},
	{"csharp", []string{`"C#"`, `".NET"`, `"ASP.NET"`}},
	{"ruby", []string{`"Ruby"`, `"Ruby on Rails"`}},
	{"go", []string{`"Golang"`, `"Go Developer"`}},
	{"rust", []string{`"Rust"`, `"Rust Developer"`}},
	{"devops", []string{`"DevOps"`, `"SRE"`, `"Platform Engineer"`, `"Kubernetes"`}},
	{"data", []string{`"Data Engineer"`, `"Data Scientist"`, `"Machine Learning"`, `"MLOps"`}},
	{"mobile", []string{`"iOS"`, `"Android"`, `"React Native"`, `"Flutter"`}},
}

var seniorityLevels = []preset{
	{"any", nil},
	{"trainee", []string{`"Trainee"`, `"Intern"`, `"Internship"`}},
	{"junior", []string{`"Junior"`, `"Jr"`, `"Entry Level"`, `"Entry-Level"`}},
	{"mid", []string{`"Mid-Level"`, `"Mid Level"`, `"Middle"`, `"Intermediate"`}},
	{"senior", []string{`"Senior"`, `"Sr"`, `"Lead"`}},
	{"staff", []string{`"Staff"`, `"Staff Engineer"`, `"Principal"`}},
	{"manager", []string{`"Engineering Manager"`, `"Tech Lead"`, `"CTO"`, `"VP of Engineering"`}},
}

type platform struct {
	origin     string
	sitePrefix string
}

var atsPlatforms = []platform{
	{"Green House", "site:greenhouse.io"},
	{"Lever", "site:lever.co"},
	{"AshBy", "site:jobs.ashbyhq.com"},
	{"Workable", "site:jobs.workable.com"},
	{"Breezy", "site:breezy.hr"},
	{"Jazz CO", "site:jazz.co"},
	{"Smart Recruiters", "site:smartrecruiters.com"},
	{"ICIMS", "site:icims.com"},
	{"PinpointHQ", "site:pinpointhq.com"},
}

const (
	originICIMS    = "ICIMS"
	originPinpoint = "PinpointHQ"
	locationTerms  = `"LATAM" OR "global"`
)

// Entry describes a technology preset or seniority level for API consumers.
type Entry struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Keywords []string `json:"keywords"`
}

func Technologies() []Entry {
	out := make([]Entry, 0, len(technologyPresets))
	for _, p := range technologyPresets {
		label := p.key
		if label == "csharp" {
			label = "C#"
		}
		out = append(out, Entry{Key: p.key, Label: titleCase(label), Keywords: nonNil(p.keywords)})
	}
	return out
}

func Levels() []Entry {
	out := make([]Entry, 0, len(seniorityLevels))
	for _, p := range seniorityLevels {
		label := titleCase(p.key)
		if p.key == "any" {
			label = "Any Level"
		}
		out = append(out, Entry{Key: p.key, Label: label, Keywords: nonNil(p.keywords)})
	}
	return out
}

func IsTechnology(key string) bool {
	_, ok := lookup(technologyPresets, key)
	return ok
}

func IsLevel(key string) bool {
	_, ok := lookup(seniorityLevels, key)
	return ok
}

// Validate checks both keys and returns a wrapped sentinel naming the valid values.
func Validate(technology, level string) error {
	if !IsTechnology(technology) {
		return fmt.Errorf("%w %q, valid values: %s", ErrUnknownTechnology, technology, strings.Join(keys(technologyPresets), ", "))
	}
	if !IsLevel(level) {
		return fmt.Errorf("%w %q, valid values: %s", ErrUnknownLevel, level, strings.Join(keys(seniorityLevels), ", "))
	}
	return nil
}

// BuildSources returns one source per ATS platform, always in the same order.
func BuildSources(technology, level string) ([]job.Source, error) {
	if err := Validate(technology, level); err != nil {
		return nil, err
	}

	techKeywords, _ := lookup(technologyPresets, technology)
	levelKeywords, _ := lookup(seniorityLevels, level)
	techString := strings.Join(techKeywords, " OR ")
	levelString := strings.Join(levelKeywords, " OR ")

	out := make([]job.Source, 0, len(atsPlatforms))
	for _, p := range atsPlatforms {
		parts := []string{p.sitePrefix, `"remote"`, techString}
		if p.origin != originPinpoint {
			if levelString != "" {
				parts = append(parts, levelString)
			}
			if p.origin != originICIMS {
				parts = append(parts, locationTerms)
			}
		}
		out = append(out, job.Source{Origin: p.origin, Query: strings.Join(parts, " ")})
	}
	return out, nil
}

func lookup(presets []preset, key string) ([]string, bool) {
	for _, p := range presets {
		if p.key == key {
			return p.keywords, true
		}
	}
	return nil, false
}

func keys(presets []preset) []string {
	out := make([]string, 0, len(presets))
	for _, p := range presets {
		out = append(out, p.key)
	}
	sort.Strings(out)
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

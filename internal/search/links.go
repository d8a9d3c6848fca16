package search

import (
	"net/url"
	"regexp"
	"strings"
)

var excludedPatterns = []string{
	"facebook.com",
	"linkedin.com",
	"twitter.com",
	"reddit.com",
	"hacker-news",
	"hnhiring.com",
	"glassdoor.com",
	"indeed.com",
	"ziprecruiter.com",
	"weworkremotely.com",
	"jobleads.com",
	"upwork.com",
	"dover.com",
	"dovercorporation.com",
	"app.dover.com/dover/careers",
}

// Bare careers index pages carry no single posting.
var careersIndex = regexp.MustCompile(`/careers/?$`)

var validPatterns = []string{
	"greenhouse.io",
	"lever.co",
	"ashbyhq.com",
	"workable.com",
	"breezy.hr",
	"jazz.co",
	"smartrecruiters.com",
	"icims.com",
	"pinpointhq.com",
	"app.dover.",
}

// IsAdmissibleLink reports whether link points at a posting on one of the supported ATS hosts.
// Exclusions win over valid patterns.
func IsAdmissibleLink(link string) bool {
	lowered := strings.ToLower(strings.TrimSpace(link))
	if lowered == "" {
		return false
	}
	for _, p := range excludedPatterns {
		if strings.Contains(lowered, p) {
			return false
		}
	}
	if careersIndex.MatchString(lowered) {
		return false
	}
	for _, p := range validPatterns {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

type originDomain struct {
	domain string
	origin string
}

var originMap = []originDomain{
	{"greenhouse.io", "Greenhouse"},
	{"lever.co", "Lever"},
	{"ashbyhq.com", "AshBy"},
	{"workable.com", "Workable"},
	{"breezy.hr", "Breezy"},
	{"jazz.co", "Jazz CO"},
	{"smartrecruiters.com", "Smart Recruiters"},
	{"icims.com", "ICIMS"},
	{"pinpointhq.com", "PinpointHQ"},
}

const UnknownOrigin = "Unknown"

// DetectOrigin maps a posting link to its ATS by host suffix.
func DetectOrigin(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return UnknownOrigin
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return UnknownOrigin
	}
	for _, d := range originMap {
		if strings.HasSuffix(host, d.domain) {
			return d.origin
		}
	}
	return UnknownOrigin
}

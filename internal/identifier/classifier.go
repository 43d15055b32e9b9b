package identifier

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	defaultFiftyToken = "50"
	minHandleLen      = 2
	maxHandleLen      = 32
)

var (
	defaultHosts = []string{"vk.com", "vk.ru"}

	handlePattern   = regexp.MustCompile(`^[a-z0-9_.]+$`)
	reservedPattern = regexp.MustCompile(`^(?:wall|photo|video|audio|album|topic)-?\d+(?:_\d+)?$`)
	wallPattern     = regexp.MustCompile(`wall-?\d+_\d+`)
	hostPattern     = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)

	// Bare dotted tokens ending in one of these are read as sites, not
	// handles; a dotted handle such as ivan.petrov stays a screen name.
	siteTLDs = map[string]bool{
		"com": true, "net": true, "org": true, "info": true, "biz": true,
		"ru": true, "su": true, "ua": true, "by": true, "kz": true,
		"io": true, "me": true, "co": true, "cc": true, "tv": true,
		"ly": true, "gl": true, "to": true, "app": true, "dev": true,
		"link": true, "site": true, "online": true,
	}
)

// Classifier maps raw text to identifiers. The zero value is not usable;
// build one with New.
type Classifier struct {
	profilePrefix *regexp.Regexp
	fiftyToken    string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithFiftyToken overrides the literal partial-trust token (default "50").
func WithFiftyToken(token string) Option {
	return func(c *Classifier) {
		if token = Normalize(token); token != "" {
			c.fiftyToken = token
		}
	}
}

// New builds a classifier recognizing profile URLs on hosts (default vk.com
// and vk.ru).
func New(hosts []string, opts ...Option) *Classifier {
	if len(hosts) == 0 {
		hosts = defaultHosts
	}
	quoted := make([]string, 0, len(hosts))
	for _, host := range hosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(host))
	}
	c := &Classifier{
		profilePrefix: regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?(?:` + strings.Join(quoted, "|") + `)/`),
		fiftyToken:    defaultFiftyToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the first category, in priority order, whose shape
// matches the normalized form of raw.
func (c *Classifier) Classify(raw string) Identifier {
	normalized := Normalize(raw)
	out := Identifier{Category: Unrecognized, Value: normalized, Raw: raw}
	if normalized == "" {
		return out
	}

	path, prefixed := c.stripProfilePrefix(normalized)
	if prefixed {
		path = strings.TrimSuffix(path, "/")
	}
	for _, category := range priority {
		if value, ok := c.match(category, normalized, path, prefixed); ok {
			out.Category = category
			out.Value = value
			return out
		}
	}
	return out
}

// ClassifyLines classifies text line by line. Whitespace-only lines are
// skipped and produce no identifier.
func (c *Classifier) ClassifyLines(text string) []Identifier {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]Identifier, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, c.Classify(line))
	}
	return out
}

func (c *Classifier) stripProfilePrefix(normalized string) (string, bool) {
	loc := c.profilePrefix.FindStringIndex(normalized)
	if loc == nil {
		return normalized, false
	}
	return normalized[loc[1]:], true
}

func (c *Classifier) match(category Category, normalized, path string, prefixed bool) (string, bool) {
	switch category {
	case ProfileID:
		return matchProfileID(path)
	case ScreenName:
		if !prefixed && looksLikeSite(path) {
			return "", false
		}
		return matchScreenName(path)
	case WallLink:
		if prefixed && wallPattern.MatchString(path) {
			return normalized, true
		}
	case Phone:
		return matchPhone(normalized)
	case Card:
		if len(normalized) == 16 && isDigits(normalized) {
			return normalized, true
		}
	case Fifty:
		if normalized == c.fiftyToken {
			return normalized, true
		}
	case ProofLink:
		if isWellFormedURL(normalized) {
			return normalized, true
		}
	}
	return "", false
}

func matchProfileID(path string) (string, bool) {
	digits, ok := strings.CutPrefix(path, "id")
	if !ok || !isDigits(digits) {
		return "", false
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "", false
	}
	return digits, true
}

func matchScreenName(path string) (string, bool) {
	if len(path) < minHandleLen || len(path) > maxHandleLen {
		return "", false
	}
	if !handlePattern.MatchString(path) || isDigits(path) {
		return "", false
	}
	if reservedPattern.MatchString(path) {
		return "", false
	}
	if strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") || strings.Contains(path, "..") {
		return "", false
	}
	return path, true
}

func looksLikeSite(token string) bool {
	dot := strings.LastIndexByte(token, '.')
	return dot > 0 && hostPattern.MatchString(token) && siteTLDs[token[dot+1:]]
}

func matchPhone(normalized string) (string, bool) {
	if !isDigits(normalized) {
		return "", false
	}
	switch len(normalized) {
	case 10:
		return normalized, true
	case 11:
		if normalized[0] == '7' || normalized[0] == '8' {
			return normalized[1:], true
		}
	}
	return "", false
}

func isWellFormedURL(normalized string) bool {
	candidate := normalized
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return hostPattern.MatchString(parsed.Hostname())
}

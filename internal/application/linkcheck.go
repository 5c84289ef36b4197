package application

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sp3dr4/linkie/internal/domain"
)

var linkPattern = regexp.MustCompile(`^(https?|ftp)://[^\s/$.?#].[^\s]*$`)

// bannedFragments is a deterrent against the most common abuse payloads. It
// is not a sanitizer: encodings and other schemes can get past a substring
// check.
var bannedFragments = []string{" ", "?", "\"", "&", "%", "javascript:", "data:"}

// LinkValidator decides whether a submitted URL may be shortened. It never
// touches the network.
type LinkValidator struct {
	selfHost string
}

// NewLinkValidator returns a validator. A non-empty selfHost makes links back
// to the service itself invalid, since they would redirect in a loop.
func NewLinkValidator(selfHost string) *LinkValidator {
	return &LinkValidator{selfHost: strings.ToLower(selfHost)}
}

func (v *LinkValidator) Validate(candidate string) (string, error) {
	const op = "application.LinkValidator.Validate"

	for _, fragment := range bannedFragments {
		if strings.Contains(candidate, fragment) {
			return "", domain.E(op, domain.KindInvalidLink, nil)
		}
	}

	if !linkPattern.MatchString(candidate) {
		return "", domain.E(op, domain.KindInvalidLink, nil)
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return "", domain.E(op, domain.KindInvalidLink, err)
	}

	if v.selfHost != "" && strings.EqualFold(u.Host, v.selfHost) {
		return "", domain.E(op, domain.KindInvalidLink, nil)
	}

	return candidate, nil
}

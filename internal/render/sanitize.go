package render

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// contentPolicy extends the UGC policy with the markup HTML emits for toggles, figures,
// to-dos and media blocks.
func contentPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("details", "summary", "figure", "figcaption")
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9_\- ]*$`)).Globally()
		p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
		p.AllowAttrs("checked", "disabled").OnElements("input")
		p.AllowAttrs("src", "controls").OnElements("video")
		p.AllowAttrs("src", "frameborder").OnElements("iframe")
		p.AllowURLSchemes("http", "https", "mailto")
		p.RequireParseableURLs(true)
		policy = p
	})
	return policy
}

// Sanitize strips anything from rendered HTML that the content policy does not allow.
// It is an opt-in pass for hosts that serve HTML built from untrusted workspaces.
func Sanitize(html string) string {
	return contentPolicy().Sanitize(html)
}

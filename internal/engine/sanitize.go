package engine

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

//nolint:gochecknoglobals // Policy is built once and safe for concurrent use
var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func strictPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
		p.AllowAttrs("checked", "disabled").OnElements("input")
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^task-list-item$`)).OnElements("li")
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})

	return policy
}

// Sanitize strips markup outside a user-generated-content allow list. Task
// list checkboxes and code language classes survive.
func Sanitize(html string) string {
	return strictPolicy().Sanitize(html)
}

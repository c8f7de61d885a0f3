package rollout

import (
	"html"
	"regexp"
	"strings"

	"github.com/theirongolddev/rollview/internal/model"
)

const (
	patchMarker      = "apply_patch"
	unknownPatchFile = "Unknown File"
)

var updateFileRe = regexp.MustCompile(`\*\*\* Update File: ([^\r\n]*)`)

// collapseFor returns the collapsible directive for a command, or nil when
// the command renders inline. Only patch applications are collapsed.
func collapseFor(command string) *model.Collapse {
	if !strings.Contains(command, patchMarker) {
		return nil
	}
	// The path is taken verbatim up to the end of its line.
	name := unknownPatchFile
	if m := updateFileRe.FindStringSubmatch(command); m != nil {
		name = m[1]
	}
	return &model.Collapse{Label: "Update File: " + name}
}

// FormatHTML renders a message body for HTML consumers. Collapsible
// commands become a <details> block labeled with the patched file; every
// other message is its escaped content.
func FormatHTML(m model.Message) string {
	body := html.EscapeString(m.Content)
	if m.Collapse == nil {
		return body
	}
	var b strings.Builder
	b.WriteString("<details><summary>")
	b.WriteString(html.EscapeString(m.Collapse.Label))
	b.WriteString("</summary>\n\n<pre><code>")
	b.WriteString(body)
	b.WriteString("</code></pre>\n</details>")
	return b.String()
}

package publish

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/tkoide/newsround/internal/article"
)

// ComposeBody builds the post body for one article: markdown assembled from
// the enrichment results, rendered to HTML for the REST API.
func ComposeBody(a *article.Article) (string, error) {
	var md strings.Builder

	md.WriteString("## 要約\n\n")
	md.WriteString(a.Summary)
	md.WriteString("\n")

	if a.Commentary != "" {
		md.WriteString("\n## ユーザーへの影響\n\n")
		md.WriteString(a.Commentary)
		md.WriteString("\n")
	}

	md.WriteString(fmt.Sprintf("\n---\n\n出典: [%s](%s)\n", a.Source, a.URL))

	var html bytes.Buffer
	if err := goldmark.Convert([]byte(md.String()), &html); err != nil {
		return "", fmt.Errorf("rendering post body: %w", err)
	}
	return html.String(), nil
}

// ABOUTME: Builds the attachment context injected into model history
// ABOUTME: Text payloads are inlined with a size cap; binary payloads get a placeholder

package uploads

import (
	"context"
	"fmt"
	"strings"
)

// maxInlineBytes caps how much of a text attachment is inlined into the
// model context.
const maxInlineBytes = 16 * 1024

// BuildContext renders the referenced uploads into a single block of text
// suitable for one system-role message. Text and JSON payloads are inlined
// (truncated at maxInlineBytes with a marker); other MIME types are
// represented by a placeholder line. An empty fileIDs list yields "".
func BuildContext(ctx context.Context, store Store, fileIDs []string) (string, error) {
	if len(fileIDs) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("The user attached the following files:\n")

	for _, id := range fileIDs {
		up, err := store.Get(ctx, id)
		if err != nil {
			return "", fmt.Errorf("loading attachment %s: %w", id, err)
		}

		if !isTextual(up.MIMEType) {
			fmt.Fprintf(&b, "\n--- %s (%s, %d bytes; content not shown) ---\n", up.Name, up.MIMEType, up.Size)
			continue
		}

		content := up.Data
		truncated := false
		if len(content) > maxInlineBytes {
			content = content[:maxInlineBytes]
			truncated = true
		}

		fmt.Fprintf(&b, "\n--- %s (%s) ---\n", up.Name, up.MIMEType)
		b.Write(content)
		if truncated {
			b.WriteString("\n[truncated]")
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

func isTextual(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/csv":
		return true
	}
	return strings.HasSuffix(mimeType, "+json") || strings.HasSuffix(mimeType, "+xml")
}

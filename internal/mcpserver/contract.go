package mcpserver

import (
	"fmt"
	"strings"

	"github.com/brandoo/console/internal/formschema"
	"github.com/brandoo/console/internal/registry"
)

const fieldTypesIntro = `# Brandoo Field and Content Types

Forms are flat lists of fields. CMS content is a tree of typed nodes.

## Form rules

1. Every form carries the reserved fields ` + "`email`" + ` and ` + "`agreedToPrivacyPolicy`" + `.
   Their keys never change; the privacy policy field cannot be removed and is always required.
2. The key of any other field is derived from its label on save
   (diacritics stripped, camelCase, ` + "`?`" + ` and ` + "`!`" + ` dropped). Example: %s.
3. Keys must be unique within a form.
4. Choice fields need at least one non-empty option.
`

// FieldTypesDocument renders the field and content type reference served
// as the field-types resource.
func FieldTypesDocument() string {
	var sb strings.Builder
	example := "Jaké je Vaše příjmení?"
	fmt.Fprintf(&sb, fieldTypesIntro, fmt.Sprintf("`%s` → `%s`", example, formschema.DeriveKey(example)))

	sb.WriteString("\n## Field types\n\n| type | label | options |\n|---|---|---|\n")
	for _, e := range registry.PropertyTypes() {
		opts := "no"
		if registry.IsChoice(e.Type) {
			opts = "required"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", e.Type, e.Label, opts)
	}

	sb.WriteString("\n## Content types\n\n| type | label |\n|---|---|\n")
	for _, e := range registry.ContentTypes() {
		fmt.Fprintf(&sb, "| `%s` | %s |\n", e.Type, e.Label)
	}

	sb.WriteString("\nImages are set with the `set_content_image` tool. Supported formats: png, jpg, jpeg, gif, webp, svg.\n")
	return sb.String()
}

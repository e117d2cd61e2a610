package models

// ContentType is the payload shape of a CMS content node.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentHTML     ContentType = "html"
	ContentItem     ContentType = "item_content"
	ContentListText ContentType = "list_text_content"
	ContentListItem ContentType = "list_item_content"
)

// AllContentTypes lists every ContentType in display order.
var AllContentTypes = []ContentType{
	ContentText,
	ContentListText,
	ContentImage,
	ContentHTML,
	ContentItem,
	ContentListItem,
}

// Valid reports whether t is one of the enumerated content types.
func (t ContentType) Valid() bool {
	for _, v := range AllContentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ItemProperty is a named stub pointing at a nested content node.
type ItemProperty struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	ContentID string `json:"contentId"`
}

// ContentRoot is the light listing entry of a root node.
type ContentRoot struct {
	ID     string `json:"id"`
	Alias  string `json:"alias,omitempty"`
	IsRoot bool   `json:"isRoot"`
}

// ContentNode is one unit of the CMS tree. Exactly one payload field is
// populated, selected by ContentType.
type ContentNode struct {
	ID     string `json:"id"`
	UserID string `json:"userId,omitempty"`
	IsRoot bool   `json:"isRoot"`
	Alias  string `json:"alias,omitempty"`

	ContentType     *ContentType     `json:"contentType,omitempty"`
	Text            *string          `json:"text,omitempty"`
	Image           *string          `json:"image,omitempty"`
	HTML            *string          `json:"html,omitempty"`
	ListTextContent []string         `json:"listTextContent,omitempty"`
	ItemContent     []ItemProperty   `json:"itemContent,omitempty"`
	ListItemContent [][]ItemProperty `json:"listItemContent,omitempty"`

	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Type returns the node's content type or "" when none is chosen yet.
func (n ContentNode) Type() ContentType {
	if n.ContentType == nil {
		return ""
	}
	return *n.ContentType
}

// ContentTree is a node with its item properties resolved recursively.
type ContentTree struct {
	Node       ContentNode      `json:"node"`
	Properties []PropertyTree   `json:"properties,omitempty"`
	Groups     [][]PropertyTree `json:"groups,omitempty"`
}

// PropertyTree pairs a property stub with its resolved subtree.
type PropertyTree struct {
	Property ItemProperty `json:"property"`
	Tree     *ContentTree `json:"tree,omitempty"`
}

// ContentPatch carries the fields of a node update. Set entries are sent as
// given; entries mapped to nil are sent as explicit nulls.
type ContentPatch map[string]any

// DiscardPayload returns a patch switching the node to t and nulling every
// payload field.
func DiscardPayload(t ContentType) ContentPatch {
	return ContentPatch{
		"contentType":     string(t),
		"text":            nil,
		"image":           nil,
		"html":            nil,
		"listTextContent": nil,
		"itemContent":     nil,
		"listItemContent": nil,
	}
}

package identifier

import "fmt"

// Category names the kind of value an input line carries.
type Category string

const (
	ProfileID    Category = "profile_id"
	ScreenName   Category = "screen_name"
	WallLink     Category = "wall_link"
	Phone        Category = "phone"
	Card         Category = "card"
	Fifty        Category = "fifty"
	ProofLink    Category = "proof_link"
	Unrecognized Category = "unrecognized"
)

// priority lists categories in classification order.
var priority = []Category{ProfileID, ScreenName, WallLink, Phone, Card, Fifty, ProofLink}

// IsIdentity reports whether c names a platform identity (id or handle).
func (c Category) IsIdentity() bool {
	return c == ProfileID || c == ScreenName
}

// IsAttachment reports whether c attaches to an identity record.
func (c Category) IsAttachment() bool {
	switch c {
	case Phone, Card, ProofLink, Fifty:
		return true
	default:
		return false
	}
}

// Identifier is a classified input token.
type Identifier struct {
	Category Category `json:"category"`
	// Value is the canonical form: digits for ids, phones, and cards, the
	// bare handle for screen names, the normalized URL for links.
	Value string `json:"value"`
	// Raw is the text as the operator typed it.
	Raw string `json:"raw"`
}

// Recognized reports whether classification produced a usable category.
func (id Identifier) Recognized() bool {
	return id.Category != "" && id.Category != Unrecognized
}

func (id Identifier) String() string {
	if !id.Recognized() {
		return fmt.Sprintf("unrecognized(%q)", id.Raw)
	}
	return fmt.Sprintf("%s(%s)", id.Category, id.Value)
}

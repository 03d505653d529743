package model

// AccessibilityData is the structural snapshot of one rendered page.
type AccessibilityData struct {
	Title              string                   `yaml:"title"              json:"title"`
	Headings           LimitedData[Heading]     `yaml:"headings"           json:"headings"`
	Images             LimitedData[Image]       `yaml:"images"             json:"images"`
	Links              LimitedData[Link]        `yaml:"links"              json:"links"`
	Forms              LimitedData[Form]        `yaml:"forms"              json:"forms"`
	AriaLabels         LimitedData[AriaElement] `yaml:"ariaLabels"         json:"ariaLabels"`
	SemanticStructure  SemanticStructure        `yaml:"semanticStructure"  json:"semanticStructure"`
	KeyboardNavigation KeyboardNavigation       `yaml:"keyboardNavigation" json:"keyboardNavigation"`
}

// Heading is one h1-h6 element.
type Heading struct {
	Level string `yaml:"level" json:"level"` // "h1".."h6"
	Text  string `yaml:"text"  json:"text"`
	HasID bool   `yaml:"hasId" json:"hasId"`
}

// Image is one img element. HasAlt reports attribute presence, so alt=""
// (a decorative image) counts as having alt text.
type Image struct {
	Src    string `yaml:"src"    json:"src"`
	Alt    string `yaml:"alt"    json:"alt"`
	HasAlt bool   `yaml:"hasAlt" json:"hasAlt"`
}

type Link struct {
	Href     string `yaml:"href"     json:"href"`
	Text     string `yaml:"text"     json:"text"`
	HasTitle bool   `yaml:"hasTitle" json:"hasTitle"`
}

type FormInput struct {
	Type     string `yaml:"type"     json:"type"`
	HasLabel bool   `yaml:"hasLabel" json:"hasLabel"`
	HasID    bool   `yaml:"hasId"    json:"hasId"`
}

type Form struct {
	Inputs      []FormInput `yaml:"inputs"      json:"inputs"`
	HasFieldset bool        `yaml:"hasFieldset" json:"hasFieldset"`
}

// AriaElement is any element carrying aria-label, aria-labelledby or role.
type AriaElement struct {
	Tag            string `yaml:"tag"                      json:"tag"`
	AriaLabel      string `yaml:"ariaLabel,omitempty"      json:"ariaLabel,omitempty"`
	AriaLabelledby string `yaml:"ariaLabelledby,omitempty" json:"ariaLabelledby,omitempty"`
	Role           string `yaml:"role,omitempty"           json:"role,omitempty"`
}

type SemanticStructure struct {
	HasMain    bool `yaml:"hasMain"    json:"hasMain"`
	HasNav     bool `yaml:"hasNav"     json:"hasNav"`
	HasHeader  bool `yaml:"hasHeader"  json:"hasHeader"`
	HasFooter  bool `yaml:"hasFooter"  json:"hasFooter"`
	HasAside   bool `yaml:"hasAside"   json:"hasAside"`
	HasSection bool `yaml:"hasSection" json:"hasSection"`
	HasArticle bool `yaml:"hasArticle" json:"hasArticle"`
	SkipLinks  int  `yaml:"skipLinks"  json:"skipLinks"` // a[href^="#"]
}

type KeyboardNavigation struct {
	FocusableElements    int `yaml:"focusableElements"    json:"focusableElements"`
	ElementsWithTabindex int `yaml:"elementsWithTabindex" json:"elementsWithTabindex"`
	NegativeTabindex     int `yaml:"negativeTabindex"     json:"negativeTabindex"`
}

// ExtractionFailedTitle marks an AccessibilityData produced after the DOM
// could not be read.
const ExtractionFailedTitle = "Unable to extract page data"

// EmptyAccessibilityData returns a fully populated value with no items and
// the extraction-failed title.
func EmptyAccessibilityData() AccessibilityData {
	return AccessibilityData{
		Title:      ExtractionFailedTitle,
		Headings:   EmptyLimited[Heading](),
		Images:     EmptyLimited[Image](),
		Links:      EmptyLimited[Link](),
		Forms:      EmptyLimited[Form](),
		AriaLabels: EmptyLimited[AriaElement](),
	}
}

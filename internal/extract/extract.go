// Package extract reads bounded accessibility facts from rendered HTML.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mj1618/a11y-lens/internal/model"
	"github.com/mj1618/a11y-lens/internal/platform"
)

// ErrDegraded wraps any failure that forced an empty result.
var ErrDegraded = errors.New("extraction degraded")

// UntitledPage is used when the document has no <title>.
const UntitledPage = "Untitled page"

const (
	headingSelector   = "h1, h2, h3, h4, h5, h6"
	formFieldSelector = "input, textarea, select"
	ariaSelector      = "[aria-label], [aria-labelledby], [role]"
	focusableSelector = "a[href], area[href], button, input:not([type=hidden]), select, textarea, iframe, [tabindex], [contenteditable=true]"
)

// Empty returns the fail-soft result.
func Empty() model.AccessibilityData {
	return model.EmptyAccessibilityData()
}

// FromPage extracts from the page's rendered DOM. On failure it returns
// Empty and an error wrapping ErrDegraded.
func FromPage(ctx context.Context, page platform.Page) (model.AccessibilityData, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return Empty(), fmt.Errorf("%w: %w", ErrDegraded, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Empty(), fmt.Errorf("%w: parse DOM: %w", ErrDegraded, err)
	}
	return fromDocument(doc), nil
}

// Extract parses html and extracts. It never panics; unusable input yields
// Empty.
func Extract(html string) (data model.AccessibilityData) {
	defer func() {
		if recover() != nil {
			data = Empty()
		}
	}()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Empty()
	}
	return fromDocument(doc)
}

func fromDocument(doc *goquery.Document) model.AccessibilityData {
	return model.AccessibilityData{
		Title:              title(doc),
		Headings:           headings(doc),
		Images:             images(doc),
		Links:              links(doc),
		Forms:              forms(doc),
		AriaLabels:         ariaElements(doc),
		SemanticStructure:  semanticStructure(doc),
		KeyboardNavigation: keyboardNavigation(doc),
	}
}

func title(doc *goquery.Document) string {
	t := strings.TrimSpace(doc.Find("title").First().Text())
	if t == "" {
		return UntitledPage
	}
	return model.Truncate(t)
}

func headings(doc *goquery.Document) model.LimitedData[model.Heading] {
	all := doc.Find(headingSelector)
	items := make([]model.Heading, 0, min(all.Length(), model.MaxHeadings))
	all.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(items) >= model.MaxHeadings {
			return false
		}
		id, _ := s.Attr("id")
		items = append(items, model.Heading{
			Level: goquery.NodeName(s),
			Text:  model.Truncate(strings.TrimSpace(s.Text())),
			HasID: id != "",
		})
		return true
	})
	return model.NewLimited(items, all.Length())
}

func images(doc *goquery.Document) model.LimitedData[model.Image] {
	all := doc.Find("img")
	items := make([]model.Image, 0, min(all.Length(), model.MaxImages))
	all.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(items) >= model.MaxImages {
			return false
		}
		src, _ := s.Attr("src")
		alt, hasAlt := s.Attr("alt")
		items = append(items, model.Image{
			Src:    model.Truncate(src),
			Alt:    model.Truncate(alt),
			HasAlt: hasAlt,
		})
		return true
	})
	return model.NewLimited(items, all.Length())
}

func links(doc *goquery.Document) model.LimitedData[model.Link] {
	all := doc.Find("a")
	items := make([]model.Link, 0, min(all.Length(), model.MaxLinks))
	all.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(items) >= model.MaxLinks {
			return false
		}
		href, _ := s.Attr("href")
		_, hasTitle := s.Attr("title")
		items = append(items, model.Link{
			Href:     model.Truncate(href),
			Text:     model.Truncate(strings.TrimSpace(s.Text())),
			HasTitle: hasTitle,
		})
		return true
	})
	return model.NewLimited(items, all.Length())
}

// labelTargets returns the set of ids named by label[for].
func labelTargets(doc *goquery.Document) map[string]bool {
	targets := make(map[string]bool)
	doc.Find("label[for]").Each(func(_ int, s *goquery.Selection) {
		if f, _ := s.Attr("for"); f != "" {
			targets[f] = true
		}
	})
	return targets
}

// forms caps inputs cumulatively: once MaxFormInputs inputs have been taken,
// the remaining inputs of the current form and all later forms are dropped.
func forms(doc *goquery.Document) model.LimitedData[model.Form] {
	labels := labelTargets(doc)
	all := doc.Find("form")

	var items []model.Form
	shown, total := 0, 0
	all.Each(func(_ int, f *goquery.Selection) {
		fields := f.Find(formFieldSelector)
		total += fields.Length()
		if shown >= model.MaxFormInputs {
			return
		}
		form := model.Form{
			Inputs:      []model.FormInput{},
			HasFieldset: f.Find("fieldset").Length() > 0,
		}
		fields.EachWithBreak(func(_ int, in *goquery.Selection) bool {
			if shown >= model.MaxFormInputs {
				return false
			}
			id, _ := in.Attr("id")
			form.Inputs = append(form.Inputs, model.FormInput{
				Type:     inputType(in),
				HasLabel: id != "" && labels[id],
				HasID:    id != "",
			})
			shown++
			return true
		})
		items = append(items, form)
	})
	return model.NewLimitedUnits(items, shown, total)
}

func inputType(s *goquery.Selection) string {
	tag := goquery.NodeName(s)
	if tag != "input" {
		return tag
	}
	if t, ok := s.Attr("type"); ok && strings.TrimSpace(t) != "" {
		return strings.ToLower(strings.TrimSpace(t))
	}
	return "text"
}

func ariaElements(doc *goquery.Document) model.LimitedData[model.AriaElement] {
	all := doc.Find(ariaSelector)
	items := make([]model.AriaElement, 0, min(all.Length(), model.MaxAriaElements))
	all.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(items) >= model.MaxAriaElements {
			return false
		}
		label, _ := s.Attr("aria-label")
		labelledby, _ := s.Attr("aria-labelledby")
		role, _ := s.Attr("role")
		items = append(items, model.AriaElement{
			Tag:            goquery.NodeName(s),
			AriaLabel:      model.Truncate(label),
			AriaLabelledby: model.Truncate(labelledby),
			Role:           role,
		})
		return true
	})
	return model.NewLimited(items, all.Length())
}

func semanticStructure(doc *goquery.Document) model.SemanticStructure {
	has := func(sel string) bool { return doc.Find(sel).Length() > 0 }
	return model.SemanticStructure{
		HasMain:    has("main, [role=main]"),
		HasNav:     has("nav, [role=navigation]"),
		HasHeader:  has("header, [role=banner]"),
		HasFooter:  has("footer, [role=contentinfo]"),
		HasAside:   has("aside, [role=complementary]"),
		HasSection: has("section"),
		HasArticle: has("article"),
		SkipLinks:  doc.Find(`a[href^="#"]`).Length(),
	}
}

func keyboardNavigation(doc *goquery.Document) model.KeyboardNavigation {
	kn := model.KeyboardNavigation{
		FocusableElements: doc.Find(focusableSelector).Length(),
	}
	doc.Find("[tabindex]").Each(func(_ int, s *goquery.Selection) {
		kn.ElementsWithTabindex++
		if v, _ := s.Attr("tabindex"); strings.HasPrefix(strings.TrimSpace(v), "-") {
			kn.NegativeTabindex++
		}
	})
	return kn
}

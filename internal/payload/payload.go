// Package payload combines extraction and detection output into a bounded
// prompt for the summarizer.
package payload

import (
	"fmt"
	"strings"

	"github.com/mj1618/a11y-lens/internal/model"
)

// Category labels, in report order.
const (
	CategoryHeadings   = "Headings"
	CategoryImages     = "Images"
	CategoryLinks      = "Links"
	CategoryFormInputs = "Form inputs"
	CategoryAria       = "ARIA elements"
	CategoryProblems   = "Problematic elements"
)

// CompleteSummary is the limits summary when nothing was truncated.
const CompleteSummary = "Complete analysis performed: no data categories were limited."

// Payload is everything the summarizer sees.
type Payload struct {
	AccessibilityData   model.AccessibilityData                     `yaml:"accessibilityData"   json:"accessibilityData"`
	ProblematicElements model.LimitedData[model.ProblematicElement] `yaml:"problematicElements" json:"problematicElements"`
	LimitsInfo          model.LimitsInfo                            `yaml:"limitsInfo"          json:"limitsInfo"`
}

// Assemble builds the payload. It never reorders or drops items.
func Assemble(data model.AccessibilityData, problems model.LimitedData[model.ProblematicElement]) Payload {
	return Payload{
		AccessibilityData:   data,
		ProblematicElements: problems,
		LimitsInfo:          Limits(data, problems),
	}
}

// Limits projects truncation state across the six tracked categories.
func Limits(data model.AccessibilityData, problems model.LimitedData[model.ProblematicElement]) model.LimitsInfo {
	cats := []model.CategoryLimit{
		category(CategoryHeadings, data.Headings.Shown, data.Headings.TotalCount, data.Headings.Limited),
		category(CategoryImages, data.Images.Shown, data.Images.TotalCount, data.Images.Limited),
		category(CategoryLinks, data.Links.Shown, data.Links.TotalCount, data.Links.Limited),
		category(CategoryFormInputs, data.Forms.Shown, data.Forms.TotalCount, data.Forms.Limited),
		category(CategoryAria, data.AriaLabels.Shown, data.AriaLabels.TotalCount, data.AriaLabels.Limited),
		category(CategoryProblems, problems.Shown, problems.TotalCount, problems.Limited),
	}

	info := model.LimitsInfo{
		LimitedCategories: []string{},
		Categories:        cats,
	}
	for _, c := range cats {
		if c.Limited {
			info.AnyLimited = true
			info.LimitedCategories = append(info.LimitedCategories, c.Name)
		}
	}
	info.Summary = summary(info.LimitedCategories)
	return info
}

func category(name string, shown, total int, limited bool) model.CategoryLimit {
	return model.CategoryLimit{
		Name:    name,
		Showing: shown,
		Total:   total,
		Limited: limited,
		Line:    LimitLine(name, shown, total, limited),
	}
}

// LimitLine is the category header used in the prompt.
func LimitLine(name string, shown, total int, limited bool) string {
	if !limited {
		return name
	}
	return fmt.Sprintf("%s (showing first %d of %d total — data limited to prevent prompt overflow)", name, shown, total)
}

func summary(limited []string) string {
	if len(limited) == 0 {
		return CompleteSummary
	}
	names := make([]string, len(limited))
	for i, n := range limited {
		names[i] = strings.ToLower(n)
	}
	return fmt.Sprintf("Partial analysis: %s were limited to keep the prompt within size bounds; findings in those categories are a representative sample.", joinList(names))
}

func joinList(items []string) string {
	switch len(items) {
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

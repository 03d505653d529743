package payload

import (
	"fmt"
	"strings"
)

const responseContract = `Respond with a single JSON object and nothing else:
{
  "overallScore": <integer 0-100>,
  "issues": [
    {
      "type": "<short issue category>",
      "priority": "high" | "medium" | "low",
      "title": "<one line>",
      "description": "<what is wrong and who it affects>",
      "recommendation": "<concrete fix>",
      "wcagCriterion": "<optional, e.g. 1.1.1>"
    }
  ],
  "summary": "<two or three sentences>"
}`

// BuildPrompt renders p as the summarizer prompt. Output is deterministic
// for equal input and bounded by the category caps.
func BuildPrompt(url string, p Payload) string {
	var b strings.Builder
	d := p.AccessibilityData
	lines := make(map[string]string, len(p.LimitsInfo.Categories))
	for _, c := range p.LimitsInfo.Categories {
		lines[c.Name] = c.Line
	}
	line := func(name string) string {
		if l, ok := lines[name]; ok {
			return l
		}
		return name
	}

	b.WriteString("You are an accessibility auditor. Review the facts below, gathered from a rendered web page, ")
	b.WriteString("and report the most important accessibility problems with WCAG 2.1 references where they apply.\n\n")
	b.WriteString(responseContract)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "URL: %s\nTitle: %s\n\n", url, d.Title)
	fmt.Fprintf(&b, "Data limits: %s\n\n", p.LimitsInfo.Summary)

	fmt.Fprintf(&b, "## %s\n", line(CategoryHeadings))
	for _, h := range d.Headings.Items {
		fmt.Fprintf(&b, "- %s: %q%s\n", h.Level, h.Text, flag(h.HasID, " (has id)"))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n", line(CategoryImages))
	for _, img := range d.Images.Items {
		alt := "missing alt attribute"
		if img.HasAlt {
			alt = fmt.Sprintf("alt=%q", img.Alt)
		}
		fmt.Fprintf(&b, "- %s (%s)\n", img.Src, alt)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n", line(CategoryLinks))
	for _, l := range d.Links.Items {
		fmt.Fprintf(&b, "- %q -> %s%s\n", l.Text, l.Href, flag(l.HasTitle, " (has title)"))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n", line(CategoryFormInputs))
	for i, f := range d.Forms.Items {
		fmt.Fprintf(&b, "- Form %d%s\n", i+1, flag(f.HasFieldset, " (uses fieldset)"))
		for _, in := range f.Inputs {
			fmt.Fprintf(&b, "  - %s: label=%s id=%s\n", in.Type, yesNo(in.HasLabel), yesNo(in.HasID))
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n", line(CategoryAria))
	for _, a := range d.AriaLabels.Items {
		var attrs []string
		if a.Role != "" {
			attrs = append(attrs, fmt.Sprintf("role=%q", a.Role))
		}
		if a.AriaLabel != "" {
			attrs = append(attrs, fmt.Sprintf("aria-label=%q", a.AriaLabel))
		}
		if a.AriaLabelledby != "" {
			attrs = append(attrs, fmt.Sprintf("aria-labelledby=%q", a.AriaLabelledby))
		}
		fmt.Fprintf(&b, "- <%s> %s\n", a.Tag, strings.Join(attrs, " "))
	}
	b.WriteString("\n")

	s := d.SemanticStructure
	b.WriteString("## Semantic structure\n")
	fmt.Fprintf(&b, "- main: %s\n- nav: %s\n- header: %s\n- footer: %s\n- aside: %s\n- section: %s\n- article: %s\n- in-page links: %d\n\n",
		yesNo(s.HasMain), yesNo(s.HasNav), yesNo(s.HasHeader), yesNo(s.HasFooter),
		yesNo(s.HasAside), yesNo(s.HasSection), yesNo(s.HasArticle), s.SkipLinks)

	k := d.KeyboardNavigation
	b.WriteString("## Keyboard navigation\n")
	fmt.Fprintf(&b, "- focusable elements: %d\n- elements with tabindex: %d\n- negative tabindex: %d\n\n",
		k.FocusableElements, k.ElementsWithTabindex, k.NegativeTabindex)

	fmt.Fprintf(&b, "## %s\n", line(CategoryProblems))
	if len(p.ProblematicElements.Items) == 0 {
		b.WriteString("- none detected\n")
	}
	for _, e := range p.ProblematicElements.Items {
		fmt.Fprintf(&b, "- [%s] %s: %s", e.Priority, e.Selector, e.Issue)
		if e.Text != "" {
			fmt.Fprintf(&b, " (%q)", e.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func flag(v bool, s string) string {
	if v {
		return s
	}
	return ""
}

// Counts summarises a payload for logs.
func Counts(p Payload) map[string]int {
	d := p.AccessibilityData
	return map[string]int{
		"headings": d.Headings.Len(),
		"images":   d.Images.Len(),
		"links":    d.Links.Len(),
		"forms":    d.Forms.Len(),
		"aria":     d.AriaLabels.Len(),
		"problems": p.ProblematicElements.Len(),
	}
}


package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/lance13c/auditor/internal/types"
)

// RefAttr is the attribute the tagging script stamps on every interactive
// element. Its value is the element id used in click/fill requests.
const RefAttr = "data-auditor-ref"

const maxSummaryLen = 400

// tagScript numbers the visible interactive elements of the page and
// returns the resulting document HTML.
const tagScript = `(() => {
	const selector = 'a[href], button, input:not([type=hidden]), textarea, select, [role=button]';
	document.querySelectorAll('[` + RefAttr + `]').forEach(el => el.removeAttribute('` + RefAttr + `'));
	let n = 0;
	document.querySelectorAll(selector).forEach(el => {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') return;
		n++;
		el.setAttribute('` + RefAttr + `', String(n));
	});
	return document.documentElement.outerHTML;
})()`

const locationScript = `window.location.href`

func refSelector(id string) string {
	return fmt.Sprintf(`[%s="%s"]`, RefAttr, id)
}

// clickScript clicks a tagged element and reports whether it was found.
func clickScript(id string) string {
	sel, _ := json.Marshal(refSelector(id))
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	el.click();
	return true;
})()`, sel)
}

// fillScript sets a tagged field's value and fires the events frameworks
// listen for.
func fillScript(id, value string) string {
	sel, _ := json.Marshal(refSelector(id))
	val, _ := json.Marshal(value)
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	el.focus();
	el.value = %s;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})()`, sel, val)
}

func parseDocument(src string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page html: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// ExtractElements reads the tagged elements out of page HTML, in document
// order.
func ExtractElements(src string) (types.Elements, error) {
	doc, err := parseDocument(src)
	if err != nil {
		return nil, err
	}

	elements := types.Elements{}
	doc.Find("[" + RefAttr + "]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr(RefAttr)
		if e := classify(doc, s, id); e != nil {
			elements = append(elements, e)
		}
	})
	return elements, nil
}

func classify(doc *goquery.Document, s *goquery.Selection, id string) types.Element {
	tag := goquery.NodeName(s)
	inputType := strings.ToLower(attr(s, "type"))
	role, _ := s.Attr("role")

	switch {
	case tag == "a":
		link := types.Link{ID: id, Label: optional(firstNonEmpty(attr(s, "aria-label"), text(s), attr(s, "title")))}
		if href, ok := s.Attr("href"); ok {
			link.Href = types.Ptr(href)
		}
		return link

	case tag == "button" || role == "button" ||
		(tag == "input" && (inputType == "submit" || inputType == "button" || inputType == "reset" || inputType == "image")):
		_, disabled := s.Attr("disabled")
		if attr(s, "aria-disabled") == "true" {
			disabled = true
		}
		btn := types.Button{
			ID:      id,
			Label:   optional(firstNonEmpty(attr(s, "aria-label"), text(s), attr(s, "value"), attr(s, "title"))),
			Enabled: !disabled,
			Primary: inputType == "submit" || strings.Contains(attr(s, "class"), "primary"),
		}
		if disabled {
			btn.DisabledReason = optional(firstNonEmpty(attr(s, "data-disabled-reason"), attr(s, "title")))
		}
		return btn

	case tag == "input" || tag == "textarea" || tag == "select":
		if inputType == "hidden" {
			return nil
		}
		in := types.Input{
			ID:       id,
			Label:    optional(inputLabel(doc, s)),
			Required: hasAttr(s, "required") || attr(s, "aria-required") == "true",
		}
		if p, ok := s.Attr("placeholder"); ok {
			in.Placeholder = types.Ptr(p)
		}
		return in
	}
	return nil
}

// inputLabel resolves an accessible name the way assistive technology
// does, in order: aria-label, aria-labelledby, label[for], wrapping label.
func inputLabel(doc *goquery.Document, s *goquery.Selection) string {
	if v := attr(s, "aria-label"); v != "" {
		return v
	}
	if ids := attr(s, "aria-labelledby"); ids != "" {
		var parts []string
		for _, ref := range strings.Fields(ids) {
			if t := text(doc.Find("#" + ref)); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	if id := attr(s, "id"); id != "" {
		var found string
		doc.Find("label").EachWithBreak(func(_ int, l *goquery.Selection) bool {
			if attr(l, "for") == id {
				found = text(l)
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	if wrap := s.Closest("label"); wrap.Length() > 0 {
		return text(wrap)
	}
	return ""
}

// Summarize produces a short description of a page: title, main heading
// and any alert text.
func Summarize(src string) string {
	doc, err := parseDocument(src)
	if err != nil {
		return ""
	}

	var parts []string
	if t := text(doc.Find("title").First()); t != "" {
		parts = append(parts, t)
	}
	if h := text(doc.Find("h1").First()); h != "" {
		parts = append(parts, h)
	}
	doc.Find(`[role=alert], .error, .alert, [aria-live=assertive]`).Each(func(_ int, s *goquery.Selection) {
		if t := text(s); t != "" {
			parts = append(parts, t)
		}
	})

	summary := strings.Join(parts, ". ")
	if r := []rune(summary); len(r) > maxSummaryLen {
		summary = string(r[:maxSummaryLen])
	}
	return summary
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

func hasAttr(s *goquery.Selection, name string) bool {
	_, ok := s.Attr(name)
	return ok
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return types.Ptr(v)
}

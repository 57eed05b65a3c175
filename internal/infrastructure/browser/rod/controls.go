package rod

import (
	"context"
	"strings"

	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"

	"github.com/go-rod/rod"
)

var _ output.ControlInspector = (*Page)(nil)

// Queried in order, so file inputs always make the cut.
var controlQueries = []struct {
	typ      string
	selector string
}{
	{"file", "input[type='file']"},
	{"label", "label[for]"},
	{"button", "button, [role='button']"},
}

// Controls lists file inputs and the buttons or labels that usually open
// them. Hidden file inputs are included since upload widgets hide theirs.
func (p *Page) Controls(ctx context.Context, limit int) ([]entity.Control, error) {
	if limit <= 0 {
		limit = 50
	}
	page := p.page.Context(ctx)

	var result []entity.Control
	seen := make(map[string]bool)

	add := func(el *rod.Element, typ string) {
		if len(result) >= limit {
			return
		}
		visible, err := el.Visible()
		if err != nil || (!visible && typ != "file") {
			return
		}

		selector := selectorFor(el)
		if selector == "" || seen[selector] {
			return
		}
		seen[selector] = true

		text, _ := el.Text()
		accept, _ := el.Attribute("accept")
		result = append(result, entity.Control{
			Type:     typ,
			Selector: selector,
			Text:     truncate(strings.Join(strings.Fields(text), " "), 80),
			Accept:   ptrToString(accept),
			Visible:  visible,
		})
	}

	for _, q := range controlQueries {
		els, err := page.Elements(q.selector)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			continue
		}
		for _, el := range els {
			add(el, q.typ)
		}
	}
	return result, nil
}

// selectorFor prefers #id, then tag[name=...], then a tag:nth-of-type path
// anchored at the nearest ancestor with an id.
func selectorFor(el *rod.Element) string {
	res, err := el.Eval(`function () {
		if (this.id) return "#" + CSS.escape(this.id);
		const tag = this.tagName.toLowerCase();
		const name = this.getAttribute("name");
		if (name) return tag + "[name=" + JSON.stringify(name) + "]";
		const parts = [];
		for (let n = this; n && n.nodeType === 1 && parts.length < 5; n = n.parentElement) {
			if (n.id) { parts.unshift("#" + CSS.escape(n.id)); break; }
			let i = 1;
			for (let s = n.previousElementSibling; s; s = s.previousElementSibling) {
				if (s.tagName === n.tagName) i++;
			}
			parts.unshift(n.tagName.toLowerCase() + ":nth-of-type(" + i + ")");
		}
		return parts.join(" > ");
	}`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func ptrToString(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}

package highlight

import (
	"fmt"
	"strconv"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// tooltipGap is the distance in pixels between a span and the tooltip.
const tooltipGap = 8

// Rect is a span's bounding box in viewport coordinates.
type Rect struct {
	Top, Left, Bottom, Width float64
}

// Geometry is the layout a browser reports when a span is hovered.
type Geometry struct {
	Span          Rect
	ScrollX       float64
	ScrollY       float64
	TooltipWidth  float64
	TooltipHeight float64
}

// Position is where the tooltip is placed in document coordinates.
type Position struct {
	Top, Left float64
	Below     bool
}

// Place centres the tooltip above the span, or below it when it would
// overflow above the current scroll position.
func Place(g Geometry) Position {
	top := g.Span.Top + g.ScrollY - g.TooltipHeight - tooltipGap
	left := g.Span.Left + g.ScrollX + g.Span.Width/2 - g.TooltipWidth/2
	if top < g.ScrollY {
		return Position{Top: g.Span.Bottom + g.ScrollY + tooltipGap, Left: left, Below: true}
	}
	return Position{Top: top, Left: left}
}

// EnsureTooltip appends the tooltip container to <body> unless the document
// already has one. It returns nil when the document has no body.
func (h *Highlighter) EnsureTooltip() *html.Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ensureTooltip()
}

func (h *Highlighter) ensureTooltip() *html.Node {
	if h.tooltip != nil {
		return h.tooltip
	}
	if existing := dom.QuerySelector(h.doc, "#"+TooltipID); existing != nil {
		h.tooltip = existing
		return existing
	}
	body := dom.QuerySelector(h.doc, "body")
	if body == nil {
		return nil
	}
	el := dom.CreateElement("div")
	dom.SetAttribute(el, "id", TooltipID)
	body.AppendChild(el)
	h.tooltip = el
	return el
}

// Tooltip returns the tooltip container, or nil if none was created.
func (h *Highlighter) Tooltip() *html.Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tooltip
}

// ShowTooltip fills the tooltip with the span's part of speech, translation
// and cumulative count and positions it. It does nothing and reports false
// when the tooltip or the span binding is missing.
func (h *Highlighter) ShowTooltip(span *html.Node, g Geometry) (Position, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.tooltip == nil {
		return Position{}, false
	}
	_, e, ok := h.lookup(span)
	if !ok {
		return Position{}, false
	}

	clearChildren(h.tooltip)

	row := dom.CreateElement("div")
	dom.SetAttribute(row, "class", "v-row")
	row.AppendChild(textSpan("v-pos", e.PartOfSpeech))
	row.AppendChild(dom.CreateTextNode(" "))
	row.AppendChild(textSpan("v-trans", e.Translation))
	h.tooltip.AppendChild(row)

	stat := dom.CreateElement("div")
	dom.SetAttribute(stat, "class", "v-stat")
	stat.AppendChild(dom.CreateTextNode(StatText(e.Count)))
	h.tooltip.AppendChild(stat)

	pos := Place(g)
	dom.SetAttribute(h.tooltip, "style", fmt.Sprintf("display: block; top: %spx; left: %spx;",
		px(pos.Top), px(pos.Left)))
	return pos, true
}

// HideTooltip hides the tooltip if there is one.
func (h *Highlighter) HideTooltip() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tooltip == nil {
		return
	}
	dom.SetAttribute(h.tooltip, "style", "display: none;")
}

// StatText is the cumulative count line shown under the translation.
func StatText(count int) string {
	return "累计遇见: " + strconv.Itoa(count) + " 次"
}

func textSpan(class, text string) *html.Node {
	s := dom.CreateElement("span")
	dom.SetAttribute(s, "class", class)
	s.AppendChild(dom.CreateTextNode(text))
	return s
}

func clearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package highlight

import (
	"encoding/json"
	"fmt"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// Element ids of the nodes added by Inject.
const (
	StyleID  = "vocab-style"
	DataID   = "vocab-data"
	ScriptID = "vocab-script"
)

// InjectOptions configures the browser side of a served page.
type InjectOptions struct {
	// EventsURL is the server-sent events stream for the page's tab. Empty
	// disables live updates.
	EventsURL string
	// TabURL re-renders the tab without scanning it again. The page
	// navigates there when the tab reports new or removed words.
	TabURL string
}

const stylesheet = `.vocab-highlight {
  background-color: #fff3b0;
  border-bottom: 2px solid #f0b400;
  cursor: help;
}
#vocab-tooltip-container {
  display: none;
  position: absolute;
  z-index: 2147483647;
  max-width: 280px;
  padding: 6px 10px;
  border-radius: 6px;
  background: #333;
  color: #fff;
  font: 14px/1.4 sans-serif;
  pointer-events: none;
}
#vocab-tooltip-container .v-pos { color: #9ad; font-style: italic; }
#vocab-tooltip-container .v-stat { margin-top: 4px; color: #ccc; font-size: 12px; }
`

// hoverScript reads the data island, drives the tooltip with the same
// placement rule as Place and swaps to the tab URL on tab events.
const hoverScript = `(function () {
  var data = {};
  try { data = JSON.parse(document.getElementById("vocab-data").textContent) || {}; } catch (e) {}
  var tip = document.getElementById("vocab-tooltip-container");
  function text(cls, value) {
    var s = document.createElement("span");
    s.className = cls;
    s.textContent = value;
    return s;
  }
  function show(span) {
    var entry = data[span.getAttribute("data-vocab-word")];
    if (!tip || !entry) return;
    tip.textContent = "";
    var row = document.createElement("div");
    row.className = "v-row";
    row.appendChild(text("v-pos", entry.pos || ""));
    row.appendChild(document.createTextNode(" "));
    row.appendChild(text("v-trans", entry.translation));
    var stat = document.createElement("div");
    stat.className = "v-stat";
    stat.textContent = "累计遇见: " + entry.count + " 次";
    tip.appendChild(row);
    tip.appendChild(stat);
    tip.style.display = "block";
    var rect = span.getBoundingClientRect();
    var top = rect.top + window.scrollY - tip.offsetHeight - 8;
    var left = rect.left + window.scrollX + rect.width / 2 - tip.offsetWidth / 2;
    if (top < window.scrollY) top = rect.bottom + window.scrollY + 8;
    tip.style.top = top + "px";
    tip.style.left = left + "px";
  }
  function hide() { if (tip) tip.style.display = "none"; }
  document.querySelectorAll(".vocab-highlight").forEach(function (span) {
    span.addEventListener("mouseenter", function () { show(span); });
    span.addEventListener("mouseleave", hide);
  });
  var self = document.getElementById("vocab-script");
  var events = self.getAttribute("data-events");
  var tab = self.getAttribute("data-tab");
  if (events && tab && window.EventSource) {
    var es = new EventSource(events);
    var follow = function () { es.close(); window.location.replace(tab); };
    es.addEventListener("update_highlight", follow);
    es.addEventListener("refresh_highlight", follow);
  }
})();
`

// Inject adds the stylesheet, the dictionary data island and the hover
// script to the document, replacing earlier injections. It also ensures the
// tooltip container exists.
func (h *Highlighter) Inject(opts InjectOptions) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	head := dom.QuerySelector(h.doc, "head")
	body := dom.QuerySelector(h.doc, "body")
	if head == nil || body == nil {
		return fmt.Errorf("document has no head or body")
	}
	h.ensureTooltip()

	data, err := json.Marshal(h.words)
	if err != nil {
		return fmt.Errorf("encode data island: %w", err)
	}

	for _, id := range []string{StyleID, DataID, ScriptID} {
		if old := dom.QuerySelector(h.doc, "#"+id); old != nil && old.Parent != nil {
			old.Parent.RemoveChild(old)
		}
	}

	style := dom.CreateElement("style")
	dom.SetAttribute(style, "id", StyleID)
	style.AppendChild(dom.CreateTextNode(stylesheet))
	head.AppendChild(style)

	island := dom.CreateElement("script")
	dom.SetAttribute(island, "id", DataID)
	dom.SetAttribute(island, "type", "application/json")
	island.AppendChild(dom.CreateTextNode(string(data)))
	body.AppendChild(island)

	script := dom.CreateElement("script")
	dom.SetAttribute(script, "id", ScriptID)
	if opts.EventsURL != "" {
		dom.SetAttribute(script, "data-events", opts.EventsURL)
	}
	if opts.TabURL != "" {
		dom.SetAttribute(script, "data-tab", opts.TabURL)
	}
	script.AppendChild(dom.CreateTextNode(hoverScript))
	body.AppendChild(script)
	return nil
}

// DataIsland returns the decoded dictionary embedded by Inject.
func DataIsland(doc *html.Node) (map[string]json.RawMessage, error) {
	n := dom.QuerySelector(doc, "#"+DataID)
	if n == nil || n.FirstChild == nil {
		return nil, fmt.Errorf("no data island")
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(n.FirstChild.Data), &out); err != nil {
		return nil, fmt.Errorf("decode data island: %w", err)
	}
	return out, nil
}

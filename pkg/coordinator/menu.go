package coordinator

import (
	"fmt"
	"strings"
	"sync"
)

// Menu item registered for text selections.
const (
	MenuItemID    = "add-word"
	MenuItemTitle = "将 '%s' 添加到生词本"
	ContextSel    = "selection"
)

// MenuItem is a context menu entry. Title may contain %s, replaced by the
// selected text when shown.
type MenuItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Contexts []string `json:"contexts"`
}

// Label renders the title for a selection.
func (m MenuItem) Label(selection string) string {
	return strings.Replace(m.Title, "%s", selection, 1)
}

// Registrar accepts menu registrations.
type Registrar interface {
	CreateMenuItem(item MenuItem) error
}

// Menu is an in-process Registrar.
type Menu struct {
	mu    sync.RWMutex
	items []MenuItem
}

// NewMenu creates an empty menu.
func NewMenu() *Menu {
	return &Menu{}
}

// CreateMenuItem adds item. Ids must be unique.
func (m *Menu) CreateMenuItem(item MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.ID == item.ID {
			return fmt.Errorf("menu item %q already exists", item.ID)
		}
	}
	m.items = append(m.items, item)
	return nil
}

// Items returns the registered items in registration order.
func (m *Menu) Items() []MenuItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MenuItem, len(m.items))
	copy(out, m.items)
	return out
}

package interaction

import (
	"sync"
)

// CheckState is the checkbox state of a menu entry.
type CheckState int

// The checkbox states.
const (
	NoCheckbox CheckState = iota
	Unchecked
	Checked
)

// MenuCallback is run when a client selects a menu entry on one of the handler's markers.
type MenuCallback func(h *Handler, feedback *Feedback)

// MenuEntry is a snapshot of one entry of a marker context menu, for rendering.
type MenuEntry struct {
	ID       uint32
	ParentID uint32
	Title    string
	Visible  bool
	Check    CheckState
}

type menuEntry struct {
	id       uint32
	parentID uint32
	title    string
	visible  bool
	check    CheckState
	children []uint32
	callback MenuCallback
}

// MenuHandler manages a context menu attached to a handler's markers and routes menu-select
// feedback to the callbacks of its entries.
type MenuHandler struct {
	mu       sync.Mutex
	entries  map[uint32]*menuEntry
	topLevel []uint32
	nextID   uint32
}

// NewMenuHandler creates an empty menu.
func NewMenuHandler() *MenuHandler {
	return &MenuHandler{entries: map[uint32]*menuEntry{}}
}

// Insert adds a top level menu entry and returns its id. The callback may be nil for entries that
// only exist to hold submenus.
func (m *MenuHandler) Insert(title string, callback MenuCallback) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := m.newEntry(title, callback)
	m.topLevel = append(m.topLevel, entry.id)
	return entry.id
}

// InsertSub adds an entry to the submenu of the given parent entry and returns its id.
func (m *MenuHandler) InsertSub(parentID uint32, title string, callback MenuCallback) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent, ok := m.entries[parentID]
	if !ok {
		return 0, newMenuEntryMissingError(parentID)
	}
	entry := m.newEntry(title, callback)
	entry.parentID = parentID
	parent.children = append(parent.children, entry.id)
	return entry.id, nil
}

func (m *MenuHandler) newEntry(title string, callback MenuCallback) *menuEntry {
	m.nextID++
	entry := &menuEntry{
		id:       m.nextID,
		title:    title,
		visible:  true,
		callback: callback,
	}
	m.entries[entry.id] = entry
	return entry
}

// Title returns the title of the given entry.
func (m *MenuHandler) Title(id uint32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return "", newMenuEntryMissingError(id)
	}
	return entry.title, nil
}

// SetVisible shows or hides the given entry.
func (m *MenuHandler) SetVisible(id uint32, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return newMenuEntryMissingError(id)
	}
	entry.visible = visible
	return nil
}

// Visible returns whether the given entry is shown.
func (m *MenuHandler) Visible(id uint32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return false, newMenuEntryMissingError(id)
	}
	return entry.visible, nil
}

// SetCheckState sets the checkbox state of the given entry.
func (m *MenuHandler) SetCheckState(id uint32, check CheckState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return newMenuEntryMissingError(id)
	}
	entry.check = check
	return nil
}

// CheckState returns the checkbox state of the given entry.
func (m *MenuHandler) CheckState(id uint32) (CheckState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return NoCheckbox, newMenuEntryMissingError(id)
	}
	return entry.check, nil
}

// Entries returns a snapshot of the menu in depth-first order, for rendering in clients.
func (m *MenuHandler) Entries() []MenuEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MenuEntry
	var walk func(ids []uint32)
	walk = func(ids []uint32) {
		for _, id := range ids {
			entry := m.entries[id]
			out = append(out, MenuEntry{
				ID:       entry.id,
				ParentID: entry.parentID,
				Title:    entry.title,
				Visible:  entry.visible,
				Check:    entry.check,
			})
			walk(entry.children)
		}
	}
	walk(m.topLevel)
	return out
}

// HandleFeedback runs the callback of the entry selected in the given menu-select feedback.
func (m *MenuHandler) HandleFeedback(h *Handler, feedback *Feedback) error {
	m.mu.Lock()
	entry, ok := m.entries[feedback.MenuEntryID]
	var callback MenuCallback
	if ok {
		callback = entry.callback
	}
	m.mu.Unlock()

	if !ok {
		return newMenuEntryMissingError(feedback.MenuEntryID)
	}
	if callback != nil {
		callback(h, feedback)
	}
	return nil
}

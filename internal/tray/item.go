package tray

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
)

const (
	StatusNotifierItemInterface = "org.kde.StatusNotifierItem"
	StatusNotifierItemPath      = dbus.ObjectPath("/StatusNotifierItem")
)

type ItemCategory string

// StatusNotifierItem categories.
const (
	// The item describes the status of a generic application.
	ItemCategoryApplicationStatus ItemCategory = "ApplicationStatus"

	// The item describes the state and control of a particular hardware, such
	// as a display.
	ItemCategoryHardware ItemCategory = "Hardware"
)

type ItemStatus string

// StatusNotifierItem statuses.
const (
	ItemStatusPassive        ItemStatus = "Passive"
	ItemStatusActive         ItemStatus = "Active"
	ItemStatusNeedsAttention ItemStatus = "NeedsAttention"
)

// ErrClosed is returned by updates of an item after [Item.Close].
var ErrClosed = errors.New("tray item is closed")

var itemSeq atomic.Int64

// Options configure a new [Item].
type Options struct {
	// Title that describes the application.
	Title string

	// Tooltip is the initial tooltip text.
	Tooltip string

	// IconName is a Freedesktop-compliant icon name shown until an icon
	// pixmap is set.
	IconName string

	// Category of the item. Defaults to [ItemCategoryApplicationStatus].
	Category ItemCategory

	// Entries of the item menu.
	Entries []MenuEntry
}

// Item is the application tray icon. It implements [StatusNotifierItem] and
// the icon.Tray interface.
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierItem/
type Item struct {
	mu         sync.Mutex
	conn       *dbus.Conn
	props      *prop.Properties
	signals    chan *dbus.Signal
	name       string
	listening  bool
	closed     bool
	onActivate func(x, y int32)

	id       string
	title    string
	tooltip  string
	iconName string
	category ItemCategory
	status   ItemStatus
	pixmaps  []Pixmap
	menu     *Menu
}

// NewItem returns a new [Item] with identity id. The item is not visible until
// [Item.Listen] is called.
func NewItem(conn *dbus.Conn, id string, opts Options) *Item {
	category := opts.Category
	if category == "" {
		category = ItemCategoryApplicationStatus
	}

	return &Item{
		conn:       conn,
		signals:    make(chan *dbus.Signal, 16),
		name:       fmt.Sprintf("org.kde.StatusNotifierItem-%d-%d", os.Getpid(), itemSeq.Add(1)),
		onActivate: func(int32, int32) {},
		id:         id,
		title:      opts.Title,
		tooltip:    opts.Tooltip,
		iconName:   opts.IconName,
		category:   category,
		status:     ItemStatusActive,
		pixmaps:    []Pixmap{},
		menu:       NewMenu(opts.Entries),
	}
}

// ID returns the identity of the item.
func (item *Item) ID() string {
	return item.id
}

// Name returns the bus name requested by the item.
func (item *Item) Name() string {
	return item.name
}

// Menu returns the item menu.
func (item *Item) Menu() *Menu {
	return item.menu
}

// Tooltip returns the current tooltip text.
func (item *Item) Tooltip() string {
	item.mu.Lock()
	defer item.mu.Unlock()

	return item.tooltip
}

// IconPixmap returns the current icon, or nil if none was set.
func (item *Item) IconPixmap() *Pixmap {
	item.mu.Lock()
	defer item.mu.Unlock()

	if len(item.pixmaps) == 0 {
		return nil
	}

	pixmap := item.pixmaps[0]
	return &pixmap
}

// OnActivate registers callback that runs whenever the tray host activates the
// item, typically on a left click.
//
// This method should be called before [Item.Listen].
func (item *Item) OnActivate(callback func(x, y int32)) {
	item.mu.Lock()
	defer item.mu.Unlock()

	item.onActivate = callback
}

// Listen requests the item name on D-Bus, exports the item and its menu, and
// registers the item in the watcher.
//
// If Listen is called after [Item.Close], an error is returned.
func (item *Item) Listen() error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.closed {
		return fmt.Errorf("listen: %w", ErrClosed)
	}

	reply, err := item.conn.RequestName(item.name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("listen: failed to request name %s: %w", item.name, err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("listen: name %s already taken", item.name)
	}

	if err := item.export(); err != nil {
		item.unexport()
		item.conn.ReleaseName(item.name)
		return fmt.Errorf("listen: %w", err)
	}

	if err := item.watchWatcher(); err != nil {
		item.unexport()
		item.conn.ReleaseName(item.name)
		return fmt.Errorf("listen: %w", err)
	}

	if err := item.register(); err != nil {
		item.unwatchWatcher()
		item.unexport()
		item.conn.ReleaseName(item.name)
		return fmt.Errorf("listen: %w", err)
	}

	item.listening = true

	return nil
}

// Close releases the item name, unexports objects, and unsubscribes from
// signals.
//
// Item cannot be reused after Close was called. Later icon and tooltip updates
// fail with [ErrClosed].
func (item *Item) Close() error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.closed {
		return nil
	}

	item.closed = true

	if !item.listening {
		return nil
	}

	item.unwatchWatcher()
	item.unexport()

	if _, err := item.conn.ReleaseName(item.name); err != nil {
		return err
	}

	return nil
}

// SetIcon replaces the item icon with PNG data and emits NewIcon.
func (item *Item) SetIcon(data []byte) error {
	pixmap, err := NewPixmapFromPNG(data)
	if err != nil {
		return fmt.Errorf("set icon: %w", err)
	}

	item.mu.Lock()
	defer item.mu.Unlock()

	if item.closed {
		return fmt.Errorf("set icon: %w", ErrClosed)
	}

	item.pixmaps = []Pixmap{*pixmap}

	if !item.listening {
		return nil
	}

	item.props.SetMust(StatusNotifierItemInterface, "IconPixmap", item.pixmaps)

	if err := item.conn.Emit(StatusNotifierItemPath, StatusNotifierItemInterface+".NewIcon"); err != nil {
		return fmt.Errorf("set icon: %w", err)
	}

	return nil
}

// SetTooltip replaces the tooltip text and emits NewToolTip.
func (item *Item) SetTooltip(text string) error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.closed {
		return fmt.Errorf("set tooltip: %w", ErrClosed)
	}

	item.tooltip = text

	if !item.listening {
		return nil
	}

	item.props.SetMust(StatusNotifierItemInterface, "ToolTip", item.toolTip())

	if err := item.conn.Emit(StatusNotifierItemPath, StatusNotifierItemInterface+".NewToolTip"); err != nil {
		return fmt.Errorf("set tooltip: %w", err)
	}

	return nil
}

// SetStatus changes the item status and emits NewStatus.
func (item *Item) SetStatus(status ItemStatus) error {
	item.mu.Lock()
	defer item.mu.Unlock()

	if item.closed {
		return fmt.Errorf("set status: %w", ErrClosed)
	}

	item.status = status

	if !item.listening {
		return nil
	}

	item.props.SetMust(StatusNotifierItemInterface, "Status", string(status))

	return item.conn.Emit(StatusNotifierItemPath, StatusNotifierItemInterface+".NewStatus", string(status))
}

// export exports the item object, its properties and the menu. Callers must
// hold item.mu.
func (item *Item) export() error {
	if err := item.conn.Export(&itemObject{item: item}, StatusNotifierItemPath, StatusNotifierItemInterface); err != nil {
		return fmt.Errorf("failed to export %s: %w", StatusNotifierItemInterface, err)
	}

	if err := item.exportProperties(); err != nil {
		return err
	}

	return item.menu.export(item.conn)
}

// unexport removes everything [Item.export] may have exported. Callers must
// hold item.mu.
func (item *Item) unexport() {
	item.menu.unexport()
	item.conn.Export(nil, StatusNotifierItemPath, StatusNotifierItemInterface)
	item.conn.Export(nil, StatusNotifierItemPath, "org.freedesktop.DBus.Properties")
	item.props = nil
}

// toolTip returns the D-Bus tooltip. Callers must hold item.mu.
func (item *Item) toolTip() toolTip {
	return toolTip{
		IconName:    "",
		IconPixmap:  []Pixmap{},
		Title:       item.tooltip,
		Description: "",
	}
}

// exportProperties exports the org.kde.StatusNotifierItem properties. Callers
// must hold item.mu.
func (item *Item) exportProperties() error {
	props, err := prop.Export(item.conn, StatusNotifierItemPath, prop.Map{
		StatusNotifierItemInterface: map[string]*prop.Prop{
			"Category":            {Value: string(item.category), Writable: false, Emit: prop.EmitFalse},
			"Id":                  {Value: item.id, Writable: false, Emit: prop.EmitFalse},
			"Title":               {Value: item.title, Writable: false, Emit: prop.EmitTrue},
			"Status":              {Value: string(item.status), Writable: false, Emit: prop.EmitTrue},
			"WindowId":            {Value: int32(0), Writable: false, Emit: prop.EmitFalse},
			"IconName":            {Value: item.iconName, Writable: false, Emit: prop.EmitTrue},
			"IconPixmap":          {Value: item.pixmaps, Writable: false, Emit: prop.EmitTrue},
			"OverlayIconName":     {Value: "", Writable: false, Emit: prop.EmitFalse},
			"OverlayIconPixmap":   {Value: []Pixmap{}, Writable: false, Emit: prop.EmitFalse},
			"AttentionIconName":   {Value: "", Writable: false, Emit: prop.EmitFalse},
			"AttentionIconPixmap": {Value: []Pixmap{}, Writable: false, Emit: prop.EmitFalse},
			"AttentionMovieName":  {Value: "", Writable: false, Emit: prop.EmitFalse},
			"ToolTip":             {Value: item.toolTip(), Writable: false, Emit: prop.EmitTrue},
			"ItemIsMenu":          {Value: false, Writable: false, Emit: prop.EmitFalse},
			"Menu":                {Value: MenuPath, Writable: false, Emit: prop.EmitFalse},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to export %s properties: %w", StatusNotifierItemInterface, err)
	}

	item.props = props

	return nil
}

// activate runs the activation callback.
func (item *Item) activate(x, y int32) {
	item.mu.Lock()
	callback := item.onActivate
	item.mu.Unlock()

	callback(x, y)
}

// itemObject holds the methods of org.kde.StatusNotifierItem exported on the
// bus.
type itemObject struct {
	item *Item
}

// Activate is called by the tray host on a primary click.
func (o *itemObject) Activate(x, y int32) *dbus.Error {
	o.item.activate(x, y)
	return nil
}

// SecondaryActivate is called on a middle click. Sunshift has no secondary
// action.
func (o *itemObject) SecondaryActivate(x, y int32) *dbus.Error {
	return nil
}

// ContextMenu is only called by hosts that do not support dbusmenu.
func (o *itemObject) ContextMenu(x, y int32) *dbus.Error {
	return nil
}

// Scroll is called on a mouse wheel over the icon.
func (o *itemObject) Scroll(delta int32, orientation string) *dbus.Error {
	return nil
}

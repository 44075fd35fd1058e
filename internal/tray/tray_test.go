package tray

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"slices"
	"testing"

	"github.com/godbus/dbus/v5"
)

var testEntries = []MenuEntry{
	{Name: "preset_day", Label: "Day (6500K)"},
	{Name: "preset_night", Label: "Night (3000K)"},
	{Separator: true},
	{Name: "disabled", Label: "Disabled", Disabled: true},
	{Name: "quit", Label: "Quit"},
}

func TestGetLayout(t *testing.T) {
	obj := &menuObject{menu: NewMenu(testEntries)}

	revision, layout, dbusErr := obj.GetLayout(0, -1, nil)
	if dbusErr != nil {
		t.Fatalf("GetLayout() error = %v", dbusErr)
	}

	if revision != 1 {
		t.Errorf("revision = %d, want 1", revision)
	}

	if layout.ID != 0 {
		t.Errorf("root id = %d, want 0", layout.ID)
	}

	if len(layout.Children) != len(testEntries) {
		t.Fatalf("children = %d, want %d", len(layout.Children), len(testEntries))
	}

	for idx, child := range layout.Children {
		node, ok := child.Value().(LayoutNode)
		if !ok {
			t.Fatalf("child %d is %T, want LayoutNode", idx, child.Value())
		}

		if node.ID != int32(idx+1) {
			t.Errorf("child %d id = %d, want %d", idx, node.ID, idx+1)
		}

		if testEntries[idx].Separator {
			if got := node.Properties["type"].Value(); got != "separator" {
				t.Errorf("separator type = %v", got)
			}
			continue
		}

		if got := node.Properties["label"].Value(); got != testEntries[idx].Label {
			t.Errorf("child %d label = %v, want %s", idx, got, testEntries[idx].Label)
		}
	}

	if _, layout, _ := obj.GetLayout(0, 0, nil); len(layout.Children) != 0 {
		t.Errorf("recursion depth 0 returned %d children", len(layout.Children))
	}

	if _, _, dbusErr := obj.GetLayout(42, -1, nil); dbusErr == nil {
		t.Errorf("GetLayout(42) returned no error")
	}
}

func TestLayoutSignature(t *testing.T) {
	node := buildLayout(testEntries, -1, nil)

	if got := dbus.SignatureOf(node).String(); got != "(ia{sv}av)" {
		t.Errorf("layout signature = %s, want (ia{sv}av)", got)
	}
}

func TestMenuClicked(t *testing.T) {
	menu := NewMenu(testEntries)
	obj := &menuObject{menu: menu}

	var clicked []string
	menu.OnClicked(func(name string) {
		clicked = append(clicked, name)
	})

	events := []struct {
		id      int32
		eventID string
	}{
		{1, "clicked"},
		{2, "hovered"},
		{3, "clicked"},
		{4, "clicked"},
		{5, "clicked"},
		{0, "clicked"},
	}

	for _, event := range events {
		if err := obj.Event(event.id, event.eventID, dbus.MakeVariant(""), 0); err != nil {
			t.Errorf("Event(%d, %s) error = %v", event.id, event.eventID, err)
		}
	}

	want := []string{"preset_day", "quit"}
	if !slices.Equal(clicked, want) {
		t.Errorf("clicked = %v, want %v", clicked, want)
	}

	if err := obj.Event(99, "clicked", dbus.MakeVariant(""), 0); err == nil {
		t.Errorf("Event(99) returned no error")
	}
}

func TestMenuEventGroup(t *testing.T) {
	menu := NewMenu(testEntries)
	obj := &menuObject{menu: menu}

	var clicked []string
	menu.OnClicked(func(name string) {
		clicked = append(clicked, name)
	})

	idErrors, dbusErr := obj.EventGroup([]menuEvent{
		{ID: 2, EventID: "clicked"},
		{ID: 77, EventID: "clicked"},
	})
	if dbusErr != nil {
		t.Fatalf("EventGroup() error = %v", dbusErr)
	}

	if !slices.Equal(idErrors, []int32{77}) {
		t.Errorf("id errors = %v, want [77]", idErrors)
	}

	if !slices.Equal(clicked, []string{"preset_night"}) {
		t.Errorf("clicked = %v, want [preset_night]", clicked)
	}
}

func TestGetGroupProperties(t *testing.T) {
	obj := &menuObject{menu: NewMenu(testEntries)}

	props, dbusErr := obj.GetGroupProperties([]int32{1, 4, 100}, []string{"enabled"})
	if dbusErr != nil {
		t.Fatalf("GetGroupProperties() error = %v", dbusErr)
	}

	if len(props) != 2 {
		t.Fatalf("got %d nodes, want 2", len(props))
	}

	if enabled := props[0].Properties["enabled"].Value(); enabled != true {
		t.Errorf("node 1 enabled = %v", enabled)
	}

	if enabled := props[1].Properties["enabled"].Value(); enabled != false {
		t.Errorf("node 4 enabled = %v", enabled)
	}

	if _, ok := props[0].Properties["label"]; ok {
		t.Errorf("label returned although not requested")
	}

	value, dbusErr := obj.GetProperty(5, "label")
	if dbusErr != nil || value.Value() != "Quit" {
		t.Errorf("GetProperty(5, label) = %v, %v", value, dbusErr)
	}
}

func TestSetEntriesBumpsRevision(t *testing.T) {
	menu := NewMenu(testEntries)

	if err := menu.SetEntries(testEntries[:1]); err != nil {
		t.Fatalf("SetEntries() error = %v", err)
	}

	revision, layout, _ := (&menuObject{menu: menu}).GetLayout(0, -1, nil)
	if revision != 2 || len(layout.Children) != 1 {
		t.Errorf("revision = %d, children = %d, want 2 and 1", revision, len(layout.Children))
	}
}

func TestNewPixmapFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{10, 20, 30, 255})
	img.SetRGBA(1, 0, color.RGBA{0, 0, 0, 0})

	pixmap := NewPixmapFromImage(img)

	if pixmap.Width != 2 || pixmap.Height != 1 {
		t.Errorf("size = %dx%d, want 2x1", pixmap.Width, pixmap.Height)
	}

	want := []byte{255, 10, 20, 30, 0, 0, 0, 0}
	if !bytes.Equal(pixmap.Bytes, want) {
		t.Errorf("bytes = %v, want %v", pixmap.Bytes, want)
	}
}

func TestNewPixmapFromPNGInvalid(t *testing.T) {
	if _, err := NewPixmapFromPNG([]byte("not a png")); err == nil {
		t.Errorf("NewPixmapFromPNG() returned no error")
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}

	return buf.Bytes()
}

func TestItemUpdatesBeforeListen(t *testing.T) {
	item := NewItem(nil, "main", Options{Title: "Sunshift", Tooltip: "Sunshift - idle"})

	if item.ID() != "main" {
		t.Errorf("ID() = %s, want main", item.ID())
	}

	if item.IconPixmap() != nil {
		t.Errorf("new item has an icon")
	}

	if err := item.SetTooltip("Sunshift - 3000K"); err != nil {
		t.Fatalf("SetTooltip() error = %v", err)
	}

	if got := item.Tooltip(); got != "Sunshift - 3000K" {
		t.Errorf("Tooltip() = %q", got)
	}

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := item.SetIcon(encodePNG(t, img)); err != nil {
		t.Fatalf("SetIcon() error = %v", err)
	}

	if pixmap := item.IconPixmap(); pixmap == nil || pixmap.Width != 4 || len(pixmap.Bytes) != 64 {
		t.Errorf("IconPixmap() = %+v", pixmap)
	}

	if err := item.SetStatus(ItemStatusNeedsAttention); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	if item.status != ItemStatusNeedsAttention {
		t.Errorf("status = %s, want NeedsAttention", item.status)
	}
}

func TestItemClosed(t *testing.T) {
	item := NewItem(nil, "main", Options{})

	if err := item.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := item.SetTooltip("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("SetTooltip() error = %v, want ErrClosed", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := item.SetIcon(encodePNG(t, img)); !errors.Is(err, ErrClosed) {
		t.Errorf("SetIcon() error = %v, want ErrClosed", err)
	}

	if err := item.SetStatus(ItemStatusActive); !errors.Is(err, ErrClosed) {
		t.Errorf("SetStatus() error = %v, want ErrClosed", err)
	}

	if err := item.Listen(); !errors.Is(err, ErrClosed) {
		t.Errorf("Listen() error = %v, want ErrClosed", err)
	}
}

func TestItemActivate(t *testing.T) {
	item := NewItem(nil, "main", Options{})

	activated := 0
	item.OnActivate(func(x, y int32) {
		activated++
	})

	obj := &itemObject{item: item}
	if err := obj.Activate(10, 20); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	if activated != 1 {
		t.Errorf("activated %d times, want 1", activated)
	}
}

func TestItemNamesAreUnique(t *testing.T) {
	a := NewItem(nil, "main", Options{})
	b := NewItem(nil, "main", Options{})

	if a.Name() == b.Name() {
		t.Errorf("items share bus name %s", a.Name())
	}
}

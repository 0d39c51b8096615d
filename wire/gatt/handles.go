// Package gatt holds the static table mapping the watch's logical write
// handles to GATT characteristic UUIDs, and tracks which of them the
// connected watch actually exposes.
package gatt

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Handle is a logical write target on the watch
type Handle uint16

const (
	HandleDeviceName    Handle = 0x04
	HandleAppearance    Handle = 0x06
	HandleTxPower       Handle = 0x09
	HandleRequest       Handle = 0x0C // read requests for all features
	HandleNotification  Handle = 0x0D // app notifications
	HandleAllFeatures   Handle = 0x0E // writes for all features, notifications come back here
	HandleDataRequestSP Handle = 0x11
	HandleConvoy        Handle = 0x14
	HandleSerialNumber  Handle = 0xFF
)

// Casio service and characteristic UUIDs
var (
	ServiceUUID = uuid.MustParse("00001804-0000-1000-8000-00805f9b34fb")

	DeviceNameUUID    = UUID16(0x2A00)
	AppearanceUUID    = UUID16(0x2A01)
	TxPowerUUID       = UUID16(0x2A07)
	SerialNumberUUID  = UUID16(0x2A25)
	ReadRequestUUID   = uuid.MustParse("26eb002c-b012-49a8-b1f8-394fb2032b0f")
	AllFeaturesUUID   = uuid.MustParse("26eb002d-b012-49a8-b1f8-394fb2032b0f")
	NotificationUUID  = uuid.MustParse("26eb0030-b012-49a8-b1f8-394fb2032b0f")
	DataRequestSPUUID = uuid.MustParse("26eb0023-b012-49a8-b1f8-394fb2032b0f")
	ConvoyUUID        = uuid.MustParse("26eb0024-b012-49a8-b1f8-394fb2032b0f")
)

// UUID16 expands a 16-bit assigned number onto the Bluetooth base UUID
// 0000xxxx-0000-1000-8000-00805F9B34FB.
func UUID16(short uint16) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("0000%04x-0000-1000-8000-00805f9b34fb", short))
}

// Characteristic is one entry of the handle table
type Characteristic struct {
	Handle Handle
	UUID   uuid.UUID
	Name   string
}

func (c Characteristic) String() string {
	return fmt.Sprintf("0x%02X %s (%s)", uint16(c.Handle), c.Name, c.UUID)
}

var casioCharacteristics = []Characteristic{
	{HandleDeviceName, DeviceNameUUID, "device name"},
	{HandleAppearance, AppearanceUUID, "appearance"},
	{HandleTxPower, TxPowerUUID, "tx power level"},
	{HandleRequest, ReadRequestUUID, "read request for all features"},
	{HandleNotification, NotificationUUID, "notification"},
	{HandleAllFeatures, AllFeaturesUUID, "all features"},
	{HandleDataRequestSP, DataRequestSPUUID, "data request SP"},
	{HandleConvoy, ConvoyUUID, "convoy"},
	{HandleSerialNumber, SerialNumberUUID, "serial number"},
}

// Table maps handles to characteristics in both directions. The mapping
// is fixed; the supported set is filled from service discovery on each
// connection.
type Table struct {
	mu        sync.RWMutex
	byHandle  map[Handle]Characteristic
	byUUID    map[uuid.UUID]Handle
	supported map[Handle]bool
}

// NewTable creates the Casio handle table with nothing marked supported
func NewTable() *Table {
	t := &Table{
		byHandle:  make(map[Handle]Characteristic, len(casioCharacteristics)),
		byUUID:    make(map[uuid.UUID]Handle, len(casioCharacteristics)),
		supported: make(map[Handle]bool),
	}
	for _, c := range casioCharacteristics {
		t.byHandle[c.Handle] = c
		t.byUUID[c.UUID] = c.Handle
	}
	return t
}

// Lookup returns the characteristic behind a handle
func (t *Table) Lookup(h Handle) (Characteristic, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byHandle[h]
	return c, ok
}

// HandleOf returns the handle for a characteristic UUID
func (t *Table) HandleOf(id uuid.UUID) (Handle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.byUUID[id]
	return h, ok
}

// MarkSupported records the characteristics found on the connected watch
// and returns how many of them are in the table. Unknown UUIDs are ignored.
func (t *Table) MarkSupported(ids []uuid.UUID) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.supported = make(map[Handle]bool, len(ids))
	for _, id := range ids {
		if h, ok := t.byUUID[id]; ok {
			t.supported[h] = true
		}
	}
	return len(t.supported)
}

// Supported reports whether the connected watch exposes the handle
func (t *Table) Supported(h Handle) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.supported[h]
}

// SupportedHandles returns the supported handles in ascending order
func (t *Table) SupportedHandles() []Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()

	handles := make([]Handle, 0, len(t.supported))
	for h := range t.supported {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// Describe renders the supported set for logging
func (t *Table) Describe() string {
	var parts []string
	for _, h := range t.SupportedHandles() {
		c, _ := t.Lookup(h)
		parts = append(parts, c.String())
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// All returns every characteristic in the table, ordered by handle
func All() []Characteristic {
	out := append([]Characteristic(nil), casioCharacteristics...)
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

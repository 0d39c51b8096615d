// Package bluez talks to watches through the BlueZ daemon on the system
// D-Bus: adapter power, LE discovery, GATT writes and notifications.
package bluez

import (
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	"github.com/user/gshock-sync/wire"
)

const (
	busName = "org.bluez"

	adapterInterface        = "org.bluez.Adapter1"
	deviceInterface         = "org.bluez.Device1"
	characteristicInterface = "org.bluez.GattCharacteristic1"
	propertiesInterface     = "org.freedesktop.DBus.Properties"

	// DefaultAdapter is the object path of the first controller
	DefaultAdapter dbus.ObjectPath = "/org/bluez/hci0"
)

// Dial connects to the system bus
func Dial() (*dbus.Conn, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system D-Bus: %w", err)
	}
	return conn, nil
}

// DevicePath returns the BlueZ object path of a device under adapter
func DevicePath(adapter dbus.ObjectPath, address string) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("%s/dev_%s", adapter, strings.ReplaceAll(strings.ToUpper(address), ":", "_")))
}

type managedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

func getManagedObjects(conn *dbus.Conn) (managedObjects, error) {
	objects := make(managedObjects)
	obj := conn.Object(busName, "/")
	if err := obj.Call("org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&objects); err != nil {
		return nil, fmt.Errorf("failed to get managed objects: %w", err)
	}
	return objects, nil
}

func stringProp(props map[string]dbus.Variant, name string) string {
	v, ok := props[name]
	if !ok {
		return ""
	}
	s, _ := v.Value().(string)
	return s
}

// devicesOf lists the devices BlueZ knows under adapter
func devicesOf(objects managedObjects, adapter dbus.ObjectPath) []wire.Device {
	prefix := string(adapter) + "/"
	var out []wire.Device
	for path, ifaces := range objects {
		props, ok := ifaces[deviceInterface]
		if !ok || !strings.HasPrefix(string(path), prefix) {
			continue
		}
		d := wire.Device{
			Name:    stringProp(props, "Name"),
			Address: stringProp(props, "Address"),
		}
		if d.Name == "" {
			d.Name = stringProp(props, "Alias")
		}
		if v, ok := props["RSSI"]; ok {
			d.RSSI, _ = v.Value().(int16)
		}
		if d.Address != "" {
			out = append(out, d)
		}
	}
	return out
}

// characteristicsOf maps the characteristic UUIDs of device to their paths
func characteristicsOf(objects managedObjects, device dbus.ObjectPath) map[uuid.UUID]dbus.ObjectPath {
	prefix := string(device) + "/"
	out := make(map[uuid.UUID]dbus.ObjectPath)
	for path, ifaces := range objects {
		props, ok := ifaces[characteristicInterface]
		if !ok || !strings.HasPrefix(string(path), prefix) {
			continue
		}
		id, err := uuid.Parse(stringProp(props, "UUID"))
		if err != nil {
			continue
		}
		out[id] = path
	}
	return out
}

// BlueZ error names raised when a watch drops the link mid-operation
var raceErrors = map[string]bool{
	"org.bluez.Error.NotConnected":             true,
	"org.bluez.Error.Failed":                   true,
	"org.bluez.Error.InProgress":               true,
	"org.freedesktop.DBus.Error.NoReply":       true,
	"org.freedesktop.DBus.Error.UnknownObject": true,
}

// mapError turns D-Bus disconnect races into wire.ErrDisconnectRace
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) && raceErrors[dbusErr.Name] {
		return fmt.Errorf("%w: %s", wire.ErrDisconnectRace, dbusErr.Error())
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && raceErrors[dbusErrPtr.Name] {
		return fmt.Errorf("%w: %s", wire.ErrDisconnectRace, dbusErrPtr.Error())
	}
	return err
}

// notificationValue extracts the Value of a GattCharacteristic1
// PropertiesChanged signal
func notificationValue(sig *dbus.Signal) ([]byte, bool) {
	if sig == nil || sig.Name != propertiesInterface+".PropertiesChanged" || len(sig.Body) < 2 {
		return nil, false
	}
	if iface, ok := sig.Body[0].(string); !ok || iface != characteristicInterface {
		return nil, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, false
	}
	v, ok := changed["Value"]
	if !ok {
		return nil, false
	}
	value, ok := v.Value().([]byte)
	return value, ok
}

// linkLost reports whether sig is a Device1 change to Connected=false
func linkLost(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != propertiesInterface+".PropertiesChanged" || len(sig.Body) < 2 {
		return false
	}
	if iface, ok := sig.Body[0].(string); !ok || iface != deviceInterface {
		return false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return false
	}
	v, ok := changed["Connected"]
	if !ok {
		return false
	}
	connected, ok := v.Value().(bool)
	return ok && !connected
}

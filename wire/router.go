package wire

import (
	"context"
	"fmt"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/wire/debug"
	"github.com/user/gshock-sync/wire/gatt"
	"github.com/user/gshock-sync/wire/pending"
)

// Router sits between the session and the transport. Outbound, it resolves
// logical handles to characteristics. Inbound, it decodes notifications by
// command byte and fulfils the matching registry entry.
//
// A Router belongs to one connection cycle.
type Router struct {
	transport Transport
	table     *gatt.Table
	registry  *pending.Registry
	battery   casio.BatteryScale

	packets *debug.PacketLogger
	address string
}

// NewRouter wires a router to a connected transport
func NewRouter(t Transport, table *gatt.Table, registry *pending.Registry) *Router {
	return &Router{
		transport: t,
		table:     table,
		registry:  registry,
		battery:   casio.BatteryScale{Lower: 15, Upper: 20},
	}
}

// SetBatteryScale sets the calibration used for watch condition decodes.
// It is called once the watch model is known.
func (r *Router) SetBatteryScale(s casio.BatteryScale) {
	r.battery = s
}

// SetPacketLog records every write and notification of this connection.
// A nil logger turns recording off.
func (r *Router) SetPacketLog(p *debug.PacketLogger, address string) {
	r.packets = p
	r.address = address
}

// Registry returns the registry responses are delivered to
func (r *Router) Registry() *pending.Registry {
	return r.registry
}

// Table returns the characteristic table of this connection
func (r *Router) Table() *gatt.Table {
	return r.table
}

// Write sends payload to the characteristic behind handle. Handles the
// watch does not expose are logged and reported as WriteUnsupported.
func (r *Router) Write(ctx context.Context, handle gatt.Handle, payload []byte) (WriteResult, error) {
	c, ok := r.table.Lookup(handle)
	if !ok || !r.table.Supported(handle) {
		logger.Warn("router", "write failed: handle 0x%02X not in characteristics map", uint16(handle))
		if handle == gatt.HandleNotification {
			logger.Warn("router", "this watch does not support app notifications")
		}
		return WriteUnsupported, nil
	}

	logger.Trace("router", "write 0x%02X: %s", uint16(handle), logger.Hex(payload))
	r.packets.LogWrite(r.address, handle, payload)

	err := r.transport.WriteCharacteristic(ctx, c.UUID, payload)
	res := Classify(err)
	switch res {
	case WriteOK:
		return res, nil
	case WriteRetryable:
		logger.Debug("router", "write 0x%02X raced a disconnect: %v", uint16(handle), err)
		return res, err
	default:
		return res, NewTransportError("write", "", fmt.Errorf("handle 0x%02X: %w", uint16(handle), err))
	}
}

// Notify is the NotifyFunc handed to the transport
func (r *Router) Notify(data []byte) {
	r.Dispatch(data)
}

// Dispatch decodes one notification and fulfils the waiter for its key.
// Unknown command bytes and malformed payloads are logged and dropped.
func (r *Router) Dispatch(raw []byte) {
	if len(raw) == 0 {
		logger.Debug("router", "empty notification dropped")
		return
	}
	data := append([]byte(nil), raw...)
	key := casio.KeyOf(data)
	cmd := casio.Command(data[0])

	logger.Trace("router", "notify %s: %s", cmd, logger.Hex(data))
	r.packets.LogNotification(r.address, data)

	var (
		value interface{}
		err   error
	)

	switch cmd {
	case casio.CmdBLEFeatures:
		value = casio.DecodeButton(data)
	case casio.CmdSettingForBLE:
		value, err = casio.DecodeTimeAdjustment(data)
	case casio.CmdSettingForBasic:
		value, err = casio.DecodeSettings(data)
	case casio.CmdAlarm:
		value, err = casio.DecodeFirstAlarm(data)
	case casio.CmdAlarm2:
		value, err = casio.DecodeSecondaryAlarms(data)
	case casio.CmdTimer:
		value, err = casio.DecodeTimer(data)
	case casio.CmdDSTWatchState, casio.CmdDSTSetting, casio.CmdWorldCities,
		casio.CmdAppInformation, casio.CmdVersion, casio.CmdModuleID:
		// written back verbatim or inspected as raw bytes
		value = data
	case casio.CmdWatchName:
		value, err = casio.DecodeWatchName(data)
	case casio.CmdWatchCondition:
		value, err = casio.DecodeWatchCondition(data, r.battery)
	case casio.CmdReminderTitle:
		value, err = casio.DecodeReminderTitle(data)
	case casio.CmdReminderTime:
		value, err = casio.DecodeReminderTime(data)
	case casio.CmdCurrentTime, casio.CmdCurrentTimeManager, casio.CmdFindPhone:
		logger.Debug("router", "%s notification ignored: %s", cmd, logger.Hex(data))
		return
	case casio.CmdError:
		logger.Warn("router", "watch reported an error: %s", logger.Hex(data))
		return
	default:
		logger.Warn("router", "unknown command 0x%02X dropped: %s", byte(cmd), logger.Hex(data))
		return
	}

	if err != nil {
		logger.Warn("router", "%v; payload %s dropped", err, logger.Hex(data))
		return
	}

	logger.TraceJSON("router", fmt.Sprintf("decoded %s", key), value)
	r.registry.Fulfil(key, value)
}

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/watchinfo"
	"github.com/user/gshock-sync/wire"
	"github.com/user/gshock-sync/wire/gatt"
	"github.com/user/gshock-sync/wire/pending"
)

// Connection is one connect cycle. Its transport, characteristic table,
// registry and router are never reused by the next cycle.
type Connection struct {
	Device    wire.Device
	Transport wire.Transport
	Router    *wire.Router
	API       *API
}

// Open connects transport to dev, discovers its characteristics and
// subscribes to notifications.
func Open(ctx context.Context, transport wire.Transport, dev wire.Device, timeout time.Duration) (*Connection, error) {
	if err := transport.Connect(ctx, dev.Address); err != nil {
		return nil, err
	}

	ids, err := transport.Characteristics(ctx)
	if err != nil {
		transport.Disconnect(ctx)
		return nil, wire.NewTransportError("discover", dev.Address, err)
	}
	table := gatt.NewTable()
	if n := table.MarkSupported(ids); n == 0 {
		transport.Disconnect(ctx)
		return nil, wire.NewTransportError("discover", dev.Address, fmt.Errorf("no Casio characteristics among %d found", len(ids)))
	}
	logger.Debug("session", "characteristics of %s:\n%s", dev.Address, table.Describe())

	router := wire.NewRouter(transport, table, pending.NewRegistry(timeout))
	if err := transport.SubscribeNotify(ctx, gatt.AllFeaturesUUID, router.Notify); err != nil {
		transport.Disconnect(ctx)
		return nil, wire.NewTransportError("subscribe", dev.Address, err)
	}

	caps := watchinfo.Resolve(dev.Name)
	logger.Info("session", "connected to %s (%s), profile %s", dev.Name, dev.Address, caps.Model)
	logger.DebugJSON("session", "capabilities", caps)

	return &Connection{
		Device:    dev,
		Transport: transport,
		Router:    router,
		API:       NewAPI(router, caps, timeout),
	}, nil
}

// Dropped is closed when the watch ends the link. It is nil, and so never
// ready, for transports that cannot tell.
func (c *Connection) Dropped() <-chan struct{} {
	if m, ok := c.Transport.(wire.LinkMonitor); ok {
		return m.Dropped()
	}
	return nil
}

// Close releases pending waiters and disconnects
func (c *Connection) Close(ctx context.Context) error {
	c.Router.Registry().CancelAll()
	return c.Transport.Disconnect(ctx)
}

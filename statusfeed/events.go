package statusfeed

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/olebedev/emitter"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/session"
	"github.com/user/gshock-sync/wire"
)

// Event types
const (
	TypeStatus = "gshock/status"
	TypeState  = "gshock/state"
	TypeSynced = "gshock/synced"
	TypeError  = "gshock/error"
)

func newEvent(typ string, fields map[string]interface{}) (Event, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return Event{}, err
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: typ, Payload: b}, nil
}

// StatusEvent renders a display update
func StatusEvent(info session.DisplayInfo) (Event, error) {
	return newEvent(TypeStatus, map[string]interface{}{
		"watchName":   info.WatchName,
		"battery":     info.BatteryPercent,
		"temperature": info.Temperature,
		"lastSync":    info.LastSync,
		"alarm":       info.NextAlarm,
		"reminder":    info.ReminderTitle,
		"autoSync":    info.AutoSyncOn,
	})
}

// StateEvent renders a state change of the sync loop
func StateEvent(state session.State, dev wire.Device) (Event, error) {
	return newEvent(TypeState, map[string]interface{}{
		"state":   state.String(),
		"name":    dev.Name,
		"address": dev.Address,
	})
}

func (h *Hub) publish(ev Event, err error) {
	if err != nil {
		logger.Warn("feed", "failed to encode event: %v", err)
		return
	}
	h.Broadcast(ev)
}

// ShowStatus makes the hub a session.DisplaySink
func (h *Hub) ShowStatus(info session.DisplayInfo) {
	h.publish(StatusEvent(info))
}

// Attach forwards the runner's state, sync and error events to the feed
func (h *Hub) Attach(r *session.Runner) {
	r.On(session.TopicState, func(e *emitter.Event) {
		state, _ := e.Args[0].(session.State)
		dev, _ := e.Args[1].(wire.Device)
		h.publish(StateEvent(state, dev))
	})
	r.On(session.TopicSynced, func(e *emitter.Event) {
		dev, _ := e.Args[0].(wire.Device)
		button, _ := e.Args[1].(casio.WatchButton)
		at, _ := e.Args[2].(time.Time)
		h.publish(newEvent(TypeSynced, map[string]interface{}{
			"name":   dev.Name,
			"button": button.String(),
			"time":   at.Format(time.RFC3339),
		}))
	})
	r.On(session.TopicError, func(e *emitter.Event) {
		err, _ := e.Args[0].(error)
		msg := "unknown error"
		if err != nil {
			msg = err.Error()
		}
		h.publish(newEvent(TypeError, map[string]interface{}{"error": msg}))
	})
}

// Serve runs the feed on addr until ctx is cancelled
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	logger.Info("feed", "status feed on ws://%s/ws", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

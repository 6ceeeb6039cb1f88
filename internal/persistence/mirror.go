// Package persistence mirrors live room state into the durable store.
// Writes are best effort: the gateway enqueues and moves on, workers flush
// in the background, and a full queue drops the write rather than stall a
// relay.
package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/inkroom/inkroom/internal/domain"
	"github.com/inkroom/inkroom/internal/infrastructure/logging"
	"github.com/inkroom/inkroom/internal/infrastructure/metrics"
)

const (
	DefaultQueueSize = 256
	DefaultWorkers   = 2

	opTimeout = 5 * time.Second
)

type opKind int

const (
	opSave opKind = iota
	opDelete
)

type op struct {
	kind   opKind
	room   *domain.Room
	roomID string
}

// Mirror drains a bounded queue of save/delete operations into a RoomStore.
type Mirror struct {
	store   domain.RoomStore
	queue   chan op
	workers int
	log     logging.Logger
	metrics *metrics.Metrics

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

func NewMirror(store domain.RoomStore, queueSize, workers int, log logging.Logger, m *metrics.Metrics) *Mirror {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Mirror{
		store:   store,
		queue:   make(chan op, queueSize),
		workers: workers,
		log:     log,
		metrics: m,
		stop:    make(chan struct{}),
	}
}

// Run starts the worker pool. Call Close to drain and stop.
func (m *Mirror) Run() {
	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
}

// Save enqueues a room snapshot, dropping it when the queue is full. The
// room must already be a private copy; the mirror holds it past the call.
func (m *Mirror) Save(room *domain.Room) {
	m.enqueue(op{kind: opSave, room: room, roomID: room.ID})
}

// Delete enqueues removal of a room from the durable store.
func (m *Mirror) Delete(roomID string) {
	m.enqueue(op{kind: opDelete, roomID: roomID})
}

func (m *Mirror) enqueue(o op) {
	select {
	case m.queue <- o:
	default:
		if m.metrics != nil {
			m.metrics.MirrorDropped.Inc()
		}
		m.log.Warn(logging.Persistence, logging.Mirror, "queue full, dropping write", map[logging.ExtraKey]any{
			logging.RoomID: o.roomID,
		})
	}
}

func (m *Mirror) worker() {
	defer m.wg.Done()

	for {
		select {
		case o := <-m.queue:
			m.apply(o)
		case <-m.stop:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case o := <-m.queue:
					m.apply(o)
				default:
					return
				}
			}
		}
	}
}

func (m *Mirror) apply(o op) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var err error
	switch o.kind {
	case opSave:
		err = m.store.Save(ctx, o.room)
	case opDelete:
		err = m.store.Delete(ctx, o.roomID)
	}
	if err != nil {
		m.log.Warn(logging.Persistence, logging.Mirror, "write failed", map[logging.ExtraKey]any{
			logging.RoomID:       o.roomID,
			logging.ErrorMessage: err.Error(),
		})
	}
}

// Close stops the workers after draining queued operations.
func (m *Mirror) Close() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	m.wg.Wait()
}

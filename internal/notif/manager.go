package notif

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/metrics"
)

// deliveryTimeout bounds one queued event's trip through the observers. Queued events are
// detached from the manager's lifetime so that Shutdown can still flush them.
const deliveryTimeout = 10 * time.Second

// NotificationManager fans events out to observers, either inline (Notify) or
// through a bounded queue drained by a fixed worker pool (NotifyAsync).
type NotificationManager struct {
	observers    map[string]common.Observer
	eventChannel chan common.NotificationEvent
	workerPool   int
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	wg           sync.WaitGroup
	log          *zap.Logger
}

func NewNotificationManager(workerPoolSize, bufferSize int, log *zap.Logger) *NotificationManager {
	if workerPoolSize <= 0 {
		workerPoolSize = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())

	nm := &NotificationManager{
		observers:    make(map[string]common.Observer),
		eventChannel: make(chan common.NotificationEvent, bufferSize),
		workerPool:   workerPoolSize,
		ctx:          ctx,
		cancel:       cancel,
		log:          log,
	}

	for i := 0; i < workerPoolSize; i++ {
		nm.wg.Add(1)
		go nm.processEvents()
	}

	return nm
}

func (nm *NotificationManager) Subscribe(observer common.Observer) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.observers[observer.Name()] = observer
	nm.log.Debug("observer subscribed", zap.String("observer", observer.Name()))
}

func (nm *NotificationManager) Unsubscribe(observer common.Observer) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.observers, observer.Name())
	nm.log.Debug("observer unsubscribed", zap.String("observer", observer.Name()))
}

// Notify delivers to every observer. An observer failure is logged and does not stop the others.
func (nm *NotificationManager) Notify(ctx context.Context, event common.NotificationEvent) {
	nm.mu.RLock()
	observers := make([]common.Observer, 0, len(nm.observers))
	for _, obs := range nm.observers {
		observers = append(observers, obs)
	}
	nm.mu.RUnlock()

	for _, observer := range observers {
		if err := observer.Update(ctx, event); err != nil {
			nm.log.Warn("observer update failed",
				zap.String("observer", observer.Name()),
				zap.String("type", string(event.Type)),
				zap.Error(err))
		}
	}
}

// NotifyAsync never blocks: the event is dropped when the queue is full or the manager is stopped.
func (nm *NotificationManager) NotifyAsync(event common.NotificationEvent) bool {
	if nm.ctx.Err() != nil {
		return false
	}
	select {
	case nm.eventChannel <- event:
		return true
	default:
		metrics.NotificationsDropped.Inc()
		nm.log.Warn("notification channel full, dropping event",
			zap.String("type", string(event.Type)),
			zap.Uint64("user_id", event.UserID))
		return false
	}
}

func (nm *NotificationManager) processEvents() {
	defer nm.wg.Done()

	for {
		select {
		case event := <-nm.eventChannel:
			nm.deliver(event)
		case <-nm.ctx.Done():
			nm.drain()
			return
		}
	}
}

// drain delivers whatever is still queued when the manager stops.
func (nm *NotificationManager) drain() {
	for {
		select {
		case event := <-nm.eventChannel:
			nm.deliver(event)
		default:
			return
		}
	}
}

func (nm *NotificationManager) deliver(event common.NotificationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	nm.Notify(ctx, event)
}

func (nm *NotificationManager) Shutdown() {
	nm.cancel()
	nm.wg.Wait()
	nm.log.Info("notification manager shutdown complete")
}

package session

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/internal/metrics"
)

// EventHandler 事件处理器
type EventHandler func(Event)

// Bus 发布/订阅事件总线。
// 每个订阅者有独立的无界队列与投递协程，同一订阅者按发布顺序收到全部事件，
// 慢订阅者只会积压，不会丢事件，也不会阻塞发布方。
// 处理器 panic 会被恢复并记录。新订阅者不会收到历史事件。
type Bus struct {
	mu      sync.RWMutex
	subs    map[int64]*subscriber
	nextID  atomic.Int64
	closed  bool
	metrics *metrics.Collector
	logger  *zap.Logger
}

type subscriber struct {
	id      int64
	handler EventHandler

	// pending 为无界 FIFO；signal 容量为 1，有新事件入队时置位
	mu      sync.Mutex
	pending []Event
	signal  chan struct{}
	done    chan struct{}
}

func (s *subscriber) push(event Event) {
	s.mu.Lock()
	s.pending = append(s.pending, event)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// drain 取走当前积压的全部事件
func (s *subscriber) drain() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.pending
	s.pending = nil
	return batch
}

func (s *subscriber) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// NewBus 创建事件总线
func NewBus(collector *metrics.Collector, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:    make(map[int64]*subscriber),
		metrics: collector,
		logger:  logger.With(zap.String("component", "event_bus")),
	}
}

// Publish 发布事件，不阻塞调用方
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	b.metrics.RecordEvent(string(event.Type))
	b.metrics.AddEventsPending(len(b.subs))
	for _, s := range b.subs {
		s.push(event)
	}
}

// Subscribe 订阅全部事件，返回取消订阅函数（可重复调用）
func (b *Bus) Subscribe(handler EventHandler) (unsubscribe func()) {
	s := &subscriber{
		id:      b.nextID.Add(1),
		handler: handler,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	b.subs[s.id] = s
	b.mu.Unlock()

	go b.deliver(s)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[s.id]; ok {
				delete(b.subs, s.id)
				close(s.done)
			}
			b.mu.Unlock()
		})
	}
}

// deliver 按顺序投递，直到取消订阅或总线关闭；未投递的积压随之丢弃
func (b *Bus) deliver(s *subscriber) {
	defer func() {
		b.metrics.AddEventsPending(-len(s.drain()))
	}()

	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}

		batch := s.drain()
		for i, event := range batch {
			if s.stopped() {
				b.metrics.AddEventsPending(i - len(batch))
				return
			}
			b.invoke(s, event)
			b.metrics.AddEventsPending(-1)
		}
	}
}

func (b *Bus) invoke(s *subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.Int64("subscriber", s.id), zap.String("event", string(event.Type)), zap.Any("recover", r))
		}
	}()
	s.handler(event)
}

// Len 当前订阅者数量
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close 停止所有投递协程，之后的发布与订阅都被忽略
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		close(s.done)
		delete(b.subs, id)
	}
}

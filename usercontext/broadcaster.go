package usercontext

import (
	"sync"
	"sync/atomic"

	"github.com/BaSui01/designflow/preference"
)

// SubscriberRecorder 接收当前订阅者总数
type SubscriberRecorder interface {
	RecordStreamSubscribers(n int)
}

type subscription struct {
	ch chan preference.Snapshot
}

// Broadcaster 按用户 ID 推送快照
type Broadcaster struct {
	mu       sync.RWMutex
	subs     map[string]map[uint64]*subscription
	total    int
	nextID   atomic.Uint64
	stopped  bool
	recorder SubscriberRecorder
}

// NewBroadcaster 创建广播器；recorder 可为 nil
func NewBroadcaster(recorder SubscriberRecorder) *Broadcaster {
	return &Broadcaster{
		subs:     make(map[string]map[uint64]*subscription),
		recorder: recorder,
	}
}

// Subscribe 订阅某个用户的快照。返回的通道在取消订阅或 Stop 后关闭。
// cancel 可重复调用。
func (b *Broadcaster) Subscribe(userID string) (<-chan preference.Snapshot, func()) {
	sub := &subscription{ch: make(chan preference.Snapshot, 1)}
	id := b.nextID.Add(1)

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[uint64]*subscription)
	}
	b.subs[userID][id] = sub
	b.total++
	b.record()
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() { b.unsubscribe(userID, id) })
	}
}

func (b *Broadcaster) unsubscribe(userID string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[userID]
	sub, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(b.subs, userID)
	}
	close(sub.ch)
	b.total--
	b.record()
}

// Publish 把快照推送给该用户的所有订阅者。
// 订阅者缓冲区已满时丢弃旧值，只保留最新快照。
func (b *Broadcaster) Publish(userID string, snap preference.Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs[userID] {
		// 每个订阅者独立拷贝，避免共享 map
		offerLatest(sub.ch, snap.Clone())
	}
}

// offerLatest 非阻塞写入容量为 1 的通道，满时替换旧值。
// 调用方持有读锁，通道不会在期间被关闭。
func offerLatest(ch chan preference.Snapshot, snap preference.Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// SubscriberCount 返回当前订阅者总数
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

// Stop 关闭所有订阅通道，之后的订阅立即得到已关闭的通道
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}
	b.stopped = true
	for userID, subs := range b.subs {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(b.subs, userID)
	}
	b.total = 0
	b.record()
}

// record 调用方必须持有写锁
func (b *Broadcaster) record() {
	if b.recorder != nil {
		b.recorder.RecordStreamSubscribers(b.total)
	}
}

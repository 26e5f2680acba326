package host

import (
	"sync"
	"time"
)

// SessionStore LRU 会话存储. Evicted sessions are handed to onEvict after
// the store lock is released.
type SessionStore struct {
	capacity int
	onEvict  func(*Session)

	mu    sync.Mutex
	items map[string]*storeItem
	head  *storeItem
	tail  *storeItem
	stats StoreStats
}

type storeItem struct {
	key       string
	session   *Session
	timestamp time.Time
	prev      *storeItem
	next      *storeItem
}

// StoreStats 存储指标
type StoreStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// NewSessionStore 创建会话存储
func NewSessionStore(capacity int, onEvict func(*Session)) *SessionStore {
	if capacity <= 0 {
		capacity = 1000
	}

	s := &SessionStore{
		capacity: capacity,
		onEvict:  onEvict,
		items:    make(map[string]*storeItem),
	}

	// 初始化双向链表
	s.head = &storeItem{}
	s.tail = &storeItem{}
	s.head.next = s.tail
	s.tail.prev = s.head

	return s
}

// Get 获取会话, 命中时移到头部
func (s *SessionStore) Get(handle string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[handle]
	if !exists {
		s.stats.Misses++
		return nil, false
	}

	s.stats.Hits++
	s.moveToHead(item)
	return item.session, true
}

// Put 写入会话, 超出容量时淘汰最久未使用的
func (s *SessionStore) Put(session *Session) {
	evicted := s.put(session)
	if evicted != nil && s.onEvict != nil {
		s.onEvict(evicted)
	}
}

func (s *SessionStore) put(session *Session) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, exists := s.items[session.Handle]; exists {
		item.session = session
		item.timestamp = time.Now()
		s.moveToHead(item)
		return nil
	}

	item := &storeItem{
		key:       session.Handle,
		session:   session,
		timestamp: time.Now(),
	}
	s.items[item.key] = item
	s.addToHead(item)

	if len(s.items) > s.capacity {
		s.stats.Evictions++
		return s.removeTail()
	}
	return nil
}

// Remove 移除会话
func (s *SessionStore) Remove(handle string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[handle]
	if !exists {
		return nil, false
	}
	s.removeItem(item)
	delete(s.items, handle)
	return item.session, true
}

// Clear 清空存储, 返回被移除的会话
func (s *SessionStore) Clear() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]*Session, 0, len(s.items))
	for _, item := range s.items {
		sessions = append(sessions, item.session)
	}
	s.items = make(map[string]*storeItem)
	s.head.next = s.tail
	s.tail.prev = s.head
	return sessions
}

// Handles 按最近使用顺序返回所有 handle
func (s *SessionStore) Handles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	handles := make([]string, 0, len(s.items))
	for item := s.head.next; item != s.tail; item = item.next {
		handles = append(handles, item.key)
	}
	return handles
}

// Len 获取当前大小
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Stats 返回指标副本
func (s *SessionStore) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Size = len(s.items)
	return st
}

// addToHead 添加项到头部
func (s *SessionStore) addToHead(item *storeItem) {
	item.next = s.head.next
	item.prev = s.head
	s.head.next.prev = item
	s.head.next = item
}

// moveToHead 移动项到头部
func (s *SessionStore) moveToHead(item *storeItem) {
	s.removeItem(item)
	s.addToHead(item)
}

// removeItem 移除项
func (s *SessionStore) removeItem(item *storeItem) {
	item.prev.next = item.next
	item.next.prev = item.prev
}

// removeTail 移除尾部项
func (s *SessionStore) removeTail() *Session {
	if s.tail.prev == s.head {
		return nil
	}

	lastItem := s.tail.prev
	s.removeItem(lastItem)
	delete(s.items, lastItem.key)
	return lastItem.session
}

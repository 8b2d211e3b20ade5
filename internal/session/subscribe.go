package session

import "go.uber.org/zap"

// Subscribe registers for refresh updates. Updates that do not fit in the
// buffer are dropped for that subscriber so the loop never blocks. The
// returned func unsubscribes; the channel is closed on unsubscribe or when
// the session closes.
func (s *Session) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Update, buffer)

	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	if s.subsClosed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() { s.unsubscribe(id) }
}

func (s *Session) unsubscribe(id uint64) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) publish(u Update) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.subsClosed {
		return
	}
	for id, ch := range s.subs {
		select {
		case ch <- u:
		default:
			s.logger.Debug("subscriber lagging, update dropped",
				zap.Uint64("subscriber", id),
				zap.Uint64("tick", u.Tick),
			)
		}
	}
}

func (s *Session) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.subsClosed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

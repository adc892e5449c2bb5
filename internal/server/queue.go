package server

// liveness and memberships are the narrow views of the registry and
// room manager the queue is allowed to consult.
type liveness interface {
	IsLive(id string) bool
}

type memberships interface {
	HasActiveRoom(id string) bool
}

// MatchQueue is the FIFO of connections waiting for a partner. A given
// id appears at most once. Owned by the coordinator's dispatch
// goroutine.
type MatchQueue struct {
	ids      []string
	queued   map[string]struct{}
	registry liveness
	rooms    memberships
}

func NewMatchQueue(registry liveness, rooms memberships) *MatchQueue {
	return &MatchQueue{
		queued:   make(map[string]struct{}),
		registry: registry,
		rooms:    rooms,
	}
}

// RequestMatch pairs id with the oldest waiting live connection. An
// empty partner means the requester was enqueued and is now waiting.
// Stale entries (disconnected, or the requester itself) are discarded
// and the scan continues, so a dead head entry never blocks pairing.
func (mq *MatchQueue) RequestMatch(id string) (partner string, err error) {
	if _, ok := mq.queued[id]; ok {
		return "", ErrAlreadySearching
	}
	if mq.rooms.HasActiveRoom(id) {
		return "", ErrAlreadyInRoom
	}

	for len(mq.ids) > 0 {
		candidate := mq.ids[0]
		mq.ids = mq.ids[1:]
		delete(mq.queued, candidate)

		if candidate == id || !mq.registry.IsLive(candidate) {
			continue
		}
		return candidate, nil
	}

	mq.ids = append(mq.ids, id)
	mq.queued[id] = struct{}{}
	return "", nil
}

// Remove drops id from the queue if present, no-op otherwise.
func (mq *MatchQueue) Remove(id string) {
	if _, ok := mq.queued[id]; !ok {
		return
	}

	delete(mq.queued, id)
	for i, queued := range mq.ids {
		if queued == id {
			mq.ids = append(mq.ids[:i], mq.ids[i+1:]...)
			return
		}
	}
}

func (mq *MatchQueue) Contains(id string) bool {
	_, ok := mq.queued[id]
	return ok
}

func (mq *MatchQueue) Len() int {
	return len(mq.ids)
}

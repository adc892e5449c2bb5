package server

import (
	"fmt"
	"time"
)

type room struct {
	id        string
	members   map[string]struct{}
	active    bool
	createdAt time.Time
}

// RoomManager owns room creation, membership and teardown. A room is
// created with exactly two members and is deactivated as soon as either
// of them leaves; it is removed entirely once both have. Owned by the
// coordinator's dispatch goroutine.
type RoomManager struct {
	rooms      map[string]*room
	memberRoom map[string]string
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:      make(map[string]*room),
		memberRoom: make(map[string]string),
	}
}

// RoomID derives the canonical room identifier for a pair. The members
// are ordered before combining so both sides derive the same id no
// matter who initiated the pairing.
func RoomID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("room_%s_%s", a, b)
}

func (rm *RoomManager) CreateRoom(a, b string) (string, error) {
	if _, ok := rm.memberRoom[a]; ok {
		return "", ErrAlreadyInRoom
	}
	if _, ok := rm.memberRoom[b]; ok {
		return "", ErrAlreadyInRoom
	}

	id := RoomID(a, b)
	rm.rooms[id] = &room{
		id: id,
		members: map[string]struct{}{
			a: {},
			b: {},
		},
		active:    true,
		createdAt: time.Now(),
	}
	rm.memberRoom[a] = id
	rm.memberRoom[b] = id

	return id, nil
}

// IsMember reports whether id belongs to an active room. Members of a
// deactivated room fail this check, which is what closes the session
// for the side that stayed behind.
func (rm *RoomManager) IsMember(roomID, id string) bool {
	r, ok := rm.rooms[roomID]
	if !ok || !r.active {
		return false
	}

	_, member := r.members[id]
	return member
}

func (rm *RoomManager) Active(roomID string) bool {
	r, ok := rm.rooms[roomID]
	return ok && r.active
}

// Leave removes id from the room's membership and deactivates the
// room; a session does not survive either member leaving. The room is
// dropped once membership reaches zero. Leaving twice, or leaving a
// room that does not exist, is a no-op.
func (rm *RoomManager) Leave(roomID, id string) {
	r, ok := rm.rooms[roomID]
	if !ok {
		return
	}

	if _, member := r.members[id]; !member {
		return
	}

	delete(r.members, id)
	delete(rm.memberRoom, id)
	r.active = false

	if len(r.members) == 0 {
		delete(rm.rooms, roomID)
	}
}

// RoomOf returns the room id currently holding a membership entry for
// id, whether or not the room is still active. Used by the disconnect
// cascade.
func (rm *RoomManager) RoomOf(id string) (string, bool) {
	roomID, ok := rm.memberRoom[id]
	return roomID, ok
}

func (rm *RoomManager) HasActiveRoom(id string) bool {
	roomID, ok := rm.memberRoom[id]
	return ok && rm.Active(roomID)
}

// OtherMembers returns the broadcast targets for a sender: every
// member of the room except the sender itself.
func (rm *RoomManager) OtherMembers(roomID, id string) []string {
	r, ok := rm.rooms[roomID]
	if !ok {
		return nil
	}

	var others []string
	for member := range r.members {
		if member != id {
			others = append(others, member)
		}
	}
	return others
}

// Len counts the active rooms.
func (rm *RoomManager) Len() int {
	var n int
	for _, r := range rm.rooms {
		if r.active {
			n++
		}
	}
	return n
}

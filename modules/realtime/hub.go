package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
)

const commandBuffer = 256

// Hub owns every session and room index. All state changes run on the Run
// goroutine, in the order they were submitted.
type Hub struct {
	sessions map[string]*Session            // sessionID -> session
	rooms    map[string]map[string]*Session // room -> sessionID -> session
	commands chan func()
	done     chan struct{}

	clientCount atomic.Int64
	roomCount   atomic.Int64
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]*Session),
		commands: make(chan func(), commandBuffer),
		done:     make(chan struct{}),
	}
}

// Run processes commands until ctx is cancelled, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAll()
			close(h.done)
			return
		case cmd := <-h.commands:
			cmd()
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of registered sessions.
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// RoomCount returns the number of non-empty rooms.
func (h *Hub) RoomCount() int {
	return int(h.roomCount.Load())
}

// RoomSize returns the number of sessions in room. It waits for every
// previously submitted command to finish.
func (h *Hub) RoomSize(room string) int {
	result := make(chan int, 1)
	if !h.enqueue(func() { result <- len(h.rooms[room]) }) {
		return 0
	}
	select {
	case n := <-result:
		return n
	case <-h.done:
		return 0
	}
}

// Register adds a session in the unestablished state.
func (h *Hub) Register(s *Session) {
	h.enqueue(func() { h.handleRegister(s) })
}

// Unregister removes a session from every room and closes its outbound channel.
func (h *Hub) Unregister(s *Session) {
	h.enqueue(func() { h.handleUnregister(s) })
}

// Setup binds a session to userID and joins its personal room.
func (h *Hub) Setup(s *Session, userID string) {
	h.enqueue(func() { h.handleSetup(s, userID) })
}

// JoinRoom adds an established session to a chat room.
func (h *Hub) JoinRoom(s *Session, chatID string) {
	h.enqueue(func() { h.handleJoin(s, chatID) })
}

// Typing notifies the other sessions in a chat room.
func (h *Hub) Typing(s *Session, chatID string) {
	h.enqueue(func() { h.handleTyping(s, chatID, EventTyping) })
}

// StopTyping notifies the other sessions in a chat room.
func (h *Hub) StopTyping(s *Session, chatID string) {
	h.enqueue(func() { h.handleTyping(s, chatID, EventStopTyping) })
}

// NewMessage delivers a resolved message to the personal rooms of every chat
// member except the sender. Payloads without chat.users are dropped.
func (h *Hub) NewMessage(s *Session, message json.RawMessage) {
	senderID, recipients, err := parseMessage(message)
	if err != nil {
		log.Printf("[hub] Dropping new message from session %s: %v", s.ID(), err)
		return
	}
	frame, err := encodeFrame(EventMessageReceived, message)
	if err != nil {
		log.Printf("[hub] Failed to encode message frame: %v", err)
		return
	}
	h.enqueue(func() { h.handleNewMessage(s, senderID, recipients, frame) })
}

// Dispatch decodes one inbound frame and routes it. Malformed frames and
// unknown events are logged and dropped.
func (h *Hub) Dispatch(s *Session, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Printf("[hub] Dropping malformed frame from session %s: %v", s.ID(), err)
		return
	}

	switch frame.Event {
	case EventSetup:
		var ref userRef
		if err := json.Unmarshal(frame.Data, &ref); err != nil || ref.ID == "" {
			log.Printf("[hub] Dropping setup without user id from session %s", s.ID())
			return
		}
		h.Setup(s, ref.ID)
	case EventJoinChat, EventJoinRoom, EventTyping, EventStopTyping, EventStopTypingAlt:
		chatID, err := parseChatID(frame.Data)
		if err != nil || chatID == "" {
			log.Printf("[hub] Dropping %q without chat id from session %s", frame.Event, s.ID())
			return
		}
		switch frame.Event {
		case EventJoinChat, EventJoinRoom:
			h.JoinRoom(s, chatID)
		case EventTyping:
			h.Typing(s, chatID)
		default:
			h.StopTyping(s, chatID)
		}
	case EventNewMessage, EventNewMessageAlt:
		h.NewMessage(s, frame.Data)
	default:
		log.Printf("[hub] Dropping unknown event %q from session %s", frame.Event, s.ID())
	}
}

// enqueue submits cmd unless the hub has stopped.
func (h *Hub) enqueue(cmd func()) bool {
	select {
	case h.commands <- cmd:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) handleRegister(s *Session) {
	if _, ok := h.sessions[s.id]; ok {
		return
	}
	h.sessions[s.id] = s
	h.clientCount.Add(1)
	log.Printf("[hub] Session %s registered", s.id)
}

func (h *Hub) handleUnregister(s *Session) {
	if _, ok := h.sessions[s.id]; !ok {
		return
	}
	for room := range s.rooms {
		h.leave(room, s)
	}
	delete(h.sessions, s.id)
	close(s.send)
	h.clientCount.Add(-1)
	log.Printf("[hub] Session %s unregistered", s.id)
}

func (h *Hub) handleSetup(s *Session, userID string) {
	if !h.registered(s) {
		return
	}
	if s.authUserID != "" && s.authUserID != userID {
		log.Printf("[hub] Ignoring setup for %s on session %s authenticated as %s", userID, s.id, s.authUserID)
		return
	}
	if s.userID != "" && s.userID != userID {
		log.Printf("[hub] Ignoring setup for %s on session %s already bound to %s", userID, s.id, s.userID)
		return
	}

	s.userID = userID
	h.join(PersonalRoom(userID), s)

	frame, err := encodeFrame(EventConnected, nil)
	if err != nil {
		log.Printf("[hub] Failed to encode connected frame: %v", err)
		return
	}
	h.deliver(s, frame)
}

func (h *Hub) handleJoin(s *Session, chatID string) {
	if !h.established(s) {
		return
	}
	h.join(ChatRoom(chatID), s)
	log.Printf("[hub] User %s joined room %s", s.userID, chatID)
}

// handleTyping relays to every other connection in the chat room. The
// sender need not have joined it.
func (h *Hub) handleTyping(s *Session, chatID, event string) {
	if !h.established(s) {
		return
	}
	room := ChatRoom(chatID)

	frame, err := encodeFrame(event, chatID)
	if err != nil {
		log.Printf("[hub] Failed to encode %s frame: %v", event, err)
		return
	}
	for id, member := range h.rooms[room] {
		if id != s.id {
			h.deliver(member, frame)
		}
	}
}

func (h *Hub) handleNewMessage(s *Session, senderID string, recipients []string, frame []byte) {
	if !h.established(s) {
		return
	}
	if s.authUserID != "" && s.authUserID != senderID {
		log.Printf("[hub] Dropping new message from session %s: sender %s is not %s", s.id, senderID, s.authUserID)
		return
	}

	delivered := make(map[string]struct{})
	for _, userID := range recipients {
		for id, member := range h.rooms[PersonalRoom(userID)] {
			if id == s.id {
				continue
			}
			if _, dup := delivered[id]; dup {
				continue
			}
			delivered[id] = struct{}{}
			h.deliver(member, frame)
		}
	}
}

func (h *Hub) registered(s *Session) bool {
	_, ok := h.sessions[s.id]
	return ok
}

// established reports whether s is registered and has completed setup.
func (h *Hub) established(s *Session) bool {
	if !h.registered(s) {
		return false
	}
	if s.userID == "" {
		log.Printf("[hub] Ignoring event from session %s before setup", s.id)
		return false
	}
	return true
}

func (h *Hub) join(room string, s *Session) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Session)
		h.rooms[room] = members
		h.roomCount.Add(1)
	}
	members[s.id] = s
	s.rooms[room] = struct{}{}
}

func (h *Hub) leave(room string, s *Session) {
	delete(s.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, s.id)
	if len(members) == 0 {
		delete(h.rooms, room)
		h.roomCount.Add(-1)
	}
}

// deliver never blocks; a full outbound buffer drops the frame.
func (h *Hub) deliver(s *Session, frame []byte) {
	select {
	case s.send <- frame:
	default:
		log.Printf("[hub] Outbound buffer full for session %s, dropping frame", s.id)
	}
}

func (h *Hub) closeAll() {
	for _, s := range h.sessions {
		close(s.send)
	}
	h.sessions = make(map[string]*Session)
	h.rooms = make(map[string]map[string]*Session)
	h.clientCount.Store(0)
	h.roomCount.Store(0)
}

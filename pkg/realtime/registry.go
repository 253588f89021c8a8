// Package realtime holds the socket side of message delivery: the room
// registry and the websocket connection wrapper.
package realtime

import (
	"log/slog"
	"sync"
)

// Endpoint is a live connection that can be a room member.
type Endpoint interface {
	ID() string
	Send(payload []byte) error
	Close(code int, reason string)
}

// Registry tracks, per conversation, which endpoints receive new messages.
// Rooms are created lazily on first subscribe and dropped when empty.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]map[string]Endpoint // conversationID -> endpointID -> endpoint
	memberships map[string]map[string]struct{} // endpointID -> conversationIDs
	logger      *slog.Logger
}

// NewRegistry creates an empty registry. Pass nil logger for default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms:       make(map[string]map[string]Endpoint),
		memberships: make(map[string]map[string]struct{}),
		logger:      logger.With("component", "registry"),
	}
}

// Subscribe adds ep to the conversation's room. Subscribing twice is a no-op.
func (r *Registry) Subscribe(conversationID string, ep Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[conversationID]
	if room == nil {
		room = make(map[string]Endpoint)
		r.rooms[conversationID] = room
	}
	room[ep.ID()] = ep

	joined := r.memberships[ep.ID()]
	if joined == nil {
		joined = make(map[string]struct{})
		r.memberships[ep.ID()] = joined
	}
	joined[conversationID] = struct{}{}

	r.logger.Debug("subscribed", "conversation_id", conversationID, "endpoint_id", ep.ID(), "room_size", len(room))
}

// Unsubscribe removes ep from the conversation's room; no-op when absent.
func (r *Registry) Unsubscribe(conversationID string, ep Endpoint) {
	r.mu.Lock()
	r.leaveLocked(conversationID, ep.ID())
	r.mu.Unlock()
}

// Remove drops every membership of ep. Called when the connection terminates.
func (r *Registry) Remove(ep Endpoint) {
	r.mu.Lock()
	n := r.removeLocked(ep.ID())
	r.mu.Unlock()

	if n > 0 {
		r.logger.Debug("endpoint removed", "endpoint_id", ep.ID(), "rooms", n)
	}
}

// Broadcast hands payload to every endpoint currently in the conversation's
// room and returns how many accepted it. Endpoints that fail are pruned from
// all rooms; zero reached is not an error.
func (r *Registry) Broadcast(conversationID string, payload []byte) int {
	r.mu.RLock()
	room := r.rooms[conversationID]
	targets := make([]Endpoint, 0, len(room))
	for _, ep := range room {
		targets = append(targets, ep)
	}
	r.mu.RUnlock()

	reached := 0
	var dead []Endpoint
	for _, ep := range targets {
		if err := ep.Send(payload); err != nil {
			dead = append(dead, ep)
			continue
		}
		reached++
	}

	if len(dead) > 0 {
		r.mu.Lock()
		for _, ep := range dead {
			r.removeLocked(ep.ID())
		}
		r.mu.Unlock()
		r.logger.Debug("pruned dead endpoints", "conversation_id", conversationID, "count", len(dead))
	}
	return reached
}

// RoomSize returns the number of endpoints subscribed to the conversation.
func (r *Registry) RoomSize(conversationID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[conversationID])
}

// Close drops all rooms and closes every endpoint.
func (r *Registry) Close() {
	r.mu.Lock()
	endpoints := make(map[string]Endpoint)
	for _, room := range r.rooms {
		for id, ep := range room {
			endpoints[id] = ep
		}
	}
	r.rooms = make(map[string]map[string]Endpoint)
	r.memberships = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, ep := range endpoints {
		ep.Close(1001, "server shutdown")
	}
	r.logger.Debug("registry closed", "endpoints", len(endpoints))
}

func (r *Registry) removeLocked(endpointID string) int {
	joined := r.memberships[endpointID]
	n := len(joined)
	for conversationID := range joined {
		r.leaveLocked(conversationID, endpointID)
	}
	delete(r.memberships, endpointID)
	return n
}

func (r *Registry) leaveLocked(conversationID, endpointID string) {
	room := r.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, endpointID)
	if len(room) == 0 {
		delete(r.rooms, conversationID)
	}
	if joined, ok := r.memberships[endpointID]; ok {
		delete(joined, conversationID)
		if len(joined) == 0 {
			delete(r.memberships, endpointID)
		}
	}
}

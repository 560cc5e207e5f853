package runtime

import (
	"chispa/contract"
	"sync"
)

type set map[string]struct{}

// Registry is the live-subscription directory: it resolves a conversation to
// the sinks of its currently connected participants. A participant's sink is
// stored once even when they watch several conversations.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink // participant -> sink
	members  map[string]set                // conversation -> participants
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
		members:  make(map[string]set),
	}
}

// GetSinksForConversation resolves participant ids to their active sinks.
// Returns nil when the conversation has no connected subscriber.
func (r *Registry) GetSinksForConversation(conversationID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	participants, ok := r.members[conversationID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for participantID := range participants {
		if sink, exists := r.sessions[participantID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// Subscribe registers a participant's connection and attaches it to a
// conversation, initializing the membership set on the fly.
func (r *Registry) Subscribe(participantID, conversationID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[participantID] = sink
	if _, ok := r.members[conversationID]; !ok {
		r.members[conversationID] = make(set)
	}
	r.members[conversationID][participantID] = struct{}{}
}

// Unsubscribe drops the participant's session and cleans up empty membership
// sets so the registry does not leak conversations over time.
func (r *Registry) Unsubscribe(participantID, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, participantID)
	if participants, ok := r.members[conversationID]; ok {
		delete(participants, participantID)
		if len(participants) == 0 {
			delete(r.members, conversationID)
		}
	}
}

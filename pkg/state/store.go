package state

import (
	"log"
	"sync"
)

// Store maps conversation ids to their sessions. Each session is owned by exactly one
// conversation; the store lock only guards the map itself.
type Store struct {
	sessions   map[int64]*Session
	fsmCreator FSMCreator
	mu         sync.Mutex
}

func NewStore(f FSMCreator) *Store {
	return &Store{
		sessions:   make(map[int64]*Session),
		fsmCreator: f,
	}
}

func (s *Store) GetOrCreateSession(conversationID int64, userName string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[conversationID]
	if exists {
		if userName != "" && session.UserName != userName {
			log.Printf("Updating username for conversation %d: '%s' -> '%s'", conversationID, session.UserName, userName)
			session.UserName = userName
		}
		return session
	}

	log.Printf("Creating new session for conversation %d ('%s')", conversationID, userName)

	session = &Session{
		ConversationID: conversationID,
		UserName:       userName,
	}
	if s.fsmCreator != nil {
		session.Screen = s.fsmCreator.NewScreenFSM()
	}
	if session.Screen == nil {
		log.Printf("CRITICAL: Failed to initialize screen FSM for conversation %d", conversationID)
	}

	s.sessions[conversationID] = session
	return session
}

// Lookup returns the session without creating one.
func (s *Store) Lookup(conversationID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[conversationID]
	return session, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

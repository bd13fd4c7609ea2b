package bot

import (
	"sync"

	"day-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDate
	stageTime
	stageCategory
	stageDescription
	stageReminder
)

type conversationState struct {
	stage     conversationStage
	editingID string
	input     service.TaskInput
}

type confirmationAction int

const (
	actionDelete confirmationAction = iota
	actionSaveAnyway
)

type confirmationRequest struct {
	action    confirmationAction
	taskID    string
	editingID string
	input     service.TaskInput
}

// chatSession is the per-chat browsing state: the day on screen, the
// active filter and any pending dialog.
type chatSession struct {
	date         string
	filter       string
	conversation *conversationState
	confirmation *confirmationRequest
	seen         bool
}

// sessions keeps chat sessions keyed by Telegram user id.
type sessions struct {
	mu    sync.Mutex
	today func() string
	byID  map[int64]*chatSession
}

func newSessions(today func() string) *sessions {
	return &sessions{today: today, byID: make(map[int64]*chatSession)}
}

// get must be called with mu held.
func (s *sessions) get(userID int64) *chatSession {
	sess, ok := s.byID[userID]
	if !ok {
		sess = &chatSession{date: s.today(), filter: service.FilterAll}
		s.byID[userID] = sess
	}
	return sess
}

// cursor returns the browsed day and filter of userID.
func (s *sessions) cursor(userID int64) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(userID)
	return sess.date, sess.filter
}

// markSeen reports whether this is the first call for userID.
func (s *sessions) markSeen(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(userID)
	first := !sess.seen
	sess.seen = true
	return first
}

func (s *sessions) setDate(userID int64, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).date = date
}

func (s *sessions) setFilter(userID int64, filter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).filter = filter
}

// resetDates moves every chat back to today and returns how many were reset.
func (s *sessions) resetDates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.today()
	n := 0
	for _, sess := range s.byID {
		if sess.date != today {
			sess.date = today
			n++
		}
	}
	return n
}

func (s *sessions) conversation(userID int64) *conversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(userID).conversation
}

func (s *sessions) setConversation(userID int64, state *conversationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).conversation = state
}

func (s *sessions) confirmation(userID int64) (confirmationRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.get(userID).confirmation
	if req == nil {
		return confirmationRequest{}, false
	}
	return *req, true
}

func (s *sessions) setConfirmation(userID int64, req *confirmationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).confirmation = req
}

// clearDialogs drops any pending conversation and confirmation.
func (s *sessions) clearDialogs(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(userID)
	sess.conversation = nil
	sess.confirmation = nil
}

package internal

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Synchronizer owns the authoritative in-memory thread list and the
// currently selected thread's message log. It reconciles three independent
// sources: REST snapshots of the thread list, REST fetches of one thread's
// log on selection, and unsolicited push-channel deltas. Per-thread
// summaries are monotonic by updated_at, messages are deduplicated by id,
// and a failed fetch leaves prior state intact.
type Synchronizer struct {
	api   *APIClient
	store *StateStore

	mu        sync.Mutex
	threads   map[int64]*ThreadSummary
	selected  int64
	selectGen int
	messages  []Message
	msgSeen   map[int64]bool

	now func() time.Time
}

// NewSynchronizer creates a synchronizer over the REST API and local store
func NewSynchronizer(api *APIClient, store *StateStore) *Synchronizer {
	return &Synchronizer{
		api:     api,
		store:   store,
		threads: make(map[int64]*ThreadSummary),
		msgSeen: make(map[int64]bool),
		now:     time.Now,
	}
}

// RefreshThreads fetches the thread-list snapshot and merges it in. Known
// threads only move forward in time; threads are never deleted locally.
func (s *Synchronizer) RefreshThreads(ctx context.Context) error {
	snapshot, err := s.api.FetchThreads(ctx)
	if err != nil {
		LogWarn("Thread list refresh failed, keeping prior state: %v", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range snapshot {
		incoming := snapshot[i]
		known, ok := s.threads[incoming.ID]
		if ok && incoming.UpdatedAtMillis <= known.UpdatedAtMillis {
			// Participants may still be fresher than what a bare delta left us.
			if len(known.Participants) == 0 {
				known.Participants = incoming.Participants
			}
			continue
		}
		copied := incoming
		s.threads[incoming.ID] = &copied
	}
	return nil
}

// Threads returns the known thread summaries, most recently updated first
func (s *Synchronizer) Threads() []ThreadSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ThreadSummary, 0, len(s.threads))
	for _, t := range s.threads {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAtMillis > out[j].UpdatedAtMillis
	})
	return out
}

// SelectedThread returns the currently selected thread id, 0 when none
func (s *Synchronizer) SelectedThread() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Messages returns a copy of the selected thread's message log in display
// order
func (s *Synchronizer) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// IsUnread reports whether a thread has activity newer than its persisted
// watermark
func (s *Synchronizer) IsUnread(threadID int64) bool {
	s.mu.Lock()
	summary, ok := s.threads[threadID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return s.store.IsUnread(threadID, summary.UpdatedAtMillis)
}

// UnreadCount returns how many known threads are unread
func (s *Synchronizer) UnreadCount() int {
	count := 0
	for _, t := range s.Threads() {
		if s.store.IsUnread(t.ID, t.UpdatedAtMillis) {
			count++
		}
	}
	return count
}

// Select makes threadID the displayed thread and fetches its full log,
// replacing the in-memory log so selection always reflects server truth.
// The fetch is generation-tagged: if selection moved on before it resolved,
// its result is discarded rather than applied to the newer selection.
func (s *Synchronizer) Select(ctx context.Context, threadID int64) error {
	s.mu.Lock()
	s.selected = threadID
	s.selectGen++
	gen := s.selectGen
	s.messages = nil
	s.msgSeen = make(map[int64]bool)
	s.mu.Unlock()

	messages, err := s.api.FetchThreadMessages(ctx, threadID)
	if err != nil {
		LogWarn("Message log fetch for thread %d failed: %v", threadID, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != threadID || s.selectGen != gen {
		LogDebug("Discarding stale message fetch for thread %d", threadID)
		return nil
	}
	s.messages = messages
	s.msgSeen = make(map[int64]bool, len(messages))
	for _, m := range messages {
		s.msgSeen[m.ID] = true
	}

	seenAt := s.now().UnixMilli()
	if summary, ok := s.threads[threadID]; ok && summary.UpdatedAtMillis > 0 {
		seenAt = summary.UpdatedAtMillis
	}
	s.store.MarkThreadSeen(threadID, seenAt)
	return nil
}

// Deselect clears the displayed thread
func (s *Synchronizer) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = 0
	s.selectGen++
	s.messages = nil
	s.msgSeen = make(map[int64]bool)
}

// ApplyDelta merges one push-channel delta:
//  1. the summary is updated only when the delta is newer than the local
//     value (duplicate and late deliveries are no-ops);
//  2. a delta for the selected thread carrying its message is appended
//     unless that message id is already present, then the thread is marked
//     seen at the delta's timestamp;
//  3. a delta for the selected thread without a message triggers a full
//     REST refetch of the log rather than guessing content;
//  4. deltas for non-selected threads leave the thread unread without
//     fetching its messages.
func (s *Synchronizer) ApplyDelta(ctx context.Context, delta *ThreadDelta) error {
	s.mu.Lock()

	summary, known := s.threads[delta.ThreadID]
	if !known || delta.UpdatedAtMillis > summary.UpdatedAtMillis {
		preview := ""
		if delta.Message != nil {
			preview = delta.Message.Body
		}
		if known {
			summary.UpdatedAt = delta.UpdatedAt
			summary.UpdatedAtMillis = delta.UpdatedAtMillis
			if preview != "" {
				summary.LastMessage = preview
			}
		} else {
			s.threads[delta.ThreadID] = &ThreadSummary{
				ID:              delta.ThreadID,
				LastMessage:     preview,
				UpdatedAt:       delta.UpdatedAt,
				UpdatedAtMillis: delta.UpdatedAtMillis,
			}
		}
	}

	if s.selected != delta.ThreadID {
		// Not displayed: the advanced updated_at alone flips the unread flag.
		s.mu.Unlock()
		return nil
	}

	if delta.Message != nil {
		if !s.msgSeen[delta.Message.ID] {
			s.msgSeen[delta.Message.ID] = true
			s.messages = append(s.messages, *delta.Message)
		}
		s.store.MarkThreadSeen(delta.ThreadID, delta.UpdatedAtMillis)
		s.mu.Unlock()
		return nil
	}

	s.mu.Unlock()
	// Delta signals "new activity, fetch it yourself".
	return s.refetchSelected(ctx, delta.ThreadID)
}

// refetchSelected reloads the selected thread's log, discarding the result
// if selection moved on while the fetch was in flight
func (s *Synchronizer) refetchSelected(ctx context.Context, threadID int64) error {
	s.mu.Lock()
	gen := s.selectGen
	s.mu.Unlock()

	messages, err := s.api.FetchThreadMessages(ctx, threadID)
	if err != nil {
		LogWarn("Delta-triggered refetch for thread %d failed: %v", threadID, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != threadID || s.selectGen != gen {
		return nil
	}
	s.messages = messages
	s.msgSeen = make(map[int64]bool, len(messages))
	for _, m := range messages {
		s.msgSeen[m.ID] = true
	}
	if summary, ok := s.threads[threadID]; ok {
		s.store.MarkThreadSeen(threadID, summary.UpdatedAtMillis)
	}
	return nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"playtesting-bot/internal/domain"
)

// PlaytestStore keeps results, registered questions and packets in memory.
// It implements app.ResultRepository, app.QuestionRepository and app.PacketRepository.
type PlaytestStore struct {
	mu sync.RWMutex

	buzzes     []domain.BuzzResult
	bonusParts []domain.BonusPartResult

	tossups map[string]domain.TossupRecord
	bonuses map[string]domain.BonusRecord
	threads map[string]domain.ResultsThread

	currentPacket   map[string]string
	packetQuestions []domain.PacketQuestion
}

func NewPlaytestStore() *PlaytestStore {
	return &PlaytestStore{
		tossups:       make(map[string]domain.TossupRecord),
		bonuses:       make(map[string]domain.BonusRecord),
		threads:       make(map[string]domain.ResultsThread),
		currentPacket: make(map[string]string),
	}
}

func (s *PlaytestStore) InsertBuzz(_ context.Context, result domain.BuzzResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buzzes = append(s.buzzes, result)
	return nil
}

func (s *PlaytestStore) InsertBonusParts(_ context.Context, results []domain.BonusPartResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bonusParts = append(s.bonusParts, results...)
	return nil
}

func (s *PlaytestStore) TossupBuzzes(_ context.Context, questionID string) ([]domain.Buzz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Buzz, 0)
	for _, b := range s.buzzes {
		if b.QuestionID != questionID {
			continue
		}
		out = append(out, domain.Buzz{ClueIndex: b.ClueIndex, Value: b.Value, CharactersRevealed: b.CharactersRevealed})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClueIndex < out[j].ClueIndex })
	return out, nil
}

func (s *PlaytestStore) BonusOutcomes(_ context.Context, questionID string) ([]domain.BonusOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	difficulties := make(map[int]string)
	for _, p := range s.bonuses[questionID].Parts {
		difficulties[p.Part] = p.Difficulty
	}

	out := make([]domain.BonusOutcome, 0)
	for _, r := range s.bonusParts {
		if r.QuestionID != questionID {
			continue
		}
		out = append(out, domain.BonusOutcome{UserID: r.UserID, Part: r.Part, Value: r.Value, Difficulty: difficulties[r.Part]})
	}
	return out, nil
}

func (s *PlaytestStore) ServerResults(_ context.Context, serverID string) (domain.ResultExport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var export domain.ResultExport
	for _, b := range s.buzzes {
		if b.ServerID == serverID {
			export.Buzzes = append(export.Buzzes, b)
		}
	}
	for _, p := range s.bonusParts {
		if p.ServerID == serverID {
			export.BonusParts = append(export.BonusParts, p)
		}
	}
	return export, nil
}

func (s *PlaytestStore) RegisterTossup(_ context.Context, record domain.TossupRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tossups[record.QuestionID]; !ok {
		s.tossups[record.QuestionID] = record
	}
	return nil
}

func (s *PlaytestStore) RegisterBonus(_ context.Context, record domain.BonusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bonuses[record.QuestionID]; !ok {
		s.bonuses[record.QuestionID] = record
	}
	return nil
}

// Tossup returns a registered tossup.
func (s *PlaytestStore) Tossup(questionID string) (domain.TossupRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.tossups[questionID]
	return r, ok
}

// Bonus returns a registered bonus.
func (s *PlaytestStore) Bonus(questionID string) (domain.BonusRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.bonuses[questionID]
	return r, ok
}

func (s *PlaytestStore) ResultsThread(_ context.Context, kind domain.QuestionKind, questionID string) (domain.ResultsThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threads[threadKey(kind, questionID)], nil
}

func (s *PlaytestStore) SaveResultsThread(_ context.Context, kind domain.QuestionKind, questionID string, thread domain.ResultsThread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[threadKey(kind, questionID)] = thread
	return nil
}

func (s *PlaytestStore) CurrentPacket(_ context.Context, serverID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPacket[serverID], nil
}

func (s *PlaytestStore) SetCurrentPacket(_ context.Context, serverID, packet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if packet == "" {
		delete(s.currentPacket, serverID)
		return nil
	}
	s.currentPacket[serverID] = packet
	return nil
}

func (s *PlaytestStore) AddPacketQuestion(_ context.Context, q domain.PacketQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.packetQuestions {
		if existing.ServerID == q.ServerID && existing.PacketName == q.PacketName && existing.QuestionID == q.QuestionID {
			s.packetQuestions[i] = q
			return nil
		}
	}
	s.packetQuestions = append(s.packetQuestions, q)
	return nil
}

func (s *PlaytestStore) PacketQuestions(_ context.Context, serverID, packet string) ([]domain.PacketQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PacketQuestion, 0)
	for _, q := range s.packetQuestions {
		if q.ServerID == serverID && q.PacketName == packet {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *PlaytestStore) Packets(_ context.Context, serverID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, q := range s.packetQuestions {
		if q.ServerID != serverID {
			continue
		}
		if _, ok := seen[q.PacketName]; ok {
			continue
		}
		seen[q.PacketName] = struct{}{}
		out = append(out, q.PacketName)
	}
	return out, nil
}

func threadKey(kind domain.QuestionKind, questionID string) string {
	return kind.Code() + ":" + questionID
}

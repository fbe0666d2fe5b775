package store

import (
	"context"
	"strings"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

func indexOf[T any](items []T, match func(T) bool) int {
	for i, item := range items {
		if match(item) {
			return i
		}
	}
	return -1
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Users

func (s *Store) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, 0, len(s.data.Users))
	for _, u := range s.data.Users {
		out = append(out, u.Clone())
	}
	return out
}

func (s *Store) UserByID(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.Users, func(u models.User) bool { return u.ID == id })
	if i < 0 {
		return models.User{}, false
	}
	return s.data.Users[i].Clone(), true
}

func (s *Store) UserByEmail(email string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.TrimSpace(email)
	i := indexOf(s.data.Users, func(u models.User) bool { return strings.EqualFold(u.Email, email) })
	if i < 0 {
		return models.User{}, false
	}
	return s.data.Users[i].Clone(), true
}

func (s *Store) AddUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Users = append(s.data.Users, user.Clone())
	return s.saveLocked(ctx)
}

func (s *Store) UpdateUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.Users, func(u models.User) bool { return u.ID == user.ID })
	if i < 0 {
		return nil
	}
	s.data.Users[i] = user.Clone()
	return s.saveLocked(ctx)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Users = filter(s.data.Users, func(u models.User) bool { return u.ID != id })
	return s.saveLocked(ctx)
}

// Cases

func (s *Store) Cases() []models.PatientCase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PatientCase{}, s.data.Cases...)
}

func (s *Store) CaseByID(id string) (models.PatientCase, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.Cases, func(c models.PatientCase) bool { return c.ID == id })
	if i < 0 {
		return models.PatientCase{}, false
	}
	return s.data.Cases[i], true
}

func (s *Store) CasesForDoctor(doctorID string) []models.PatientCase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.data.Cases, func(c models.PatientCase) bool { return c.DoctorID == doctorID })
}

func (s *Store) AddCase(ctx context.Context, c models.PatientCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Cases = append(s.data.Cases, c)
	return s.saveLocked(ctx)
}

func (s *Store) UpdateCase(ctx context.Context, c models.PatientCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.Cases, func(existing models.PatientCase) bool { return existing.ID == c.ID })
	if i < 0 {
		return nil
	}
	s.data.Cases[i] = c
	return s.saveLocked(ctx)
}

// DeleteCase removes the case together with its documents and chat messages.
func (s *Store) DeleteCase(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Cases = filter(s.data.Cases, func(c models.PatientCase) bool { return c.ID != id })
	s.data.Documents = filter(s.data.Documents, func(d models.Document) bool { return d.CaseID != id })
	s.data.ChatMessages = filter(s.data.ChatMessages, func(m models.ChatMessage) bool { return m.CaseID != id })
	return s.saveLocked(ctx)
}

// recountDocuments keeps documentsCount of a case equal to its document count.
func (s *Store) recountDocuments(caseID string) {
	i := indexOf(s.data.Cases, func(c models.PatientCase) bool { return c.ID == caseID })
	if i < 0 {
		return
	}
	count := 0
	for _, d := range s.data.Documents {
		if d.CaseID == caseID {
			count++
		}
	}
	if s.data.Cases[i].DocumentsCount != count {
		s.data.Cases[i].DocumentsCount = count
		s.data.Cases[i].LastUpdated = s.now().UTC()
	}
}

// Documents

func (s *Store) Documents() []models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Document{}, s.data.Documents...)
}

func (s *Store) DocumentByID(id string) (models.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.Documents, func(d models.Document) bool { return d.ID == id })
	if i < 0 {
		return models.Document{}, false
	}
	return s.data.Documents[i], true
}

func (s *Store) DocumentsByCase(caseID string) []models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.data.Documents, func(d models.Document) bool { return d.CaseID == caseID })
}

func (s *Store) AddDocument(ctx context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Documents = append(s.data.Documents, doc)
	s.recountDocuments(doc.CaseID)
	return s.saveLocked(ctx)
}

func (s *Store) UpdateDocument(ctx context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.Documents, func(d models.Document) bool { return d.ID == doc.ID })
	if i < 0 {
		return nil
	}
	previous := s.data.Documents[i].CaseID
	s.data.Documents[i] = doc
	s.recountDocuments(previous)
	s.recountDocuments(doc.CaseID)
	return s.saveLocked(ctx)
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.Documents, func(d models.Document) bool { return d.ID == id })
	if i < 0 {
		return nil
	}
	caseID := s.data.Documents[i].CaseID
	s.data.Documents = append(s.data.Documents[:i:i], s.data.Documents[i+1:]...)
	s.recountDocuments(caseID)
	return s.saveLocked(ctx)
}

// Chat messages

func (s *Store) ChatMessages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage{}, s.data.ChatMessages...)
}

func (s *Store) ChatMessageByID(id string) (models.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.ChatMessages, func(m models.ChatMessage) bool { return m.ID == id })
	if i < 0 {
		return models.ChatMessage{}, false
	}
	return s.data.ChatMessages[i], true
}

func (s *Store) ChatMessagesByCase(caseID string) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.data.ChatMessages, func(m models.ChatMessage) bool { return m.CaseID == caseID })
}

func (s *Store) AddChatMessage(ctx context.Context, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.ChatMessages = append(s.data.ChatMessages, msg)
	return s.saveLocked(ctx)
}

func (s *Store) UpdateChatMessage(ctx context.Context, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.ChatMessages, func(m models.ChatMessage) bool { return m.ID == msg.ID })
	if i < 0 {
		return nil
	}
	s.data.ChatMessages[i] = msg
	return s.saveLocked(ctx)
}

func (s *Store) DeleteChatMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.ChatMessages = filter(s.data.ChatMessages, func(m models.ChatMessage) bool { return m.ID != id })
	return s.saveLocked(ctx)
}

// Activity logs are append-only.

func (s *Store) ActivityLogs() []models.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ActivityLog{}, s.data.ActivityLogs...)
}

func (s *Store) AddActivityLog(ctx context.Context, entry models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.ActivityLogs = append(s.data.ActivityLogs, entry)
	return s.saveLocked(ctx)
}

// AI rules

func (s *Store) AIRules() []models.AIRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AIRule{}, s.data.AIRules...)
}

func (s *Store) AIRuleByID(id string) (models.AIRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.AIRules, func(r models.AIRule) bool { return r.ID == id })
	if i < 0 {
		return models.AIRule{}, false
	}
	return s.data.AIRules[i], true
}

func (s *Store) AddAIRule(ctx context.Context, rule models.AIRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.AIRules = append(s.data.AIRules, rule)
	return s.saveLocked(ctx)
}

func (s *Store) UpdateAIRule(ctx context.Context, rule models.AIRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.data.AIRules, func(r models.AIRule) bool { return r.ID == rule.ID })
	if i < 0 {
		return nil
	}
	s.data.AIRules[i] = rule
	return s.saveLocked(ctx)
}

func (s *Store) DeleteAIRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.AIRules = filter(s.data.AIRules, func(r models.AIRule) bool { return r.ID != id })
	return s.saveLocked(ctx)
}

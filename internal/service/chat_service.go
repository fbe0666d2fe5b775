package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/ids"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

type ChatService struct {
	base
	audit *AuditService
}

type MessageInput struct {
	CaseID        string
	Message       string
	RecipientRole models.UserRole
}

func (s *ChatService) Send(ctx context.Context, sess *Session, input MessageInput) (models.ChatMessage, error) {
	if !sess.Active() {
		return models.ChatMessage{}, ErrNoSession
	}
	input.Message = strings.TrimSpace(input.Message)
	if input.Message == "" {
		return models.ChatMessage{}, fmt.Errorf("%w: empty message", ErrInvalidInput)
	}
	if input.RecipientRole != "" && !input.RecipientRole.Valid() {
		return models.ChatMessage{}, fmt.Errorf("%w: unknown recipient role %q", ErrInvalidInput, input.RecipientRole)
	}
	c, ok := s.store.CaseByID(input.CaseID)
	if !ok {
		return models.ChatMessage{}, ErrCaseNotFound
	}

	msg := models.ChatMessage{
		ID:            ids.New(),
		CaseID:        c.ID,
		SenderID:      sess.User.ID,
		SenderName:    sess.User.Name,
		SenderRole:    sess.User.Role,
		Message:       input.Message,
		Timestamp:     s.stamp(),
		RecipientRole: input.RecipientRole,
	}

	s.persisted(s.store.AddChatMessage(ctx, msg), "chat message not persisted")

	target := "all roles"
	if !msg.Broadcast() {
		target = string(msg.RecipientRole)
	}
	s.audit.Record(ctx, sess, AuditEntry{
		Action:   models.ActionSendMessage,
		CaseID:   c.ID,
		CaseName: c.PatientName,
		Details:  fmt.Sprintf("Sent message to %s", target),
	})
	return msg, nil
}

// Visible reports whether a viewer with the given role sees the message. An
// empty role disables filtering.
func Visible(msg models.ChatMessage, role models.UserRole) bool {
	return role == "" ||
		msg.SenderRole == role ||
		msg.RecipientRole == role ||
		msg.Broadcast()
}

// Messages returns the messages of a case visible to viewerRole, oldest first.
func (s *ChatService) Messages(caseID string, viewerRole models.UserRole) []models.ChatMessage {
	out := make([]models.ChatMessage, 0)
	for _, m := range s.store.ChatMessagesByCase(caseID) {
		if Visible(m, viewerRole) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func unreadFor(msg models.ChatMessage, user models.User) bool {
	return !msg.IsRead &&
		msg.SenderID != user.ID &&
		(msg.RecipientRole == user.Role || msg.Broadcast())
}

// UnreadCount counts unread messages on one case addressed to the user's
// role, or broadcast, that the user did not send.
func (s *ChatService) UnreadCount(user models.User, caseID string) int {
	n := 0
	for _, m := range s.store.ChatMessagesByCase(caseID) {
		if unreadFor(m, user) {
			n++
		}
	}
	return n
}

// UnreadAcross sums UnreadCount over the given cases, normally the ones the
// user may see.
func (s *ChatService) UnreadAcross(user models.User, cases []models.PatientCase) int {
	visible := make(map[string]struct{}, len(cases))
	for _, c := range cases {
		visible[c.ID] = struct{}{}
	}
	n := 0
	for _, m := range s.store.ChatMessages() {
		if _, ok := visible[m.CaseID]; ok && unreadFor(m, user) {
			n++
		}
	}
	return n
}

// MarkRead flags a message as read. Marking an already read message is a no-op.
func (s *ChatService) MarkRead(ctx context.Context, id string) (models.ChatMessage, error) {
	msg, ok := s.store.ChatMessageByID(id)
	if !ok {
		return models.ChatMessage{}, ErrMessageNotFound
	}
	if msg.IsRead {
		return msg, nil
	}
	msg.IsRead = true
	s.persisted(s.store.UpdateChatMessage(ctx, msg), "read flag not persisted")
	return msg, nil
}

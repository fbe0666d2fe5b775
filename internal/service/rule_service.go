package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/ids"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

// RuleService manages the instructions sent along with AI analysis requests.
// Rule changes are not audited.
type RuleService struct {
	base
}

func (s *RuleService) List() []models.AIRule {
	return s.store.AIRules()
}

// Active returns the enabled rules in insertion order.
func (s *RuleService) Active() []models.AIRule {
	out := make([]models.AIRule, 0)
	for _, r := range s.store.AIRules() {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out
}

func (s *RuleService) Get(id string) (models.AIRule, error) {
	r, ok := s.store.AIRuleByID(id)
	if !ok {
		return models.AIRule{}, ErrRuleNotFound
	}
	return r, nil
}

type RuleInput struct {
	Name        string
	Description string
	Category    string
	Rule        string
	IsActive    bool
}

func (in RuleInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Rule) == "" {
		return fmt.Errorf("%w: name and rule required", ErrInvalidInput)
	}
	return nil
}

func (s *RuleService) Create(ctx context.Context, sess *Session, input RuleInput) (models.AIRule, error) {
	if !sess.Active() {
		return models.AIRule{}, ErrNoSession
	}
	if err := input.validate(); err != nil {
		return models.AIRule{}, err
	}
	now := s.stamp()
	r := models.AIRule{
		ID:          ids.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    input.Category,
		Rule:        input.Rule,
		IsActive:    input.IsActive,
		CreatedBy:   sess.User.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.persisted(s.store.AddAIRule(ctx, r), "ai rule not persisted")
	return r, nil
}

func (s *RuleService) Update(ctx context.Context, sess *Session, id string, input RuleInput) (models.AIRule, error) {
	if !sess.Active() {
		return models.AIRule{}, ErrNoSession
	}
	if err := input.validate(); err != nil {
		return models.AIRule{}, err
	}
	r, ok := s.store.AIRuleByID(id)
	if !ok {
		return models.AIRule{}, ErrRuleNotFound
	}
	r.Name = strings.TrimSpace(input.Name)
	r.Description = input.Description
	r.Category = input.Category
	r.Rule = input.Rule
	r.IsActive = input.IsActive
	r.UpdatedAt = s.stamp()

	s.persisted(s.store.UpdateAIRule(ctx, r), "ai rule update not persisted")
	return r, nil
}

func (s *RuleService) Delete(ctx context.Context, sess *Session, id string) error {
	if !sess.Active() {
		return ErrNoSession
	}
	if _, ok := s.store.AIRuleByID(id); !ok {
		return ErrRuleNotFound
	}
	s.persisted(s.store.DeleteAIRule(ctx, id), "ai rule delete not persisted")
	return nil
}

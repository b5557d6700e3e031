package scoring

import (
	"github.com/mcoot/realmledger/internal/model"
)

// BlockScore is the score contribution of a single placed block
const BlockScore = 1

// Action is a hot-path session action together with its opaque inputs.
// Only Damage and Reward influence score.
type Action struct {
	Kind    model.ActionKind
	Subject string // block, target or entity type
	Damage  uint8  // attack only
	Reward  uint64 // kill_entity only
}

// Service computes per-action score contributions
type Service struct{}

// New creates a new scoring Service
func New() *Service {
	return &Service{}
}

// Contribution returns the score delta for a single action
func (s *Service) Contribution(action Action) (uint64, error) {
	switch action.Kind {
	case model.ActionPlaceBlock:
		return BlockScore, nil
	case model.ActionAttack:
		// Half the damage, truncated
		return uint64(action.Damage / 2), nil
	case model.ActionKillEntity:
		return action.Reward, nil
	default:
		return 0, model.ErrInvalidAction
	}
}

// Apply records the action on the session with its contribution. The
// session is left unchanged on error.
func (s *Service) Apply(session *model.GameSession, action Action) (uint64, error) {
	score, err := s.Contribution(action)
	if err != nil {
		return 0, err
	}
	if err := session.Record(action.Kind, score); err != nil {
		return 0, err
	}
	return score, nil
}

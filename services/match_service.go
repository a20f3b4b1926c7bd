package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"erp-matcher/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Matches scoring below this composite are never suggested
const minSuggestScore = 35

// MatchNotifier receives lifecycle transition events (and drives badges,
// unread counts and SSE on the other side)
type MatchNotifier interface {
	MatchTransition(evt models.MatchEvent, match *models.Match)
}

// MatchService owns the match state machine
type MatchService struct {
	DB       *gorm.DB
	Scoring  *ScoringService
	Notifier MatchNotifier // optional
}

func NewMatchService(db *gorm.DB, scoring *ScoringService) *MatchService {
	return &MatchService{DB: db, Scoring: scoring}
}

// GenerateMatchesForBrief scores every vetted partner against the brief and
// inserts new matches in `suggested`. Pairs that already have a match are
// skipped, so regeneration is safe.
func (s *MatchService) GenerateMatchesForBrief(briefID string) ([]models.Match, error) {
	var brief models.Brief
	if err := s.DB.First(&brief, "id = ?", briefID).Error; err != nil {
		return nil, fmt.Errorf("brief %s not found: %w", briefID, err)
	}

	var partners []models.Partner
	if err := s.DB.Where("vetted = ?", true).Find(&partners).Error; err != nil {
		return nil, err
	}

	existing := make(map[string]bool)
	var existingMatches []models.Match
	if err := s.DB.Where("brief_id = ?", briefID).Find(&existingMatches).Error; err != nil {
		return nil, err
	}
	for _, m := range existingMatches {
		existing[m.PartnerID] = true
	}

	var created []models.Match
	for i := range partners {
		partner := &partners[i]
		if existing[partner.ID] {
			continue
		}

		result := s.Scoring.Score(&brief, partner)
		if result.Score < minSuggestScore {
			continue
		}

		breakdownJSON, _ := json.Marshal(result.Breakdown)
		match := models.Match{
			ID:             uuid.NewString(),
			BriefID:        brief.ID,
			ClientID:       brief.ClientID,
			PartnerID:      partner.ID,
			Score:          result.Score,
			ScoreBreakdown: string(breakdownJSON),
			Reasons:        models.EncodeStringList(result.Reasons),
			Status:         models.MatchStatusSuggested,
		}
		if err := s.DB.Create(&match).Error; err != nil {
			return nil, err
		}
		created = append(created, match)
	}

	sort.Slice(created, func(i, j int) bool { return created[i].Score > created[j].Score })
	log.Printf("🎯 [MATCH] Generated %d matches for brief %s", len(created), briefID)
	return created, nil
}

func (s *MatchService) GetMatch(matchID string) (*models.Match, error) {
	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// ListForClient returns the client's matches, best score first
func (s *MatchService) ListForClient(clientID string) ([]models.Match, error) {
	var matches []models.Match
	err := s.DB.Where("client_id = ?", clientID).
		Order("score DESC, created_at DESC").
		Find(&matches).Error
	return matches, err
}

// ListForPartner returns matches awaiting or given a partner response.
// Partners only ever see dispatched matches.
func (s *MatchService) ListForPartner(partnerID string) ([]models.Match, error) {
	var matches []models.Match
	err := s.DB.Where("partner_id = ? AND status <> ?", partnerID, models.MatchStatusSuggested).
		Order("created_at DESC").
		Find(&matches).Error
	return matches, err
}

// DispatchMatch moves suggested → sent, making the match visible to the
// partner. Guarded on the expected prior status.
func (s *MatchService) DispatchMatch(matchID, actor string) (*models.Match, error) {
	match, err := s.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusSuggested {
		return nil, fmt.Errorf("%w: cannot dispatch a %s match", ErrInvalidTransition, match.Status)
	}

	res := s.DB.Model(&models.Match{}).
		Where("id = ? AND status = ?", matchID, models.MatchStatusSuggested).
		Update("status", models.MatchStatusSent)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: match %s", ErrConcurrentModification, matchID)
	}

	s.emitTransition(match, models.MatchStatusSuggested, models.MatchStatusSent, actor)
	return s.GetMatch(matchID)
}

// PartnerRespond applies the partner's accept/reject decision.
// Precondition: status ∈ {suggested, sent}. Accepting an already-accepted
// match is an idempotent no-op that returns the current state. The bool
// reports whether a transition actually happened, so callers can gate
// side effects (gamification, notifications) on real state changes and a
// replayed accept stays side-effect free end to end.
func (s *MatchService) PartnerRespond(matchID, partnerID string, accept bool) (*models.Match, bool, error) {
	match, err := s.GetMatch(matchID)
	if err != nil {
		return nil, false, err
	}
	if match.PartnerID != partnerID {
		return nil, false, fmt.Errorf("match %s does not belong to partner %s", matchID, partnerID)
	}
	return s.respondLoaded(match, accept)
}

// respondLoaded runs the guarded transition against an already-loaded match.
// Callers holding a stale copy get ErrConcurrentModification from the
// compare-and-set, never a silent overwrite.
func (s *MatchService) respondLoaded(match *models.Match, accept bool) (*models.Match, bool, error) {
	verb := "reject"
	toStatus := models.MatchStatusRejected
	if accept {
		verb = "accept"
		toStatus = models.MatchStatusAccepted
	}

	// Idempotent re-accept: return existing state, RespondedAt untouched
	if accept && match.Status == models.MatchStatusAccepted {
		return match, false, nil
	}

	if match.Status != models.MatchStatusSuggested && match.Status != models.MatchStatusSent {
		return nil, false, fmt.Errorf("%w: cannot %s a %s match", ErrInvalidTransition, verb, match.Status)
	}

	updates := map[string]interface{}{
		"status":            toStatus,
		"partner_responded": true,
		"partner_accepted":  accept,
	}
	if match.RespondedAt == nil {
		now := time.Now()
		updates["responded_at"] = &now
	}

	res := s.DB.Model(&models.Match{}).
		Where("id = ? AND status = ?", match.ID, match.Status).
		Updates(updates)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		// Someone else moved the match between our read and this update
		return nil, false, fmt.Errorf("%w: match %s", ErrConcurrentModification, match.ID)
	}

	s.emitTransition(match, match.Status, toStatus, models.ActorPartner)
	log.Printf("🤝 [MATCH] Partner %s %sed match %s", match.PartnerID, verb, match.ID)

	updated, err := s.GetMatch(match.ID)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// ClientLike records the client's like/pass. Purely advisory: it never moves
// Status. Partner decision and client sentiment are independent signals.
func (s *MatchService) ClientLike(matchID, clientID string, liked bool) (*models.Match, error) {
	match, err := s.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.ClientID != clientID {
		return nil, fmt.Errorf("match %s does not belong to client %s", matchID, clientID)
	}

	if err := s.DB.Model(match).Update("client_liked", liked).Error; err != nil {
		return nil, err
	}
	return s.GetMatch(matchID)
}

// ClientSave toggles the client's saved flag, independent of Status
func (s *MatchService) ClientSave(matchID, clientID string, saved bool) (*models.Match, error) {
	match, err := s.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.ClientID != clientID {
		return nil, fmt.Errorf("match %s does not belong to client %s", matchID, clientID)
	}

	if err := s.DB.Model(match).Update("client_saved", saved).Error; err != nil {
		return nil, err
	}
	return s.GetMatch(matchID)
}

// CreateProject contracts an accepted match: inserts the Project and converts
// the match (accepted → converted) in one transaction
func (s *MatchService) CreateProject(matchID, clientID, name string) (*models.Project, error) {
	match, err := s.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.ClientID != clientID {
		return nil, fmt.Errorf("match %s does not belong to client %s", matchID, clientID)
	}
	if match.Status != models.MatchStatusAccepted {
		return nil, fmt.Errorf("%w: cannot convert a %s match", ErrInvalidTransition, match.Status)
	}

	if name == "" {
		name = "ERP implementation"
	}

	project := &models.Project{
		ID:        uuid.NewString(),
		MatchID:   match.ID,
		BriefID:   match.BriefID,
		ClientID:  match.ClientID,
		PartnerID: match.PartnerID,
		Name:      name,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Match{}).
			Where("id = ? AND status = ?", match.ID, models.MatchStatusAccepted).
			Update("status", models.MatchStatusConverted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: match %s", ErrConcurrentModification, match.ID)
		}
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		// Brief is off the market once a project exists
		return tx.Model(&models.Brief{}).
			Where("id = ?", match.BriefID).
			Update("status", models.BriefStatusMatched).Error
	})
	if err != nil {
		return nil, err
	}

	s.emitTransition(match, models.MatchStatusAccepted, models.MatchStatusConverted, models.ActorClient)
	log.Printf("✅ [MATCH] Match %s converted to project %s", match.ID, project.ID)
	return project, nil
}

// EventsForMatch returns the persisted transition history, oldest first
func (s *MatchService) EventsForMatch(matchID string) ([]models.MatchEvent, error) {
	var events []models.MatchEvent
	err := s.DB.Where("match_id = ?", matchID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

// emitTransition persists the lifecycle event and forwards it to the notifier.
// Event loss must never fail the transition itself, so errors are logged only.
func (s *MatchService) emitTransition(match *models.Match, from, to, actor string) {
	evt := models.MatchEvent{
		ID:         uuid.NewString(),
		MatchID:    match.ID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		CreatedAt:  time.Now(),
	}
	if err := s.DB.Create(&evt).Error; err != nil {
		log.Printf("⚠️ [MATCH] Failed to persist event %s→%s for match %s: %v", from, to, match.ID, err)
	}
	if s.Notifier != nil {
		s.Notifier.MatchTransition(evt, match)
	}
}

// IsConflict reports whether err is a state-machine or concurrency violation
// (the two error classes handlers map to 409)
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrConcurrentModification)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/pairs-game/game/catalog"
	"github.com/wricardo/pairs-game/game/engine"
)

// CustomConfigID labels sessions created from an explicit card count
const CustomConfigID = "custom"

// Option customises a GameService
type Option func(*gameServiceImpl)

// WithScheduler replaces the timer used for mismatch clears
func WithScheduler(scheduler Scheduler) Option {
	return func(s *gameServiceImpl) { s.scheduler = scheduler }
}

// WithNotifier registers the receiver of state changes and celebrations
func WithNotifier(notifier Notifier) Option {
	return func(s *gameServiceImpl) { s.notifier = notifier }
}

// WithMismatchDelay sets the server-wide delay used when a preset has none
func WithMismatchDelay(d time.Duration) Option {
	return func(s *gameServiceImpl) {
		if d > 0 {
			s.mismatchDelay = d
		}
	}
}

// gameServiceImpl implements the GameService interface. Every engine
// mutation happens under mu; notifications are sent after it is released.
type gameServiceImpl struct {
	sessions      SessionManager
	configs       ConfigManager
	scheduler     Scheduler
	notifier      Notifier
	mismatchDelay time.Duration
	mu            sync.Mutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:      sessions,
		configs:       configs,
		scheduler:     TimerScheduler{},
		notifier:      nopNotifier{},
		mismatchDelay: engine.DefaultMismatchDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveConfig picks the preset for a new-game request. fallback is used for
// an empty request; nil means the manager's default.
func (s *gameServiceImpl) resolveConfig(req NewGameRequest, fallback *engine.GameConfig, fallbackID string) (*engine.GameConfig, string, error) {
	if req.IsCustom() {
		config := &engine.GameConfig{
			Name:        fmt.Sprintf("%d cards", req.TotalCards),
			Description: "Custom board",
			TotalCards:  req.TotalCards,
			Rows:        req.Rows,
			Cols:        req.Cols,
			Seed:        req.Seed,
		}
		if err := engine.ValidateGameConfig(config); err != nil {
			return nil, "", err
		}
		return config, CustomConfigID, nil
	}

	var (
		config   *engine.GameConfig
		configID string
	)
	switch {
	case req.ConfigID != "":
		loaded, err := s.configs.LoadConfig(req.ConfigID)
		if err != nil {
			return nil, "", s.configError(req.ConfigID, err)
		}
		config, configID = loaded, req.ConfigID
	case fallback != nil:
		config, configID = fallback, fallbackID
	default:
		config = s.configs.GetDefault()
		if config == nil {
			return nil, "", errors.New("no default configuration available")
		}
		configID = s.configIDFor(config)
	}

	if req.Seed == 0 && req.Rows == 0 && req.Cols == 0 {
		return config, configID, nil
	}

	// Request-level overrides apply to a copy; cached presets stay untouched
	override := *config
	if req.Seed != 0 {
		override.Seed = req.Seed
	}
	if req.Rows != 0 || req.Cols != 0 {
		override.Rows, override.Cols = req.Rows, req.Cols
	}
	if err := engine.ValidateGameConfig(&override); err != nil {
		return nil, "", err
	}
	return &override, configID, nil
}

// configError lists the available presets alongside a failed lookup
func (s *gameServiceImpl) configError(configID string, err error) error {
	available, listErr := s.configs.ListConfigs()
	if listErr != nil || len(available) == 0 {
		return fmt.Errorf("config '%s' unavailable, use /api/configs to list configurations: %w", configID, err)
	}
	ids := make([]string, 0, len(available))
	for _, cfg := range available {
		ids = append(ids, cfg.ConfigID)
	}
	return fmt.Errorf("config '%s' unavailable, available configs: %v: %w", configID, ids, err)
}

// configIDFor returns the preset id whose display name matches config
func (s *gameServiceImpl) configIDFor(config *engine.GameConfig) string {
	available, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range available {
			if cfg.Name == config.Name {
				return cfg.ConfigID
			}
		}
	}
	return "default"
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s not found: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, req NewGameRequest) (*SessionInfo, error) {
	info, err := func() (*SessionInfo, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		config, configID, err := s.resolveConfig(req, nil, "")
		if err != nil {
			return nil, err
		}

		// Let session manager generate a proper 4-character ID
		sess, err := s.sessions.Create("", config)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		sess.ConfigID = configID
		return sessionInfo(sess), nil
	}()
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session", info.ID).
		Str("config", info.ConfigName).
		Int("cards", info.GameState.TotalCards).
		Msg("session created")
	s.notifier.StateChanged(info.ID, info.GameState)
	return info, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session. A pending mismatch clear for it becomes a
// no-op.
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s not found: %w", sessionID, err)
	}
	log.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// NewGame deals a fresh board. An empty request keeps the session's preset.
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID string, req NewGameRequest) (*engine.GameState, error) {
	id, state, err := func() (string, *engine.GameState, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		sess, err := s.getSession(sessionID)
		if err != nil {
			return "", nil, err
		}

		config, configID, err := s.resolveConfig(req, sess.Config, sess.ConfigID)
		if err != nil {
			return "", nil, err
		}

		board, err := engine.GenerateBoard(catalog.Icons(), config.PairCount(), engine.NewRNG(config.Seed))
		if err != nil {
			return "", nil, err
		}

		sess.Engine.NewGame(board, config.Layout())
		sess.Engine.SetConfigName(config.Name)
		sess.Config = config
		sess.ConfigID = configID
		return sess.ID, sess.Engine.GetState(), nil
	}()
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session", id).
		Str("game", state.GameID).
		Int("cards", state.TotalCards).
		Msg("new game")
	s.notifier.StateChanged(id, state)
	return state, nil
}

// Reset restarts the current board
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	id, state, err := func() (string, *engine.GameState, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		sess, err := s.getSession(sessionID)
		if err != nil {
			return "", nil, err
		}
		sess.Engine.Reset()
		return sess.ID, sess.Engine.GetState(), nil
	}()
	if err != nil {
		return nil, err
	}

	s.notifier.StateChanged(id, state)
	return state, nil
}

// Reveal turns a card face-up. A mismatch schedules the flip-back; matches
// and completion are announced through the notifier.
func (s *gameServiceImpl) Reveal(ctx context.Context, sessionID string, position int) (*RevealResult, error) {
	id, result, err := s.reveal(sessionID, position)
	if err != nil {
		return nil, err
	}

	if result.Outcome != engine.OutcomeIgnored {
		s.notifier.StateChanged(id, result.GameState)
	}
	for _, celebration := range result.Celebrations {
		s.notifier.Celebrate(id, celebration)
	}
	return result, nil
}

func (s *gameServiceImpl) reveal(sessionID string, position int) (string, *RevealResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return "", nil, err
	}

	res, err := sess.Engine.Reveal(position)
	if err != nil {
		return "", nil, err
	}

	state := sess.Engine.GetState()
	result := &RevealResult{
		Position:     res.Position,
		Icon:         res.Icon,
		Outcome:      res.Outcome,
		Reason:       res.Reason,
		Pair:         res.Pair,
		Celebrations: res.Celebrations,
		GameState:    state,
		Message:      state.Message,
	}

	if res.Mismatch != nil {
		delay := sess.Config.MismatchDelay(s.mismatchDelay)
		result.ClearsInMS = delay.Milliseconds()
		token, id := *res.Mismatch, sess.ID
		s.scheduler.AfterFunc(delay, func() { s.clearMismatch(id, token) })
	}

	result.Events = revealEvents(res, result.ClearsInMS)

	log.Debug().
		Str("session", sess.ID).
		Int("position", position).
		Str("outcome", string(res.Outcome)).
		Str("reason", res.Reason).
		Int("matched", state.MatchedPairs).
		Msg("reveal")

	return sess.ID, result, nil
}

// clearMismatch runs when the mismatch delay elapses. The generation token
// makes it a no-op against a newer game.
func (s *gameServiceImpl) clearMismatch(sessionID string, token engine.MismatchToken) {
	state, cleared := func() (*engine.GameState, bool) {
		s.mu.Lock()
		defer s.mu.Unlock()

		sess, err := s.sessions.Get(sessionID)
		if err != nil {
			return nil, false
		}
		if !sess.Engine.ClearMismatch(token) {
			return nil, false
		}
		return sess.Engine.GetState(), true
	}()

	if !cleared {
		log.Debug().
			Str("session", sessionID).
			Uint64("generation", token.Generation).
			Msg("stale mismatch clear ignored")
		return
	}
	s.notifier.StateChanged(sessionID, state)
}

func revealEvents(res *engine.RevealResult, clearsInMS int64) []GameEvent {
	now := time.Now()
	if res.Outcome == engine.OutcomeIgnored {
		return []GameEvent{{
			Type:      EventIgnored,
			Message:   fmt.Sprintf("Card %d ignored: %s", res.Position, res.Reason),
			Timestamp: now,
			Positions: []int{res.Position},
		}}
	}

	events := []GameEvent{{
		Type:      EventReveal,
		Message:   fmt.Sprintf("Revealed card %d: %s", res.Position, res.Icon),
		Timestamp: now,
		Positions: []int{res.Position},
	}}

	switch res.Outcome {
	case engine.OutcomeMatch:
		events = append(events, GameEvent{
			Type:      EventMatch,
			Message:   fmt.Sprintf("Cards %d and %d match", res.Pair[0], res.Pair[1]),
			Timestamp: now,
			Positions: res.Pair,
		})
		for _, c := range res.Celebrations {
			if c.Kind == engine.CelebrateComplete {
				events = append(events, GameEvent{
					Type:      EventComplete,
					Message:   fmt.Sprintf("All %d pairs found!", c.TotalPairs),
					Timestamp: now,
				})
			}
		}
	case engine.OutcomeMismatch:
		events = append(events, GameEvent{
			Type:      EventMismatch,
			Message:   fmt.Sprintf("Cards %d and %d differ, flipping back in %dms", res.Pair[0], res.Pair[1], clearsInMS),
			Timestamp: now,
			Positions: res.Pair,
		})
	}
	return events
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetRevealHistory returns paginated reveal history
func (s *gameServiceImpl) GetRevealHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	sess, err := s.getSession(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	history := sess.Engine.GetRevealHistory()
	s.mu.Unlock()

	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > engine.MaxHistoryLimit {
		opts.Limit = engine.MaxHistoryLimit
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	reveals := []engine.RevealHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				reveals = append(reveals, history[i])
			}
		} else {
			reveals = append(reveals, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Reveals:      reveals,
		TotalReveals: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig stores a game configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ListIcons returns the icon catalog with asset paths
func (s *gameServiceImpl) ListIcons(ctx context.Context) ([]catalog.Icon, error) {
	return catalog.List(), nil
}

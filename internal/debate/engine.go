package debate

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"debatebot/internal/commandutil"
	"debatebot/internal/conversation"
	"debatebot/internal/llm"
	"debatebot/internal/profile"
	"debatebot/internal/store"
)

// ErrConversationNotFound is returned when a caller supplies an id the
// store does not know.
var ErrConversationNotFound = errors.New("conversation not found")

const (
	defaultTurnBudget  = 100 * time.Second
	rewriteTokenBudget = 200
	lockShards         = 64
)

type EngineConfig struct {
	Store      store.Store
	Client     Completer
	Profiles   *profile.Catalog
	Classifier *Classifier
	Normalizer *Normalizer

	// Alignment and Redundancy are optional; nil disables the guard.
	Alignment  *AlignmentGuard
	Redundancy *RedundancyGuard

	DefaultProfileID string
	MaxHistoryPairs  int
	TurnBudget       time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// Engine runs the per-turn state machine over the conversation store.
type Engine struct {
	store      store.Store
	client     Completer
	profiles   *profile.Catalog
	classifier *Classifier
	normalizer *Normalizer
	alignment  *AlignmentGuard
	redundancy *RedundancyGuard

	defaultProfileID string
	maxHistoryPairs  int
	turnBudget       time.Duration

	log *slog.Logger
	now func() time.Time

	// Turns on the same conversation serialize through a striped lock so
	// concurrent requests cannot lose each other's writes.
	locks [lockShards]sync.Mutex
}

// TurnResult is what one completed turn reports back to the caller.
type TurnResult struct {
	ConversationID string
	Messages       []conversation.Message
	LatencyMS      int64
	Stance         string
}

// MetaInfo is the public view of conversation metadata.
type MetaInfo struct {
	ConversationID string
	ProfileID      string
	ProfileName    string
	Topic          string
	Side           string
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Client == nil {
		return nil, errors.New("generation client is required")
	}
	if cfg.Profiles == nil {
		cfg.Profiles = profile.Builtin()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = NewClassifier(cfg.Client, cfg.Logger)
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = NewNormalizer(NormalizerConfig{})
	}
	if cfg.DefaultProfileID == "" {
		cfg.DefaultProfileID = profile.DefaultProfileID
	}
	if cfg.MaxHistoryPairs <= 0 {
		cfg.MaxHistoryPairs = 3
	}
	if cfg.TurnBudget <= 0 {
		cfg.TurnBudget = defaultTurnBudget
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Engine{
		store:            cfg.Store,
		client:           cfg.Client,
		profiles:         cfg.Profiles,
		classifier:       cfg.Classifier,
		normalizer:       cfg.Normalizer,
		alignment:        cfg.Alignment,
		redundancy:       cfg.Redundancy,
		defaultProfileID: cfg.DefaultProfileID,
		maxHistoryPairs:  cfg.MaxHistoryPairs,
		turnBudget:       cfg.TurnBudget,
		log:              cfg.Logger,
		now:              cfg.Now,
	}, nil
}

// CreateWithProfile starts a conversation on the default topic with the
// given persona. Unknown ids return profile.ErrUnknownProfile.
func (e *Engine) CreateWithProfile(ctx context.Context, profileID string) (string, error) {
	p, err := e.profiles.Lookup(profileID)
	if err != nil {
		return "", err
	}

	id := conversation.NewID()
	side := BotSideFor(DefaultTopic, SideNegative)
	conv := conversation.Conversation{
		Meta: conversation.Meta{
			Topic:      DefaultTopic,
			Side:       side,
			StanceType: string(StanceTypeFrom(side)),
			ProfileID:  p.ID,
			UserSide:   string(SideNegative),
		},
	}
	if err := e.save(ctx, id, conv); err != nil {
		return "", err
	}
	return id, nil
}

// Meta returns the metadata view for an existing conversation.
func (e *Engine) Meta(ctx context.Context, id string) (MetaInfo, error) {
	conv, err := e.load(ctx, conversation.NormalizeID(id))
	if err != nil {
		return MetaInfo{}, err
	}

	name := conv.Meta.ProfileID
	if p, lookupErr := e.profiles.Lookup(conv.Meta.ProfileID); lookupErr == nil {
		name = p.Name
	}
	return MetaInfo{
		ConversationID: conversation.NormalizeID(id),
		ProfileID:      conv.Meta.ProfileID,
		ProfileName:    name,
		Topic:          conv.Meta.Topic,
		Side:           conv.Meta.Side,
	}, nil
}

// History returns the trailing limit messages (default window when limit
// is not positive).
func (e *Engine) History(ctx context.Context, id string, limit int) ([]conversation.Message, error) {
	conv, err := e.load(ctx, conversation.NormalizeID(id))
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = conversation.DefaultWindow
	}
	return conversation.Window(conv.Messages, limit), nil
}

// Ask runs one full turn: resolve or create the conversation, classify
// and lock topic/side when needed, generate, normalize, guard, persist.
func (e *Engine) Ask(ctx context.Context, rawID, rawMessage string) (TurnResult, error) {
	start := e.now()
	ctx, cancel := context.WithTimeout(ctx, e.turnBudget)
	defer cancel()

	requestedProfile, text := commandutil.ExtractProfileDirective(rawMessage)
	text = conversation.TruncateUserText(text)

	id := conversation.NormalizeID(rawID)
	created := id == ""
	if created {
		id = conversation.NewID()
	}

	unlock := e.lock(id)
	defer unlock()

	conv, err := e.resolveConversation(ctx, id, created, requestedProfile, text)
	if err != nil {
		return TurnResult{}, err
	}

	if DetectAgreement(text) {
		conv.Meta.UserAligned = true
	}

	// Persist topic/side/profile decisions before the slow generation
	// calls; a later budget timeout must not lose them.
	if err := e.save(ctx, id, conv); err != nil {
		return TurnResult{}, err
	}

	prof := e.profiles.Default(conv.Meta.ProfileID)
	stance := StanceTypeFrom(conv.Meta.Side)
	system := BuildSystemPrompt(prof, conv.Meta.Topic, conv.Meta.Side, e.normalizer.ClosingSentence())
	history := e.promptHistory(conv.Messages)

	reply, err := e.produceReply(ctx, system, history, text, prof, conv, stance)
	if err != nil {
		return TurnResult{}, err
	}

	if conv.Meta.UserAligned {
		reply = AppendInvite(reply)
	}

	conv.Append(conversation.RoleUser, text)
	conv.Append(conversation.RoleAssistant, reply)
	if err := e.save(ctx, id, conv); err != nil {
		return TurnResult{}, err
	}

	return TurnResult{
		ConversationID: id,
		Messages:       conversation.Window(conv.Messages, conversation.DefaultWindow),
		LatencyMS:      e.now().Sub(start).Milliseconds(),
		Stance:         string(stance),
	}, nil
}

// resolveConversation loads or creates the record and establishes
// topic/side for first turns and explicit topic changes.
func (e *Engine) resolveConversation(ctx context.Context, id string, created bool, requestedProfile, text string) (conversation.Conversation, error) {
	if created {
		profileID := e.defaultProfileID
		if requestedProfile != "" {
			if e.profiles.Has(requestedProfile) {
				profileID = requestedProfile
			} else {
				e.log.Warn("ignoring unknown profile directive", "profile_id", requestedProfile)
			}
		}
		conv := conversation.Conversation{Meta: conversation.Meta{ProfileID: profileID}}
		e.applyTopic(&conv, ctx, text)
		return conv, nil
	}

	conv, err := e.load(ctx, id)
	if err != nil {
		return conversation.Conversation{}, err
	}

	if requestedProfile != "" {
		if e.profiles.Has(requestedProfile) {
			conv.Meta.ProfileID = requestedProfile
		} else {
			e.log.Warn("ignoring unknown profile directive", "profile_id", requestedProfile)
		}
	}

	switch {
	case len(conv.Messages) == 0:
		e.applyTopic(&conv, ctx, text)
	case TopicChangeRequested(text):
		e.log.Info("explicit topic change", "conversation_id", id)
		e.applyTopic(&conv, ctx, text)
	}
	return conv, nil
}

// applyTopic classifies the text and locks the new topic/side pair,
// resetting the agreement flag.
func (e *Engine) applyTopic(conv *conversation.Conversation, ctx context.Context, text string) {
	topic, userSide := e.classifier.Classify(ctx, text)
	side := BotSideFor(topic, userSide)
	conv.Meta.Topic = topic
	conv.Meta.Side = side
	conv.Meta.StanceType = string(StanceTypeFrom(side))
	conv.Meta.UserSide = string(userSide)
	conv.Meta.UserAligned = false
}

// produceReply is steps 7-9: draft, normalize, alignment pass,
// redundancy pass. Generation failures degrade to the canned argument;
// only budget exhaustion is fatal.
func (e *Engine) produceReply(ctx context.Context, system string, history []llm.Message, text string, prof profile.Profile, conv conversation.Conversation, stance Side) (string, error) {
	draft, err := e.client.Complete(ctx, llm.Request{
		System:      system,
		History:     history,
		User:        text,
		Temperature: prof.Temperature,
		TopP:        prof.TopP,
		MaxTokens:   prof.MaxTokens,
	})
	if err != nil {
		if ctxErr := budgetExhausted(ctx); ctxErr != nil {
			return "", ctxErr
		}
		e.log.Error("generation failed, degrading to canned reply", "error", err)
		return e.normalizer.MinimalArgument(stance, conv.Meta.Topic, text), nil
	}

	reply := e.normalizer.Normalize(draft)
	if !e.normalizer.Viable(reply) {
		reply = e.normalizer.MinimalArgument(stance, conv.Meta.Topic, text)
	}

	reply = e.alignmentPass(ctx, system, history, text, conv, stance, reply)
	if ctxErr := budgetExhausted(ctx); ctxErr != nil {
		return "", ctxErr
	}

	reply = e.redundancyPass(ctx, system, history, text, conv, reply)
	if ctxErr := budgetExhausted(ctx); ctxErr != nil {
		return "", ctxErr
	}
	return reply, nil
}

func (e *Engine) alignmentPass(ctx context.Context, system string, history []llm.Message, text string, conv conversation.Conversation, stance Side, reply string) string {
	if e.alignment == nil {
		return reply
	}
	aligned, label := e.alignment.Check(ctx, conv.Meta.Topic, stance, reply)
	if aligned {
		return reply
	}
	e.log.Info("alignment guard triggered rewrite", "label", label)

	redraft, err := e.client.Complete(ctx, llm.Request{
		System:      AmendSystemPromptForAlignment(system, conv.Meta.Topic, stance),
		History:     history,
		User:        text,
		Temperature: 0.3,
		TopP:        1,
		MaxTokens:   rewriteTokenBudget,
	})
	if err != nil {
		e.log.Warn("alignment rewrite failed, keeping draft", "error", err)
		return reply
	}
	if fixed := e.normalizer.Normalize(redraft); e.normalizer.Viable(fixed) {
		return fixed
	}
	return reply
}

func (e *Engine) redundancyPass(ctx context.Context, system string, history []llm.Message, text string, conv conversation.Conversation, reply string) string {
	if e.redundancy == nil {
		return reply
	}
	previous, ok := conv.LastAssistant()
	if !ok || !e.redundancy.TooSimilar(previous.Message, reply) {
		return reply
	}
	e.log.Info("redundancy guard triggered rewrite")

	redraft, err := e.client.Complete(ctx, llm.Request{
		System:      AmendSystemPromptForVariety(system, e.redundancy.ForbiddenPhrases(previous.Message)),
		History:     history,
		User:        text,
		Temperature: 0.6,
		TopP:        1,
		MaxTokens:   rewriteTokenBudget,
	})
	if err != nil {
		e.log.Warn("redundancy rewrite failed, keeping draft", "error", err)
		return reply
	}

	fixed := e.normalizer.Normalize(redraft)
	if e.normalizer.Viable(fixed) && !e.redundancy.TooSimilar(previous.Message, fixed) {
		return fixed
	}
	return reply
}

func (e *Engine) promptHistory(messages []conversation.Message) []llm.Message {
	window := conversation.Window(messages, e.maxHistoryPairs*2)
	out := make([]llm.Message, 0, len(window))
	for _, m := range window {
		out = append(out, llm.Message{Role: m.Role, Content: m.Message})
	}
	return out
}

func (e *Engine) load(ctx context.Context, id string) (conversation.Conversation, error) {
	if id == "" {
		return conversation.Conversation{}, ErrConversationNotFound
	}
	blob, found, err := e.store.Get(ctx, conversation.Key(id))
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("load conversation %s: %w", id, err)
	}
	if !found {
		return conversation.Conversation{}, ErrConversationNotFound
	}
	return conversation.Unmarshal(blob)
}

func (e *Engine) save(ctx context.Context, id string, conv conversation.Conversation) error {
	blob, err := conversation.Marshal(conv)
	if err != nil {
		return err
	}
	if err := e.store.Set(ctx, conversation.Key(id), blob); err != nil {
		return fmt.Errorf("save conversation %s: %w", id, err)
	}
	return nil
}

func (e *Engine) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	m := &e.locks[h.Sum32()%lockShards]
	m.Lock()
	return m.Unlock
}

// budgetExhausted maps a spent turn context to the fatal timeout error.
func budgetExhausted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("turn budget exhausted: %w", err)
	}
	return nil
}

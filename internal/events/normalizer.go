package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wwebgo/wweb/internal/bus"
	"github.com/wwebgo/wweb/internal/model"
	"github.com/wwebgo/wweb/internal/status"
	"github.com/wwebgo/wweb/internal/wid"
	"go.uber.org/zap"
)

// SessionControl is the narrow control surface the normalizer uses to
// react to terminal connection states.
type SessionControl interface {
	// Close tears down the remote session resource.
	Close() error
	// TakeOver reclaims the session from a conflicting client.
	TakeOver(ctx context.Context) error
}

// Config holds normalizer policy knobs.
type Config struct {
	// TakeoverOnConflict schedules a takeover instead of tearing down when
	// the CONFLICT state is reported.
	TakeoverOnConflict bool
	// TakeoverDelay is how long to wait before the scheduled takeover.
	TakeoverDelay time.Duration
	// QueueSize bounds the channel between the boundary callback and the
	// publish step. Zero means a default of 256.
	QueueSize int
}

// Binder is the push side of the boundary: it exposes a page-callable
// function under a name. Satisfied by *bridge.Bridge.
type Binder interface {
	Bind(name string, handler func(payload json.RawMessage)) error
}

// BindingName is the page-callable function the injected listener invokes
// with mutation envelopes.
const BindingName = "onWWebMutation"

// Normalizer converts each raw mutation observed on the live client into
// exactly one canonical domain event. Handlers never propagate a failure
// past their boundary: malformed snapshots degrade to omission.
type Normalizer struct {
	bus     *bus.Bus
	machine *status.Machine
	session model.Session
	control SessionControl
	cfg     Config
	logger  *zap.Logger

	queue  chan mutation
	cancel context.CancelFunc

	// Single-slot cache of the most recently observed non-revoked message,
	// used to recover pre-revocation snapshots. Overwritten unconditionally;
	// a race between a near-simultaneous revoke and the overwrite is an
	// accepted limitation, not a correctness bug.
	last *model.Message
}

// NewNormalizer creates a normalizer publishing on the given bus. The
// session handle is injected into every entity it constructs; control is
// used for conflict/teardown policy.
func NewNormalizer(b *bus.Bus, machine *status.Machine, session model.Session, control SessionControl, cfg Config, logger *zap.Logger) *Normalizer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &Normalizer{
		bus:     b,
		machine: machine,
		session: session,
		control: control,
		cfg:     cfg,
		logger:  logger,
		queue:   make(chan mutation, cfg.QueueSize),
	}
}

// Bind registers the boundary binding. The callback only enqueues: the
// publish step runs on the consumer goroutine so handlers never re-enter
// the boundary from within a page callback.
func (n *Normalizer) Bind(binder Binder) error {
	return binder.Bind(BindingName, func(payload json.RawMessage) {
		var mut mutation
		if err := json.Unmarshal(payload, &mut); err != nil {
			n.logger.Debug("dropping malformed mutation envelope", zap.Error(err))
			return
		}
		select {
		case n.queue <- mut:
		default:
			n.logger.Warn("mutation queue full, dropping", zap.String("kind", mut.Kind))
		}
	})
}

// Start begins consuming queued mutations until the context is canceled
// or Stop is called.
func (n *Normalizer) Start(ctx context.Context) {
	ctx, n.cancel = context.WithCancel(ctx)
	go func() {
		for {
			select {
			case mut := <-n.queue:
				n.Dispatch(mut.Kind, mut.Payload)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the consumer goroutine.
func (n *Normalizer) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
}

// Dispatch routes one raw mutation to its handler. An unknown kind is
// ignored. Panics inside a handler are contained here: the remote
// environment cannot be held responsible for local exceptions.
func (n *Normalizer) Dispatch(kind string, payload json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("mutation handler panicked",
				zap.String("kind", kind), zap.Any("panic", r))
		}
	}()

	switch kind {
	case MutMessageAdd:
		n.handleMessageAdd(payload)
	case MutMessageTypeChange:
		n.handleTypeChange(payload)
	case MutMessageAckChange:
		n.handleAckChange(payload)
	case MutMessageBodyChange:
		n.handleBodyChange(payload)
	case MutMessageRemove:
		n.handleRemove(payload)
	case MutMediaUploaded:
		n.handleMediaUploaded(payload)
	case MutChatRemove:
		n.handleChatRemove(payload)
	case MutChatArchive:
		n.handleChatArchive(payload)
	case MutChatUnread:
		n.handleChatUnread(payload)
	case MutStateChange:
		n.handleStateChange(payload)
	case MutIncomingCall:
		n.handleIncomingCall(payload)
	case MutReactionAdd:
		n.handleReactionAdd(payload)
	case MutQRChange:
		n.handleQR(payload)
	case MutLoadingProgress:
		n.handleLoading(payload)
	default:
		n.logger.Debug("unknown mutation kind", zap.String("kind", kind))
	}
}

func (n *Normalizer) handleMessageAdd(payload json.RawMessage) {
	raw, err := model.UnmarshalRaw[model.RawMessage](payload)
	if err != nil {
		n.logger.Debug("malformed message snapshot", zap.Error(err))
		return
	}

	if raw.Type == model.MessageTypeGroupNotification {
		n.emitGroupNotification(payload, raw)
		return
	}
	if raw.Type == model.MessageTypeNotificationTemplate && raw.Subtype == "change_number" {
		n.emitContactNumberChange(payload, raw)
		return
	}

	// Built from the original bytes so RawData keeps every snapshot field,
	// mapped or not.
	msg, err := model.NewMessage(n.session, payload)
	if err != nil {
		n.logger.Debug("malformed message snapshot", zap.Error(err))
		return
	}
	if msg.Type != model.MessageTypeRevoked {
		n.last = msg
	}

	// Every newly observed message, own ones included, yields a created
	// event; reception is emitted after it for messages from others.
	n.bus.Emit(bus.KindMessageCreated, msg)
	if !msg.FromMe && !msg.Type.IsNotification() {
		n.bus.Emit(bus.KindMessageReceived, msg)
	}
}

// emitGroupNotification maps a group system notification onto its
// canonical event. The "modify" subtype is a participant phone-number
// change and gets the dedicated identity-changed treatment.
func (n *Normalizer) emitGroupNotification(payload json.RawMessage, raw *model.RawMessage) {
	if model.GroupNotificationType(raw.Subtype) == model.GroupNotificationModify {
		n.emitParticipantNumberChange(payload, raw)
		return
	}

	notif := model.NewGroupNotification(n.session, raw)
	var kind string
	switch notif.Type {
	case model.GroupNotificationAdd, model.GroupNotificationInvite:
		kind = bus.KindGroupJoin
	case model.GroupNotificationRemove, model.GroupNotificationLeave:
		kind = bus.KindGroupLeave
	case model.GroupNotificationPromote, model.GroupNotificationDemote:
		kind = bus.KindGroupAdminChanged
	case model.GroupNotificationMembershipRequest:
		kind = bus.KindGroupMembershipRequest
	default:
		kind = bus.KindGroupUpdate
	}
	n.bus.Emit(kind, notif)
}

// emitParticipantNumberChange handles the group-participant renumbering
// case: the new id is the first recipient (falling back to the "to"
// field), the old id is the author.
func (n *Normalizer) emitParticipantNumberChange(payload json.RawMessage, raw *model.RawMessage) {
	newID := raw.To
	if len(raw.RecipientIDs) > 0 {
		newID = raw.RecipientIDs[0]
	}
	if newID.IsEmpty() || raw.Author.IsEmpty() {
		n.logger.Debug("participant renumbering without ids, dropping")
		return
	}
	msg, err := model.NewMessage(n.session, payload)
	if err != nil {
		n.logger.Debug("malformed message snapshot", zap.Error(err))
		return
	}
	n.bus.Emit(bus.KindContactChanged, ContactChanged{
		Message:   msg,
		OldID:     raw.Author,
		NewID:     newID,
		IsContact: false,
	})
}

// emitContactNumberChange handles the contact renumbering template: the
// new id is the "to" field, the old id is the template parameter that is
// not the new id.
func (n *Normalizer) emitContactNumberChange(payload json.RawMessage, raw *model.RawMessage) {
	newID := raw.To
	var oldID wid.WID
	for _, param := range raw.TemplateParams {
		parsed, err := wid.Parse(param)
		if err != nil {
			continue
		}
		if parsed != newID {
			oldID = parsed
			break
		}
	}
	if oldID.IsEmpty() {
		n.logger.Debug("change_number template without old id, dropping")
		return
	}
	msg, err := model.NewMessage(n.session, payload)
	if err != nil {
		n.logger.Debug("malformed message snapshot", zap.Error(err))
		return
	}
	n.bus.Emit(bus.KindContactChanged, ContactChanged{
		Message:   msg,
		OldID:     oldID,
		NewID:     newID,
		IsContact: true,
	})
}

func (n *Normalizer) handleTypeChange(payload json.RawMessage) {
	raw, err := model.UnmarshalRaw[model.RawMessage](payload)
	if err != nil {
		n.logger.Debug("malformed message snapshot", zap.Error(err))
		return
	}
	if raw.Type != model.MessageTypeRevoked {
		return
	}

	revoked, err := model.NewMessage(n.session, payload)
	if err != nil {
		n.logger.Debug("malformed message snapshot", zap.Error(err))
		return
	}

	// Best-effort correlation against the single-slot cache. A miss means
	// the previous-state portion is omitted, never substituted.
	var previous *model.Message
	if n.last != nil && n.last.ID.Serialized == revoked.ID.Serialized {
		previous = n.last
	}
	n.bus.Emit(bus.KindRevokedEveryone, RevokedEveryone{Message: revoked, Previous: previous})
}

type ackChange struct {
	Message json.RawMessage `json:"msg"`
	Ack     model.Ack       `json:"ack"`
}

func (n *Normalizer) handleAckChange(payload json.RawMessage) {
	var change ackChange
	if err := json.Unmarshal(payload, &change); err != nil {
		n.logger.Debug("malformed ack change", zap.Error(err))
		return
	}
	msg, err := model.NewMessage(n.session, change.Message)
	if err != nil {
		n.logger.Debug("malformed message snapshot", zap.Error(err))
		return
	}
	n.bus.Emit(bus.KindMessageAck, MessageAck{Message: msg, Ack: change.Ack})
}

func (n *Normalizer) handleBodyChange(payload json.RawMessage) {
	msg, err := model.NewMessage(n.session, payload)
	if err != nil {
		n.logger.Debug("malformed message snapshot", zap.Error(err))
		return
	}
	n.bus.Emit(bus.KindMessageEdited, msg)
}

func (n *Normalizer) handleRemove(payload json.RawMessage) {
	msg, err := model.NewMessage(n.session, payload)
	if err != nil {
		n.logger.Debug("malformed message snapshot", zap.Error(err))
		return
	}
	n.bus.Emit(bus.KindRevokedMe, msg)
}

func (n *Normalizer) handleMediaUploaded(payload json.RawMessage) {
	msg, err := model.NewMessage(n.session, payload)
	if err != nil {
		n.logger.Debug("malformed message snapshot", zap.Error(err))
		return
	}
	n.bus.Emit(bus.KindMediaUploaded, msg)
}

func (n *Normalizer) handleChatRemove(payload json.RawMessage) {
	chat, err := model.NewChat(n.session, payload)
	if err != nil {
		n.logger.Debug("malformed chat snapshot", zap.Error(err))
		return
	}
	n.bus.Emit(bus.KindChatRemoved, chat)
}

type chatArchiveChange struct {
	Chat     json.RawMessage `json:"chat"`
	Archived bool            `json:"archived"`
	Previous bool            `json:"previous"`
}

func (n *Normalizer) handleChatArchive(payload json.RawMessage) {
	var change chatArchiveChange
	if err := json.Unmarshal(payload, &change); err != nil {
		n.logger.Debug("malformed archive change", zap.Error(err))
		return
	}
	chat, err := model.NewChat(n.session, change.Chat)
	if err != nil {
		n.logger.Debug("malformed chat snapshot", zap.Error(err))
		return
	}
	n.bus.Emit(bus.KindChatArchived, ChatArchived{
		Chat:     chat,
		Archived: change.Archived,
		Previous: change.Previous,
	})
}

func (n *Normalizer) handleChatUnread(payload json.RawMessage) {
	chat, err := model.NewChat(n.session, payload)
	if err != nil {
		n.logger.Debug("malformed chat snapshot", zap.Error(err))
		return
	}
	n.bus.Emit(bus.KindChatUnreadCount, UnreadCount{Chat: chat})
}

type stateChange struct {
	State model.WAState `json:"state"`
}

// nonTerminalStates never trigger teardown. CONFLICT is added dynamically
// when takeover is configured.
var nonTerminalStates = map[model.WAState]bool{
	model.StateConnected: true,
	model.StateOpening:   true,
	model.StatePairing:   true,
	model.StateTimeout:   true,
}

func (n *Normalizer) handleStateChange(payload json.RawMessage) {
	var change stateChange
	if err := json.Unmarshal(payload, &change); err != nil {
		n.logger.Debug("malformed state change", zap.Error(err))
		return
	}
	st := change.State

	// The raw transition is always re-emitted verbatim.
	n.bus.Emit(bus.KindStateChanged, StateChange{State: st})

	if nonTerminalStates[st] {
		return
	}
	if st == model.StateConflict && n.cfg.TakeoverOnConflict {
		n.logger.Info("conflict state, takeover scheduled",
			zap.Duration("delay", n.cfg.TakeoverDelay))
		time.AfterFunc(n.cfg.TakeoverDelay, func() {
			if err := n.control.TakeOver(context.Background()); err != nil {
				n.logger.Error("takeover failed", zap.Error(err))
			}
		})
		return
	}

	n.logger.Warn("terminal connection state", zap.String("state", string(st)))
	n.bus.Emit(bus.KindDisconnected, Disconnected{Reason: st})
	_ = n.machine.Transition(status.Disconnected)

	// Teardown runs off the handler goroutine so the consumer loop is
	// never blocked on the boundary.
	go func() {
		if err := n.control.Close(); err != nil {
			n.logger.Error("teardown failed", zap.Error(err))
		}
	}()
}

func (n *Normalizer) handleIncomingCall(payload json.RawMessage) {
	raw, err := model.UnmarshalRaw[model.RawCall](payload)
	if err != nil {
		n.logger.Debug("malformed call snapshot", zap.Error(err))
		return
	}
	n.bus.Emit(bus.KindIncomingCall, model.NewCall(raw))
}

type reactionBatch struct {
	Reactions []model.RawReaction `json:"reactions"`
}

func (n *Normalizer) handleReactionAdd(payload json.RawMessage) {
	var batch reactionBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		n.logger.Debug("malformed reaction batch", zap.Error(err))
		return
	}
	for i := range batch.Reactions {
		n.bus.Emit(bus.KindReaction, model.NewReaction(&batch.Reactions[i]))
	}
}

type qrChange struct {
	QR string `json:"qr"`
}

func (n *Normalizer) handleQR(payload json.RawMessage) {
	var change qrChange
	if err := json.Unmarshal(payload, &change); err != nil || change.QR == "" {
		n.logger.Debug("malformed qr payload", zap.Error(err))
		return
	}
	n.bus.Emit(bus.KindQR, QR{Code: change.QR})
}

type loadingProgress struct {
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

func (n *Normalizer) handleLoading(payload json.RawMessage) {
	var progress loadingProgress
	if err := json.Unmarshal(payload, &progress); err != nil {
		n.logger.Debug("malformed loading payload", zap.Error(err))
		return
	}
	if n.machine.Current() == status.Authenticating {
		_ = n.machine.Transition(status.Loading)
	}
	n.bus.Emit(bus.KindLoading, Loading{Percent: progress.Percent, Message: progress.Message})
}

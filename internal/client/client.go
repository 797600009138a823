// Package client is the session/command façade: every operation is one or
// more request/response round trips over the page boundary, with snapshots
// decoded into the typed domain entities.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/wwebgo/wweb/internal/bridge"
	"github.com/wwebgo/wweb/internal/media"
	"github.com/wwebgo/wweb/internal/model"
	"go.uber.org/zap"
)

// Remote entry points of the injected helper layer. Each evaluates to a
// function on the page; the boundary serializes submissions.
const (
	fnIsRegistered       = "window.WWeb.isRegistered"
	fnRequestPairingCode = "window.WWeb.requestPairingCode"
	fnWaitUntilLoaded    = "window.WWeb.waitUntilLoaded"
	fnStreamInfo         = "window.WWeb.getStreamInfo"
	fnTakeOver           = "window.WWeb.takeOver"
	fnLogout             = "window.WWeb.logout"
	fnGetState           = "window.WWeb.getState"
	fnGetVersion         = "window.WWeb.getVersion"

	fnSendMessage      = "window.WWeb.sendMessage"
	fnSendStatusText   = "window.WWeb.sendStatusText"
	fnSendStatusImage  = "window.WWeb.sendStatusImage"
	fnSendStatusVideo  = "window.WWeb.sendStatusVideo"
	fnGetMessage       = "window.WWeb.getMessageById"
	fnSearchMessages   = "window.WWeb.searchMessages"
	fnDeleteMessage    = "window.WWeb.deleteMessage"
	fnStarMessage      = "window.WWeb.starMessage"
	fnReactToMessage   = "window.WWeb.reactToMessage"
	fnEditMessage      = "window.WWeb.editMessage"
	fnDownloadMedia    = "window.WWeb.downloadMedia"
	fnForwardMessage   = "window.WWeb.forwardMessage"

	fnGetChats      = "window.WWeb.getChats"
	fnGetChat       = "window.WWeb.getChatById"
	fnArchiveChat   = "window.WWeb.archiveChat"
	fnPinChat       = "window.WWeb.pinChat"
	fnMuteChat      = "window.WWeb.muteChat"
	fnMarkUnread    = "window.WWeb.markChatUnread"
	fnDeleteChat    = "window.WWeb.deleteChat"
	fnSendSeen      = "window.WWeb.sendSeen"
	fnSendChatState = "window.WWeb.sendChatState"

	fnGetContacts        = "window.WWeb.getContacts"
	fnGetContact         = "window.WWeb.getContactById"
	fnGetBlockedContacts = "window.WWeb.getBlockedContacts"
	fnGetProfilePic      = "window.WWeb.getProfilePicUrl"
	fnGetCommonGroups    = "window.WWeb.getCommonGroups"
	fnFormatNumber       = "window.WWeb.getFormattedNumber"
	fnCountryCode        = "window.WWeb.getCountryCode"

	fnCreateGroup        = "window.WWeb.createGroup"
	fnAddParticipant     = "window.WWeb.addParticipant"
	fnRemoveParticipants = "window.WWeb.removeParticipants"
	fnPromote            = "window.WWeb.promoteParticipants"
	fnDemote             = "window.WWeb.demoteParticipants"
	fnMembershipRequests = "window.WWeb.getMembershipRequests"
	fnApproveMembership  = "window.WWeb.approveMembership"
	fnRejectMembership   = "window.WWeb.rejectMembership"
	fnSetGroupSubject    = "window.WWeb.setGroupSubject"
	fnSetGroupDesc       = "window.WWeb.setGroupDescription"
	fnSetGroupPicture    = "window.WWeb.setGroupPicture"
	fnLeaveGroup         = "window.WWeb.leaveGroup"
	fnGetInviteInfo      = "window.WWeb.getInviteInfo"
	fnAcceptInvite       = "window.WWeb.acceptInvite"
	fnSendGroupInvite    = "window.WWeb.sendGroupV4Invite"

	fnGetLabels        = "window.WWeb.getLabels"
	fnGetLabel         = "window.WWeb.getLabelById"
	fnGetChatLabels    = "window.WWeb.getChatLabels"
	fnGetChatsByLabel  = "window.WWeb.getChatsByLabelId"

	fnSetDisplayName    = "window.WWeb.setDisplayName"
	fnSetStatusMessage  = "window.WWeb.setStatusMessage"
	fnSetProfilePicture = "window.WWeb.setProfilePicture"
	fnDeleteProfilePic  = "window.WWeb.deleteProfilePicture"
)

// errServerStatus is the remote error name raised for server status
// rejections. Settings changes absorb it into a boolean.
const errServerStatus = "ServerStatusCodeError"

// Runner is the slice of the boundary the façade needs. Satisfied by
// *bridge.Bridge; tests substitute a recorder.
type Runner interface {
	Execute(ctx context.Context, fn string, args ...any) (json.RawMessage, error)
	Close() error
}

// Config holds façade policy.
type Config struct {
	// FFmpegPath locates the external converter used for sticker formatting.
	FFmpegPath string
}

// Client is the command façade over one live session. It owns the boundary
// handle exclusively; entities it constructs hold it back as a capability.
type Client struct {
	runner Runner
	cfg    Config
	logger *zap.Logger

	// sleep and intn are injected for batch-delay testability.
	sleep func(ctx context.Context, d time.Duration) error
	intn  func(n int64) int64
}

// New creates a façade over the given boundary runner.
func New(runner Runner, cfg Config, logger *zap.Logger) *Client {
	return &Client{
		runner: runner,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepCtx,
		intn:   rand.Int63n,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execute runs one boundary round trip.
func (c *Client) execute(ctx context.Context, fn string, args ...any) (json.RawMessage, error) {
	return c.runner.Execute(ctx, fn, args...)
}

// executeInto runs one round trip and decodes the snapshot. A null result
// leaves out untouched and reports false.
func (c *Client) executeInto(ctx context.Context, out any, fn string, args ...any) (bool, error) {
	raw, err := c.execute(ctx, fn, args...)
	if err != nil {
		return false, err
	}
	if isNull(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s result: %w", fn, err)
	}
	return true, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Destroy tears down the remote session resource. Further boundary calls
// fail with bridge.ErrClosed.
func (c *Client) Destroy() error {
	return c.runner.Close()
}

// Logout unlinks the session on the remote side, then tears it down.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.execute(ctx, fnLogout); err != nil {
		return err
	}
	return c.runner.Close()
}

// GetState returns the current connection state as the remote reports it.
func (c *Client) GetState(ctx context.Context) (model.WAState, error) {
	var state model.WAState
	if _, err := c.executeInto(ctx, &state, fnGetState); err != nil {
		return "", err
	}
	return state, nil
}

// GetWWebVersion returns the remote client version string.
func (c *Client) GetWWebVersion(ctx context.Context) (string, error) {
	var version string
	if _, err := c.executeInto(ctx, &version, fnGetVersion); err != nil {
		return "", err
	}
	return version, nil
}

// IsRegistered probes whether the session identity is registered.
func (c *Client) IsRegistered(ctx context.Context) (bool, error) {
	var registered bool
	if _, err := c.executeInto(ctx, &registered, fnIsRegistered); err != nil {
		return false, err
	}
	return registered, nil
}

// RequestPairingCode obtains a phone-linking code.
func (c *Client) RequestPairingCode(ctx context.Context, phone string) (string, error) {
	var code string
	if _, err := c.executeInto(ctx, &code, fnRequestPairingCode, phone); err != nil {
		return "", err
	}
	return code, nil
}

// WaitUntilLoaded blocks until the remote main frame reports fully loaded.
// For an unregistered identity this spans the whole pairing exchange.
func (c *Client) WaitUntilLoaded(ctx context.Context) error {
	_, err := c.execute(ctx, fnWaitUntilLoaded)
	return err
}

// StreamInfo captures best-effort diagnostic stream state.
func (c *Client) StreamInfo(ctx context.Context) json.RawMessage {
	raw, err := c.execute(ctx, fnStreamInfo)
	if err != nil {
		c.logger.Debug("stream diagnostics unavailable", zap.Error(err))
		return nil
	}
	return raw
}

// TakeOver reclaims the session from a conflicting client.
func (c *Client) TakeOver(ctx context.Context) error {
	_, err := c.execute(ctx, fnTakeOver)
	return err
}

// Close satisfies the teardown side of the control surface.
func (c *Client) Close() error {
	return c.runner.Close()
}

// GetProfilePicURL resolves a contact's profile picture URL. A server
// status rejection means the picture is not visible: empty, not an error.
func (c *Client) GetProfilePicURL(ctx context.Context, contactID string) (string, error) {
	var url string
	_, err := c.executeInto(ctx, &url, fnGetProfilePic, contactID)
	if bridge.IsRemote(err, errServerStatus) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return url, nil
}

// DownloadMedia fetches the media payload attached to a message. Returns
// nil when the remote reports the media is no longer available.
func (c *Client) DownloadMedia(ctx context.Context, messageID string) (*media.Media, error) {
	var payload struct {
		Mimetype string `json:"mimetype"`
		Data     string `json:"data"`
		Filename string `json:"filename"`
	}
	ok, err := c.executeInto(ctx, &payload, fnDownloadMedia, messageID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return media.FromBase64(payload.Mimetype, payload.Data, payload.Filename)
}

package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wwebgo/wweb/internal/bridge"
	"github.com/wwebgo/wweb/internal/media"
	"github.com/wwebgo/wweb/internal/wid"
)

// codeForbidden is the remote add-participant result for a permission
// restriction; it triggers the invite fallback.
const codeForbidden = 403

// CreateGroupOptions tune group creation.
type CreateGroupOptions struct {
	MessageTimer   int64
	ParentGroupID  string
	AutoSendInvite bool
	InviteComment  string
}

// CreateGroupParticipant is the per-participant outcome of a creation.
type CreateGroupParticipant struct {
	Code         int  `json:"code"`
	InviteV4Sent bool `json:"inviteV4Sent"`
}

// CreateGroupResult is the outcome of a successful group creation.
type CreateGroupResult struct {
	Title        string                            `json:"title"`
	GroupID      wid.WID                           `json:"gid"`
	Participants map[string]CreateGroupParticipant `json:"participants"`
}

// GroupCreateError is a creation failure the remote signals as a
// descriptive reason rather than a thrown error.
type GroupCreateError struct {
	Reason string
}

func (e *GroupCreateError) Error() string {
	return "group creation failed: " + e.Reason
}

// CreateGroup creates a group with the given title and initial members.
// A remote-signaled failure reason surfaces as *GroupCreateError; callers
// never have to type-probe the result.
func (c *Client) CreateGroup(ctx context.Context, title string, participantIDs []wid.WID, opts *CreateGroupOptions) (*CreateGroupResult, error) {
	if opts == nil {
		opts = &CreateGroupOptions{}
	}
	ids := make([]string, 0, len(participantIDs))
	for _, id := range participantIDs {
		ids = append(ids, id.String())
	}

	raw, err := c.execute(ctx, fnCreateGroup, title, ids, map[string]any{
		"messageTimer":  opts.MessageTimer,
		"parentGroupId": opts.ParentGroupID,
	})
	if err != nil {
		return nil, err
	}

	// The remote reports certain failures as a bare reason string. A null
	// result is neither a reason nor a snapshot; unmarshalling it into a
	// string would succeed without assigning, so it is rejected up front.
	if isNull(raw) {
		return nil, fmt.Errorf("decode group creation result: null snapshot")
	}
	var reason string
	if json.Unmarshal(raw, &reason) == nil {
		return nil, &GroupCreateError{Reason: reason}
	}

	var result CreateGroupResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode group creation result: %w", err)
	}

	if opts.AutoSendInvite {
		for id, p := range result.Participants {
			if p.Code != codeForbidden {
				continue
			}
			if err := c.sendGroupInvite(ctx, result.GroupID, id, opts.InviteComment); err != nil {
				c.logger.Debug("invite fallback failed during creation")
				continue
			}
			p.InviteV4Sent = true
			result.Participants[id] = p
		}
	}
	return &result, nil
}

// AddParticipantsOptions tune a batch add.
type AddParticipantsOptions struct {
	// Delay paces the sequential iteration.
	Delay DelayPolicy
	// AutoSendInvite falls back to a v4 invite message when the add is
	// rejected with a permission restriction.
	AutoSendInvite bool
	// InviteComment is attached to fallback invites.
	InviteComment string
}

// AddParticipantResult is the per-participant outcome of a batch add.
type AddParticipantResult struct {
	Code         int    `json:"code"`
	Message      string `json:"message"`
	InviteV4Sent bool   `json:"inviteV4Sent"`
}

type addParticipantReply struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AddParticipants adds members to a group one at a time, pausing between
// items per the delay policy. Every id in the list is processed; a failure
// on one participant is recorded in its result and iteration continues.
func (c *Client) AddParticipants(ctx context.Context, groupID wid.WID, participantIDs []wid.WID, opts *AddParticipantsOptions) (map[string]AddParticipantResult, error) {
	if opts == nil {
		opts = &AddParticipantsOptions{}
	}
	results := make(map[string]AddParticipantResult, len(participantIDs))

	for i, id := range participantIDs {
		if i > 0 {
			if err := c.sleep(ctx, opts.Delay.delay(c.intn)); err != nil {
				return results, err
			}
		}

		var reply addParticipantReply
		if _, err := c.executeInto(ctx, &reply, fnAddParticipant, groupID.String(), id.String()); err != nil {
			return results, err
		}
		result := AddParticipantResult{Code: reply.Code, Message: reply.Message}

		if reply.Code == codeForbidden && opts.AutoSendInvite {
			if err := c.sendGroupInvite(ctx, groupID, id.String(), opts.InviteComment); err != nil {
				c.logger.Debug("invite fallback failed")
			} else {
				result.InviteV4Sent = true
			}
		}
		results[id.String()] = result
	}
	return results, nil
}

func (c *Client) sendGroupInvite(ctx context.Context, groupID wid.WID, participantID, comment string) error {
	_, err := c.execute(ctx, fnSendGroupInvite, groupID.String(), participantID, comment)
	return err
}

// RemoveParticipants removes members from a group.
func (c *Client) RemoveParticipants(ctx context.Context, groupID wid.WID, participantIDs []wid.WID) error {
	_, err := c.execute(ctx, fnRemoveParticipants, groupID.String(), widStrings(participantIDs))
	return err
}

// PromoteParticipants grants admin to members.
func (c *Client) PromoteParticipants(ctx context.Context, groupID wid.WID, participantIDs []wid.WID) error {
	_, err := c.execute(ctx, fnPromote, groupID.String(), widStrings(participantIDs))
	return err
}

// DemoteParticipants revokes admin from members.
func (c *Client) DemoteParticipants(ctx context.Context, groupID wid.WID, participantIDs []wid.WID) error {
	_, err := c.execute(ctx, fnDemote, groupID.String(), widStrings(participantIDs))
	return err
}

func widStrings(ids []wid.WID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// MembershipRequest is a pending join request on a group.
type MembershipRequest struct {
	RequesterID wid.WID `json:"id"`
	Timestamp   int64   `json:"t"`
}

// GetGroupMembershipRequests lists pending join requests.
func (c *Client) GetGroupMembershipRequests(ctx context.Context, groupID wid.WID) ([]MembershipRequest, error) {
	var requests []MembershipRequest
	if _, err := c.executeInto(ctx, &requests, fnMembershipRequests, groupID.String()); err != nil {
		return nil, err
	}
	return requests, nil
}

// MembershipOptions tune a batch approve or reject.
type MembershipOptions struct {
	// RequesterIDs limits the action to the given requesters; empty means
	// every pending request.
	RequesterIDs []wid.WID
	Delay        DelayPolicy
}

// MembershipAction is the per-requester outcome of an approve or reject.
type MembershipAction struct {
	RequesterID wid.WID `json:"id"`
	Error       string  `json:"error,omitempty"`
}

// ApproveGroupMembershipRequests approves pending requests sequentially
// with the same pacing policy as participant adds.
func (c *Client) ApproveGroupMembershipRequests(ctx context.Context, groupID wid.WID, opts *MembershipOptions) ([]MembershipAction, error) {
	return c.actOnMembership(ctx, fnApproveMembership, groupID, opts)
}

// RejectGroupMembershipRequests rejects pending requests sequentially.
func (c *Client) RejectGroupMembershipRequests(ctx context.Context, groupID wid.WID, opts *MembershipOptions) ([]MembershipAction, error) {
	return c.actOnMembership(ctx, fnRejectMembership, groupID, opts)
}

func (c *Client) actOnMembership(ctx context.Context, fn string, groupID wid.WID, opts *MembershipOptions) ([]MembershipAction, error) {
	if opts == nil {
		opts = &MembershipOptions{}
	}

	targets := opts.RequesterIDs
	if len(targets) == 0 {
		pending, err := c.GetGroupMembershipRequests(ctx, groupID)
		if err != nil {
			return nil, err
		}
		for _, req := range pending {
			targets = append(targets, req.RequesterID)
		}
	}

	var actions []MembershipAction
	for i, id := range targets {
		if i > 0 {
			if err := c.sleep(ctx, opts.Delay.delay(c.intn)); err != nil {
				return actions, err
			}
		}
		action := MembershipAction{RequesterID: id}
		if _, err := c.execute(ctx, fn, groupID.String(), id.String()); err != nil {
			action.Error = err.Error()
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// SetGroupSubject renames a group. A server status rejection (typically a
// permission restriction) reports false rather than an error.
func (c *Client) SetGroupSubject(ctx context.Context, groupID wid.WID, subject string) (bool, error) {
	return c.groupSetting(ctx, fnSetGroupSubject, groupID.String(), subject)
}

// SetGroupDescription updates a group's description.
func (c *Client) SetGroupDescription(ctx context.Context, groupID wid.WID, description string) (bool, error) {
	return c.groupSetting(ctx, fnSetGroupDesc, groupID.String(), description)
}

// SetGroupPicture replaces a group's picture.
func (c *Client) SetGroupPicture(ctx context.Context, groupID wid.WID, picture *media.Media) (bool, error) {
	return c.groupSetting(ctx, fnSetGroupPicture, groupID.String(), picture.Base64())
}

func (c *Client) groupSetting(ctx context.Context, fn string, args ...any) (bool, error) {
	_, err := c.execute(ctx, fn, args...)
	if bridge.IsRemote(err, errServerStatus) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LeaveGroup exits a group.
func (c *Client) LeaveGroup(ctx context.Context, groupID wid.WID) error {
	_, err := c.execute(ctx, fnLeaveGroup, groupID.String())
	return err
}

// InviteInfo describes a group reachable through an invite code.
type InviteInfo struct {
	GroupID          wid.WID `json:"id"`
	Subject          string  `json:"subject"`
	Owner            wid.WID `json:"owner"`
	Size             int     `json:"size"`
	MembershipApprovalMode bool `json:"membershipApprovalMode"`
}

// GetInviteInfo resolves an invite code without joining.
func (c *Client) GetInviteInfo(ctx context.Context, code string) (*InviteInfo, error) {
	var info InviteInfo
	ok, err := c.executeInto(ctx, &info, fnGetInviteInfo, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &info, nil
}

// AcceptInvite joins a group through an invite code and returns the group
// id.
func (c *Client) AcceptInvite(ctx context.Context, code string) (wid.WID, error) {
	var id wid.WID
	if _, err := c.executeInto(ctx, &id, fnAcceptInvite, code); err != nil {
		return wid.WID{}, err
	}
	return id, nil
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/wwebgo/wweb/internal/wid"
)

func TestDelayPolicyInterval(t *testing.T) {
	tests := []struct {
		name     string
		policy   DelayPolicy
		wantLow  time.Duration
		wantHigh time.Duration
	}{
		{
			name:     "fixed",
			policy:   DelayPolicy{Min: 250 * time.Millisecond, Max: 250 * time.Millisecond},
			wantLow:  250 * time.Millisecond,
			wantHigh: 250 * time.Millisecond,
		},
		{
			name:     "wide interval unchanged",
			policy:   DelayPolicy{Min: 200 * time.Millisecond, Max: 500 * time.Millisecond},
			wantLow:  200 * time.Millisecond,
			wantHigh: 500 * time.Millisecond,
		},
		{
			name:     "exactly minimum spread unchanged",
			policy:   DelayPolicy{Min: 100 * time.Millisecond, Max: 200 * time.Millisecond},
			wantLow:  100 * time.Millisecond,
			wantHigh: 200 * time.Millisecond,
		},
		{
			name:     "narrow interval corrected",
			policy:   DelayPolicy{Min: 200 * time.Millisecond, Max: 250 * time.Millisecond},
			wantLow:  250 * time.Millisecond,
			wantHigh: 350 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, high := tt.policy.Interval()
			if low != tt.wantLow || high != tt.wantHigh {
				t.Errorf("interval = [%v, %v], want [%v, %v]", low, high, tt.wantLow, tt.wantHigh)
			}
		})
	}
}

func TestDelayPolicyDraw(t *testing.T) {
	policy := DelayPolicy{Min: 200 * time.Millisecond, Max: 500 * time.Millisecond}

	if got := policy.delay(func(int64) int64 { return 0 }); got != 200*time.Millisecond {
		t.Errorf("lower bound draw = %v", got)
	}
	max := policy.delay(func(n int64) int64 { return n - 1 })
	if max != 500*time.Millisecond {
		t.Errorf("upper bound draw = %v", max)
	}
}

func TestAddParticipantsProcessesFullList(t *testing.T) {
	runner := &fakeRunner{responses: map[string]json.RawMessage{
		fnAddParticipant: json.RawMessage(`{"code":200,"message":"ok"}`),
	}}
	c := newTestClient(runner)

	group := wid.MustParse("123@g.us")
	ids := []wid.WID{
		wid.MustParse("1@c.us"),
		wid.MustParse("2@c.us"),
		wid.MustParse("3@c.us"),
	}
	results, err := c.AddParticipants(context.Background(), group, ids, nil)
	if err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("results = %d, want every participant processed", len(results))
	}
	if len(runner.callsTo(fnAddParticipant)) != 3 {
		t.Errorf("boundary adds = %d, want 3", len(runner.callsTo(fnAddParticipant)))
	}
	for _, id := range ids {
		if results[id.String()].Code != 200 {
			t.Errorf("code for %s = %d", id, results[id.String()].Code)
		}
	}
}

func TestAddParticipantsSleepsBetweenItems(t *testing.T) {
	runner := &fakeRunner{responses: map[string]json.RawMessage{
		fnAddParticipant: json.RawMessage(`{"code":200,"message":"ok"}`),
	}}
	c := newTestClient(runner)

	var sleeps []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	ids := []wid.WID{wid.MustParse("1@c.us"), wid.MustParse("2@c.us"), wid.MustParse("3@c.us")}
	policy := DelayPolicy{Min: 300 * time.Millisecond, Max: 300 * time.Millisecond}
	_, err := c.AddParticipants(context.Background(), wid.MustParse("123@g.us"), ids,
		&AddParticipantsOptions{Delay: policy})
	if err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}

	// No pause before the first item, one between each following pair.
	if len(sleeps) != 2 {
		t.Fatalf("sleeps = %d, want 2", len(sleeps))
	}
	for _, d := range sleeps {
		if d != 300*time.Millisecond {
			t.Errorf("sleep = %v, want fixed 300ms", d)
		}
	}
}

func TestAddParticipantsInviteFallback(t *testing.T) {
	runner := &fakeRunner{responses: map[string]json.RawMessage{
		fnAddParticipant: json.RawMessage(`{"code":403,"message":"not allowed"}`),
	}}
	c := newTestClient(runner)

	ids := []wid.WID{wid.MustParse("1@c.us")}
	results, err := c.AddParticipants(context.Background(), wid.MustParse("123@g.us"), ids,
		&AddParticipantsOptions{AutoSendInvite: true, InviteComment: "join us"})
	if err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}

	result := results["1@c.us"]
	if result.Code != 403 {
		t.Errorf("code = %d", result.Code)
	}
	if !result.InviteV4Sent {
		t.Error("invite flag = false, want fallback invite recorded")
	}
	if len(runner.callsTo(fnSendGroupInvite)) != 1 {
		t.Error("fallback invite not dispatched")
	}
}

func TestAddParticipantsNoFallbackWithoutOptIn(t *testing.T) {
	runner := &fakeRunner{responses: map[string]json.RawMessage{
		fnAddParticipant: json.RawMessage(`{"code":403,"message":"not allowed"}`),
	}}
	c := newTestClient(runner)

	results, err := c.AddParticipants(context.Background(), wid.MustParse("123@g.us"),
		[]wid.WID{wid.MustParse("1@c.us")}, nil)
	if err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}
	if results["1@c.us"].InviteV4Sent {
		t.Error("invite flag set without auto-invite")
	}
	if len(runner.callsTo(fnSendGroupInvite)) != 0 {
		t.Error("invite dispatched without auto-invite")
	}
}

func TestCreateGroupSuccess(t *testing.T) {
	runner := &fakeRunner{responses: map[string]json.RawMessage{
		fnCreateGroup: json.RawMessage(`{
			"title": "book club",
			"gid": "456@g.us",
			"participants": {
				"1@c.us": {"code": 200},
				"2@c.us": {"code": 403}
			}
		}`),
	}}
	c := newTestClient(runner)

	result, err := c.CreateGroup(context.Background(), "book club",
		[]wid.WID{wid.MustParse("1@c.us"), wid.MustParse("2@c.us")}, nil)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if result.GroupID.String() != "456@g.us" {
		t.Errorf("group id = %s", result.GroupID)
	}
	if result.Participants["2@c.us"].Code != 403 {
		t.Errorf("participant code = %d", result.Participants["2@c.us"].Code)
	}
}

func TestCreateGroupDomainFailure(t *testing.T) {
	runner := &fakeRunner{responses: map[string]json.RawMessage{
		fnCreateGroup: json.RawMessage(`"CreateGroupError: you cannot create groups"`),
	}}
	c := newTestClient(runner)

	_, err := c.CreateGroup(context.Background(), "x", nil, nil)
	var createErr *GroupCreateError
	if !errors.As(err, &createErr) {
		t.Fatalf("err = %v, want *GroupCreateError", err)
	}
	if createErr.Reason == "" {
		t.Error("failure reason lost")
	}
}

func TestCreateGroupNullResult(t *testing.T) {
	runner := &fakeRunner{responses: map[string]json.RawMessage{
		fnCreateGroup: json.RawMessage(`null`),
	}}
	c := newTestClient(runner)

	_, err := c.CreateGroup(context.Background(), "x", nil, nil)
	if err == nil {
		t.Fatal("expected decode error for null result")
	}
	var createErr *GroupCreateError
	if errors.As(err, &createErr) {
		t.Fatalf("null result misread as domain failure: %v", err)
	}
}

func TestCreateGroupInviteFallback(t *testing.T) {
	runner := &fakeRunner{responses: map[string]json.RawMessage{
		fnCreateGroup: json.RawMessage(`{
			"title": "t",
			"gid": "456@g.us",
			"participants": {"1@c.us": {"code": 403}}
		}`),
	}}
	c := newTestClient(runner)

	result, err := c.CreateGroup(context.Background(), "t",
		[]wid.WID{wid.MustParse("1@c.us")},
		&CreateGroupOptions{AutoSendInvite: true})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if !result.Participants["1@c.us"].InviteV4Sent {
		t.Error("invite flag not recorded on creation fallback")
	}
}

func TestMembershipRequestsResolveTargets(t *testing.T) {
	runner := &fakeRunner{responses: map[string]json.RawMessage{
		fnMembershipRequests: json.RawMessage(`[{"id":"1@c.us","t":1},{"id":"2@c.us","t":2}]`),
	}}
	c := newTestClient(runner)

	actions, err := c.ApproveGroupMembershipRequests(context.Background(), wid.MustParse("123@g.us"), nil)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("actions = %d, want one per pending request", len(actions))
	}
	if len(runner.callsTo(fnApproveMembership)) != 2 {
		t.Error("not every pending request was approved")
	}
}

func TestMembershipRequestsRecordPerItemFailure(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{
		fnRejectMembership: errors.New("gone"),
	}}
	c := newTestClient(runner)

	actions, err := c.RejectGroupMembershipRequests(context.Background(), wid.MustParse("123@g.us"),
		&MembershipOptions{RequesterIDs: []wid.WID{wid.MustParse("1@c.us")}})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if actions[0].Error == "" {
		t.Error("per-item failure not recorded")
	}
}

func TestCompareWebVersions(t *testing.T) {
	tests := []struct {
		lhs, op, rhs string
		want         bool
		wantErr      bool
	}{
		{"2.3000.1", ">", "2.2999.99", true, false},
		{"2.3000.1", "<", "2.2999.99", false, false},
		{"2.3000.1", "=", "2.3000.1", true, false},
		{"2.3000", ">=", "2.3000.0", true, false},
		{"2.3000.1", "<=", "2.3000.1", true, false},
		{"2.3000.1", "~", "2.3000.1", false, true},
		{"", ">", "2.3000.1", false, true},
		{"2.x.1", ">", "2.3000.1", false, true},
	}

	for _, tt := range tests {
		got, err := CompareWebVersions(tt.lhs, tt.op, tt.rhs)
		if tt.wantErr {
			if err == nil {
				t.Errorf("CompareWebVersions(%q,%q,%q): expected error", tt.lhs, tt.op, tt.rhs)
			}
			continue
		}
		if err != nil {
			t.Errorf("CompareWebVersions(%q,%q,%q): %v", tt.lhs, tt.op, tt.rhs, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CompareWebVersions(%q,%q,%q) = %v, want %v", tt.lhs, tt.op, tt.rhs, got, tt.want)
		}
	}
}

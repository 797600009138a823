package wid

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    WID
		wantErr bool
	}{
		{"user", "5511999999999@c.us", WID{Server: "c.us", User: "5511999999999"}, false},
		{"group", "123456789-987654@g.us", WID{Server: "g.us", User: "123456789-987654"}, false},
		{"status", "status@broadcast", WID{Server: "broadcast", User: "status"}, false},
		{"lid", "8123456@lid", WID{Server: "lid", User: "8123456"}, false},
		{"empty", "", WID{}, true},
		{"no server", "12345", WID{}, true},
		{"trailing at", "12345@", WID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	if !MustParse("123-456@g.us").IsGroup() {
		t.Error("group WID not detected as group")
	}
	if MustParse("123@c.us").IsGroup() {
		t.Error("user WID detected as group")
	}
	if !MustParse("status@broadcast").IsStatus() {
		t.Error("status broadcast not detected")
	}
	if MustParse("other@broadcast").IsStatus() {
		t.Error("non-status broadcast detected as status")
	}
	if !MustParse("other@broadcast").IsBroadcast() {
		t.Error("broadcast list not detected")
	}
	if !MustParse("99@lid").IsLID() {
		t.Error("lid not detected")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	w := MustParse("5511999999999@c.us")
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back WID
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != w {
		t.Errorf("round trip = %+v, want %+v", back, w)
	}
}

func TestUnmarshalForms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"string form", `"12345@c.us"`, "12345@c.us"},
		{"object form", `{"server":"g.us","user":"123-456","_serialized":"123-456@g.us"}`, "123-456@g.us"},
		{"serialized only", `{"_serialized":"99@lid"}`, "99@lid"},
		{"null", `null`, ""},
		{"empty string", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w WID
			if err := json.Unmarshal([]byte(tt.input), &w); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.input, err)
			}
			if w.String() != tt.want {
				t.Errorf("got %q, want %q", w.String(), tt.want)
			}
		})
	}
}

package models

import (
	"encoding/json"
	"testing"
)

func TestParseMailbox(t *testing.T) {
	for _, name := range []string{"inbox", "sent", "archive"} {
		mb, ok := ParseMailbox(name)
		if !ok || string(mb) != name {
			t.Errorf("ParseMailbox(%q) = %q, %v", name, mb, ok)
		}
	}
	for _, name := range []string{"", "Inbox", "spam", "drafts"} {
		if _, ok := ParseMailbox(name); ok {
			t.Errorf("ParseMailbox(%q) should fail", name)
		}
	}
}

func TestViewModeMailbox(t *testing.T) {
	for _, mb := range Mailboxes {
		got, ok := ViewFor(mb).Mailbox()
		if !ok || got != mb {
			t.Errorf("ViewFor(%s).Mailbox() = %q, %v", mb, got, ok)
		}
	}
	if _, ok := ViewCompose.Mailbox(); ok {
		t.Error("compose mode should not map to a mailbox")
	}
	if ViewEmail.String() != "email" || ViewUninitialized.String() != "uninitialized" {
		t.Errorf("unexpected mode names %q %q", ViewEmail, ViewUninitialized)
	}
}

func TestEmailRecipientsDecoding(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"string", `{"id":1,"recipients":"a@x.com, b@y.com"}`, "a@x.com, b@y.com"},
		{"list", `{"id":1,"recipients":["a@x.com","b@y.com"]}`, "a@x.com, b@y.com"},
		{"empty list", `{"id":1,"recipients":[]}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Email
			if err := json.Unmarshal([]byte(tt.json), &e); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if e.Recipients.String() != tt.want {
				t.Errorf("recipients = %q, want %q", e.Recipients, tt.want)
			}
		})
	}

	var e Email
	if err := json.Unmarshal([]byte(`{"recipients":42}`), &e); err == nil {
		t.Error("expected an error for numeric recipients")
	}
}

func TestEmailDecodingWithoutBody(t *testing.T) {
	raw := `{"id":7,"sender":"s@x.com","recipients":"r@y.com","subject":"Hi","timestamp":"Jan 01 2024, 10:00 AM","read":true,"archived":false}`
	var e Email
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != 7 || e.Sender != "s@x.com" || e.Body != "" || !e.Read || e.Archived {
		t.Errorf("unexpected email %+v", e)
	}
}

func TestNormalizeRecipients(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a@x.com, b@y.com ", "a@x.com,b@y.com"},
		{"  a@x.com  ", "a@x.com"},
		{"a@x.com,,b@y.com,", "a@x.com,b@y.com"},
		{"", ""},
		{" , ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeRecipients(tt.in); got != tt.want {
			t.Errorf("NormalizeRecipients(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlagPatchJSON(t *testing.T) {
	tests := []struct {
		name  string
		patch FlagPatch
		want  string
	}{
		{"read", MarkRead(), `{"read":true}`},
		{"archive", SetArchived(true), `{"archived":true}`},
		{"unarchive", SetArchived(false), `{"archived":false}`},
		{"empty", FlagPatch{}, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.patch)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("got %s, want %s", data, tt.want)
			}
		})
	}
}

func TestResult(t *testing.T) {
	ok := Ok(3)
	if !ok.OK() || ok.Value != 3 {
		t.Errorf("Ok(3) = %+v", ok)
	}
	failed := Fail[int](json.Unmarshal([]byte("x"), new(int)))
	if failed.OK() {
		t.Error("Fail should not be OK")
	}
}

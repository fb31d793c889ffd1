package auth

import "testing"

func TestConversationToken_RoundTrip(t *testing.T) {
	token, err := IssueConversationToken("secret", "01TESTCONVERSATION00000000")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := ParseConversationToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != "01TESTCONVERSATION00000000" {
		t.Fatalf("unexpected conversation id %q", got)
	}
}

func TestConversationToken_WrongSecret(t *testing.T) {
	token, err := IssueConversationToken("secret", "c1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseConversationToken("other", token); err == nil {
		t.Fatal("expected rejection with wrong secret")
	}
}

func TestConversationToken_Garbage(t *testing.T) {
	if _, err := ParseConversationToken("secret", "not-a-token"); err == nil {
		t.Fatal("expected rejection of malformed token")
	}
}

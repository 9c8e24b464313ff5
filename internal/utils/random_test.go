package utils

import (
	"regexp"
	"strings"
	"testing"
)

func TestGenerateInvitationToken(t *testing.T) {
	token, err := GenerateInvitationToken()
	if err != nil {
		t.Fatalf("GenerateInvitationToken: %v", err)
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(token) {
		t.Fatalf("unexpected token %q", token)
	}

	other, _ := GenerateInvitationToken()
	if token == other {
		t.Fatal("tokens should differ")
	}
}

func TestGenerateRandomOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := GenerateRandomOTP()
		if err != nil {
			t.Fatalf("GenerateRandomOTP: %v", err)
		}
		if !regexp.MustCompile(`^\d{6}$`).MatchString(otp) {
			t.Fatalf("unexpected otp %q", otp)
		}
	}
}

func TestGenerateEmailLocalPart(t *testing.T) {
	local := GenerateEmailLocalPart("王伟")
	if !strings.HasPrefix(local, "wangwei") {
		t.Fatalf("expected pinyin prefix, got %q", local)
	}
	if !regexp.MustCompile(`^wangwei\d{1,3}$`).MatchString(local) {
		t.Fatalf("unexpected local part %q", local)
	}
}

func TestGenerateRandomSubset(t *testing.T) {
	for i := 0; i < 50; i++ {
		days := GenerateRandomSubset(31)
		seen := make(map[int]bool)
		for _, d := range days {
			if d < 1 || d > 31 || seen[d] {
				t.Fatalf("invalid subset %v", days)
			}
			seen[d] = true
		}
	}
}

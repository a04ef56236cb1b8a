package utterance

import "testing"

func TestLatestUser(t *testing.T) {
	transcript := []Line{
		{Role: "agent", Content: "Hello, how can I help?"},
		{Role: "user", Content: "  There is no water in Rohini  "},
		{Role: "agent", Content: "Which sector?"},
		{Role: "user", Content: "   "},
	}
	if got := LatestUser(transcript); got != "There is no water in Rohini" {
		t.Errorf("expected latest non-empty user line, got %q", got)
	}

	if got := LatestUser(nil); got != "" {
		t.Errorf("expected empty string for empty transcript, got %q", got)
	}

	agentOnly := []Line{{Role: "agent", Content: "Hello"}}
	if got := LatestUser(agentOnly); got != "" {
		t.Errorf("expected empty string without user lines, got %q", got)
	}
}

func TestIsConfirmation(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Yes please go ahead", true},
		{"OKAY", true},
		{"sure, register it", true},
		{"you can proceed", true},
		{"My name is Ravi Kumar", false},
		{"There is no water in Rohini", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsConfirmation(c.text); got != c.want {
			t.Errorf("IsConfirmation(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestIsClosing(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"No thanks, bye", true},
		{"That's all for today", true},
		{"nothing else", true},
		{"I want to report a broken pipe", false},
	}
	for _, c := range cases {
		if got := IsClosing(c.text); got != c.want {
			t.Errorf("IsClosing(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"मेरा नाम रवि है", Hindi},
		{"ਸਤ ਸ੍ਰੀ ਅਕਾਲ", Punjabi},
		{"Namaste, mera naam Ravi hai", Hindi},
		{"Sat sri akal ji, tussi sunno", Punjabi},
		{"Hello, there is no water", English},
		{"the kitchen tap is broken", English},
		{"", English},
	}
	for _, c := range cases {
		if got := DetectLanguage(c.text); got != c.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

package service

import "testing"

func TestGuessPatientName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"labeled with colon",
			"Clinical Referral\nPatient Name: jane doe\nDOB: 01/02/1980",
			"Jane Doe",
		},
		{
			"labeled with dash",
			"Name - John Smith\nChief complaint: back pain",
			"John Smith",
		},
		{
			"member label",
			"Member Name: ROBERT BAKER\nPlan: Gold PPO",
			"Robert Baker",
		},
		{
			"digits stripped",
			"Patient: Jane Doe 19800102\nVisit date: 2026-08-01",
			"Jane Doe",
		},
		{
			"empty text",
			"",
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := guessPatientName(tt.text); got != tt.want {
				t.Errorf("guessPatientName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanNameCandidate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Patient Name: Jane Doe", "Jane Doe"},
		{"  jane doe  ", "jane doe"},
		{"Jane Doe #42", "Jane Doe"},
		{"Name John Smith", "John Smith"},
		{"One Two Three Four Five Six", "One Two Three Four"},
	}
	for _, tt := range tests {
		if got := cleanNameCandidate(tt.in); got != tt.want {
			t.Errorf("cleanNameCandidate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNameFromFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jane_doe_referral.pdf", "Jane Doe Referral"},
		{"referral.pdf", "Referral"},
		{"/tmp/uploads/john_smith.txt", "John Smith"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := nameFromFilename(tt.in); got != tt.want {
			t.Errorf("nameFromFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Doe", "jane_doe"},
		{"Robert O'Brien", "robert_o_brien"},
		{"  ", "patient"},
		{"---", "patient"},
	}
	for _, tt := range tests {
		if got := slugifyName(tt.in); got != tt.want {
			t.Errorf("slugifyName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

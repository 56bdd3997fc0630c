// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"testing"

	"github.com/humaidq/baseline/biomarker"
)

func TestReviseSessionLiveSignalsOnlyMarkPending(t *testing.T) {
	t.Parallel()

	live := ExtractVoiceIntake("35 male 5'10 195 lbs blood pressure 110 over 70 waist is 36")
	s := ReviseSession(NewSession(), Signal{Source: SourceLive, Intake: live})

	for _, item := range []ChecklistItem{ItemAge, ItemSex, ItemHeight, ItemWeight} {
		if s.Locked(item) {
			t.Fatalf("expected %s pending, got locked", item)
		}

		if !s.Pending(item) {
			t.Fatalf("expected %s pending", item)
		}
	}

	for _, item := range []ChecklistItem{ItemBP, ItemWaist} {
		if !s.Locked(item) {
			t.Fatalf("expected %s locked from live signal", item)
		}
	}

	s = ReviseSession(s, Signal{Source: SourceService, Intake: live})

	for _, item := range []ChecklistItem{ItemAge, ItemSex, ItemHeight, ItemWeight} {
		if !s.Locked(item) || s.Pending(item) {
			t.Fatalf("expected %s locked after service signal", item)
		}
	}
}

func TestReviseSessionDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	before := NewSession()
	after := ReviseSession(before, Signal{Source: SourceService, Intake: VoiceIntake{Age: biomarker.Ptr(40)}})

	if before.Locked(ItemAge) || before.LockedCount() != 0 {
		t.Fatalf("expected original session unchanged")
	}

	if !after.Locked(ItemAge) {
		t.Fatalf("expected age locked in new session")
	}
}

func TestReviseSessionIsMonotonic(t *testing.T) {
	t.Parallel()

	s := ReviseSession(NewSession(), Signal{Source: SourceService, Intake: VoiceIntake{
		Age:      biomarker.Ptr(40),
		Systolic: biomarker.Ptr(120),
		NoLabs:   true,
	}})

	s = ReviseSession(s, Signal{Source: SourceService, Intake: VoiceIntake{}})
	s = ReviseSession(s, Signal{Source: SourceLive, Intake: VoiceIntake{HasLabs: true}})

	if !s.Locked(ItemAge) || !s.Locked(ItemBP) || !s.Locked(ItemLabs) {
		t.Fatalf("expected locked items to stay locked")
	}

	if !s.LabsDeclined() {
		t.Fatalf("expected labs to stay declined")
	}
}

func TestReviseSessionRevalidatesFamilyHistory(t *testing.T) {
	t.Parallel()

	s := ReviseSession(NewSession(), Signal{Source: SourceService, Intake: VoiceIntake{FamilyHistory: biomarker.Ptr(true)}})
	if !s.Locked(ItemHistory) {
		t.Fatalf("expected history locked")
	}

	// Still corroborated by the regex extractor: stays locked.
	kept := ReviseSession(s, Signal{
		Source:  SourceService,
		Service: &ServiceVoice{},
		Regex:   &VoiceIntake{FamilyHistory: biomarker.Ptr(true)},
	})
	if !kept.Locked(ItemHistory) {
		t.Fatalf("expected history to stay locked")
	}

	// A live signal never revalidates.
	live := ReviseSession(s, Signal{Source: SourceLive, Service: &ServiceVoice{}, Regex: &VoiceIntake{}})
	if !live.Locked(ItemHistory) {
		t.Fatalf("expected live signal to leave history locked")
	}

	reverted := ReviseSession(s, Signal{
		Source:  SourceService,
		Service: &ServiceVoice{HasFamilyHistory: biomarker.Ptr(false)},
		Regex:   &VoiceIntake{},
	})
	if reverted.Locked(ItemHistory) {
		t.Fatalf("expected history released when neither extractor reports it")
	}

	if !s.Locked(ItemHistory) {
		t.Fatalf("expected the earlier session value to be unchanged")
	}
}

func TestNextPrompt(t *testing.T) {
	t.Parallel()

	s := NewSession()
	if p := NextPrompt(s); p.Item != ItemAge || p.Pending || p.Done {
		t.Fatalf("expected age prompt, got %+v", p)
	}

	s = ReviseSession(s, Signal{Source: SourceService, Intake: VoiceIntake{
		Age:      biomarker.Ptr(40),
		Sex:      biomarker.Ptr(biomarker.SexMale),
		HeightFt: biomarker.Ptr(6),
		HeightIn: biomarker.Ptr(0),
		Weight:   biomarker.Ptr(180.0),
	}})

	if p := NextPrompt(s); p.Item != ItemLabs {
		t.Fatalf("expected labs prompt, got %+v", p)
	}

	s = ReviseSession(s, Signal{Source: SourceService, Intake: VoiceIntake{
		HasLabs:  true,
		Systolic: biomarker.Ptr(118),
		Waist:    biomarker.Ptr(33.0),
	}})

	p := NextPrompt(s)
	if p.Item != ItemHistory || p.Text != nudgeText[ItemHistory] {
		t.Fatalf("expected history prompt, got %+v", p)
	}

	s = ReviseSession(s, Signal{Source: SourceLive, Intake: VoiceIntake{FamilyHistory: biomarker.Ptr(true)}})

	p = NextPrompt(s)
	if !p.Pending || p.Text != followupText[ItemHistory] {
		t.Fatalf("expected history follow-up, got %+v", p)
	}

	s = ReviseSession(s, Signal{Source: SourceService, Intake: VoiceIntake{FamilyHistory: biomarker.Ptr(true)}})

	if p := NextPrompt(s); !p.Done || !s.Complete() {
		t.Fatalf("expected done, got %+v", p)
	}
}

func TestAnswerPrompt(t *testing.T) {
	t.Parallel()

	s := ReviseSession(NewSession(), Signal{Source: SourceService, Intake: VoiceIntake{
		Age:      biomarker.Ptr(40),
		Sex:      biomarker.Ptr(biomarker.SexMale),
		HeightFt: biomarker.Ptr(6),
		Weight:   biomarker.Ptr(180.0),
	}})

	if _, ok := AnswerPrompt(s, "maybe later"); ok {
		t.Fatalf("expected unrecognised reply to be ignored")
	}

	next, ok := AnswerPrompt(s, "  Nope ")
	if !ok || !next.Locked(ItemLabs) || !next.LabsDeclined() {
		t.Fatalf("expected labs declined, got ok=%v", ok)
	}

	fresh := NewSession()
	if _, ok := AnswerPrompt(fresh, "yes"); ok {
		t.Fatalf("expected yes to the age prompt to be ignored")
	}
}

func TestHasHealthSignal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{text: "I'm 35", want: true},
		{text: "35", want: true},
		{text: "blood pressure is fine", want: true},
		{text: "120 over 80", want: true},
		{text: "five ten and I am 5'10", want: true},
		{text: "what's the weather tomorrow", want: false},
		{text: "   ", want: false},
	}

	for _, tt := range tests {
		if got := HasHealthSignal(NewSession(), tt.text); got != tt.want {
			t.Fatalf("%q: expected %v, got %v", tt.text, tt.want, got)
		}
	}

	s := ReviseSession(NewSession(), Signal{Source: SourceService, Intake: VoiceIntake{Systolic: biomarker.Ptr(120)}})
	if !HasHealthSignal(s, "what's the weather tomorrow") {
		t.Fatalf("expected any locked item to open the gate")
	}
}

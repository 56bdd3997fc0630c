/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package extract

import (
	"maps"
	"regexp"
	"strings"
)

// ChecklistItem is one field the voice intake tries to collect.
type ChecklistItem string

// Checklist items, in prompting order.
const (
	ItemAge     ChecklistItem = "age"
	ItemSex     ChecklistItem = "sex"
	ItemHeight  ChecklistItem = "height"
	ItemWeight  ChecklistItem = "weight"
	ItemLabs    ChecklistItem = "labs"
	ItemBP      ChecklistItem = "bp"
	ItemWaist   ChecklistItem = "waist"
	ItemHistory ChecklistItem = "history"
)

var nudgeSequence = []ChecklistItem{
	ItemAge, ItemSex, ItemHeight, ItemWeight, ItemLabs, ItemBP, ItemWaist, ItemHistory,
}

var nudgeText = map[ChecklistItem]string{
	ItemAge:     `Age? "I'm 35"`,
	ItemSex:     `Sex? "male" or "female"`,
	ItemHeight:  `Height? "5'10" or "five ten"`,
	ItemWeight:  `Weight? "195 lbs" or "I weigh 195"`,
	ItemLabs:    `Do you have lab results? "yes" or "no labs"`,
	ItemBP:      `Blood pressure? "110 over 70" or "BP 120/80"`,
	ItemWaist:   "Waist? Measurement at the navel in inches",
	ItemHistory: `Family history? "father had a heart attack" or "no family history"`,
}

var followupText = map[ChecklistItem]string{
	ItemHistory: "Take your time. Heart disease, diabetes, cancer in your family?",
	ItemLabs:    "Great, you can upload your lab results in the next step",
}

// Items whose values are easy to mishear. Live transcripts only mark
// them pending; they lock on a service-confirmed signal.
var aiConfirmed = map[ChecklistItem]bool{
	ItemAge:     true,
	ItemSex:     true,
	ItemHeight:  true,
	ItemWeight:  true,
	ItemHistory: true,
}

// SignalSource says where an extraction came from.
type SignalSource string

// Signal sources.
const (
	SourceLive    SignalSource = "live"
	SourceService SignalSource = "service"
)

// Signal is one extraction applied to a session. Service and Regex are
// only set for service signals, and feed the history revalidation.
type Signal struct {
	Source  SignalSource
	Intake  VoiceIntake
	Service *ServiceVoice
	Regex   *VoiceIntake
}

// Session is the checklist state of one voice intake. Values are
// immutable; every transition returns a new Session.
type Session struct {
	locked       map[ChecklistItem]bool
	pending      map[ChecklistItem]bool
	labsDeclined bool
}

// NewSession returns an empty session.
func NewSession() Session {
	return Session{
		locked:  map[ChecklistItem]bool{},
		pending: map[ChecklistItem]bool{},
	}
}

// Locked reports whether item has been collected.
func (s Session) Locked(item ChecklistItem) bool {
	return s.locked[item]
}

// Pending reports whether item was heard but not yet confirmed.
func (s Session) Pending(item ChecklistItem) bool {
	return s.pending[item]
}

// LabsDeclined reports whether the labs item was locked by a "no labs".
func (s Session) LabsDeclined() bool {
	return s.labsDeclined
}

// LockedCount returns the number of collected items.
func (s Session) LockedCount() int {
	return len(s.locked)
}

// Complete reports whether every checklist item is collected.
func (s Session) Complete() bool {
	return len(s.locked) == len(nudgeSequence)
}

func (s Session) clone() Session {
	return Session{
		locked:       maps.Clone(s.locked),
		pending:      maps.Clone(s.pending),
		labsDeclined: s.labsDeclined,
	}
}

// ReviseSession applies a signal and returns the resulting session.
//
// Locked items stay locked, with one exception: a locked family history
// is released when a service signal arrives in which neither the service
// nor the regex extractor reports a positive history.
func ReviseSession(s Session, sig Signal) Session {
	next := s.clone()
	if next.locked == nil {
		next.locked = map[ChecklistItem]bool{}
	}
	if next.pending == nil {
		next.pending = map[ChecklistItem]bool{}
	}

	if sig.Source == SourceService && sig.Service != nil && sig.Regex != nil {
		next.revalidateHistory(*sig.Service, *sig.Regex)
	}

	ex := sig.Intake
	next.check(ItemAge, ex.Age != nil && *ex.Age != 0, sig.Source)
	next.check(ItemSex, ex.Sex != nil && *ex.Sex != "", sig.Source)
	next.check(ItemHeight, ex.HeightFt != nil && *ex.HeightFt != 0, sig.Source)
	next.check(ItemWeight, ex.Weight != nil && *ex.Weight != 0, sig.Source)

	if !next.locked[ItemLabs] && (ex.NoLabs || ex.HasLabs) {
		delete(next.pending, ItemLabs)
		next.locked[ItemLabs] = true
		next.labsDeclined = ex.NoLabs
	}

	next.check(ItemBP, ex.Systolic != nil && *ex.Systolic != 0, sig.Source)
	next.check(ItemWaist, ex.Waist != nil && *ex.Waist != 0, sig.Source)
	next.check(ItemHistory, ex.FamilyHistory != nil, sig.Source)

	return next
}

func (s *Session) check(item ChecklistItem, present bool, source SignalSource) {
	if s.locked[item] || !present {
		return
	}

	if aiConfirmed[item] && source == SourceLive {
		s.pending[item] = true
		return
	}

	delete(s.pending, item)
	s.locked[item] = true
}

func (s *Session) revalidateHistory(svc ServiceVoice, regex VoiceIntake) {
	if !s.locked[ItemHistory] {
		return
	}

	serviceSaysNo := svc.HasFamilyHistory == nil || !*svc.HasFamilyHistory
	regexSaysNo := regex.FamilyHistory == nil || !*regex.FamilyHistory

	if serviceSaysNo && regexSaysNo {
		delete(s.locked, ItemHistory)
		delete(s.pending, ItemHistory)
		logger.Info("Reverted checklist item", "item", ItemHistory)
	}
}

// Prompt is the next question to put to the speaker.
type Prompt struct {
	Item    ChecklistItem `json:"item,omitempty"`
	Text    string        `json:"text"`
	Pending bool          `json:"pending,omitempty"`
	Done    bool          `json:"done,omitempty"`
}

// NextPrompt returns the prompt for the first uncollected item.
func NextPrompt(s Session) Prompt {
	for _, item := range nudgeSequence {
		if s.locked[item] {
			continue
		}

		if s.pending[item] {
			if text, ok := followupText[item]; ok {
				return Prompt{Item: item, Text: text, Pending: true}
			}
		}

		return Prompt{Item: item, Text: nudgeText[item], Pending: s.pending[item]}
	}

	return Prompt{Text: "All covered. Submit when ready, or keep talking to add more", Done: true}
}

var (
	shortYes = regexp.MustCompile(`^(?:yes|yeah|yep|yup|i do|i have|sure|definitely|correct)$`)
	shortNo  = regexp.MustCompile(`^(?:no|nope|nah|none|i don't|i do not|not really|negative)$`)
)

// AnswerPrompt interprets a short yes/no reply to the current prompt. Only
// the labs and history prompts accept one. The second return value is
// false when the reply is not a recognised answer.
func AnswerPrompt(s Session, reply string) (Session, bool) {
	prompt := NextPrompt(s)
	if prompt.Done {
		return s, false
	}

	words := strings.ToLower(strings.TrimSpace(reply))
	yes, no := shortYes.MatchString(words), shortNo.MatchString(words)
	if !yes && !no {
		return s, false
	}

	var ex VoiceIntake
	switch prompt.Item {
	case ItemLabs:
		ex.HasLabs = yes
		ex.NoLabs = no
	case ItemHistory:
		ex.FamilyHistory = &yes
	default:
		return s, false
	}

	return ReviseSession(s, Signal{Source: SourceLive, Intake: ex}), true
}

var (
	healthWords = regexp.MustCompile(`\b(?:male|female|man|woman|guy|mail|blood\s*pressure|bp|waist|waste|lab|labs|blood\s*work|medication|meds|supplement|vitamin|family\s*history|cardiac|heart|ldl|hdl|apob|a1c|cholesterol|glucose|insulin|creatine|aspirin|finasteride|pounds|lbs|weigh|feet|foot|inches|years?\s*old|yo)\b`)
	healthBP    = regexp.MustCompile(`\b\d{2,3}\s*(?:over|/)\s*\d{2,3}\b`)
	healthFeet  = regexp.MustCompile(`\b[4-7][\s']\d{1,2}\b`)
	healthShort = regexp.MustCompile(`\b[4-7]\d{1,2}\b`)
	healthAge   = regexp.MustCompile(`(?:i'm|i am|age|aged)\s+\d{2}\b`)
	healthBare  = regexp.MustCompile(`^\d{2}$`)
)

// HasHealthSignal reports whether a transcript looks like health intake
// and is worth sending to the extraction service.
func HasHealthSignal(s Session, transcript string) bool {
	if len(s.locked) > 0 {
		return true
	}

	lower := strings.ToLower(strings.TrimSpace(transcript))
	if lower == "" {
		return false
	}

	return healthWords.MatchString(lower) ||
		healthBP.MatchString(lower) ||
		healthFeet.MatchString(lower) ||
		healthShort.MatchString(lower) ||
		healthAge.MatchString(lower) ||
		healthBare.MatchString(lower)
}

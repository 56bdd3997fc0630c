/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package intake turns lab reports, transcripts and wearable summaries
// into stored observations.
package intake

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/db"
	"github.com/humaidq/baseline/extract"
)

// DefaultTimeout bounds a single extraction service call.
const DefaultTimeout = 8 * time.Second

// LocalMessage is reported when the deterministic extractors were used.
const LocalMessage = "Extracted locally (offline mode)"

// Status says which extractor produced a result.
type Status string

const (
	StatusService Status = "service"
	StatusLocal   Status = "local"
)

// Extractor is an extraction backend, either the remote service or a
// local model.
type Extractor interface {
	ParseVoice(ctx context.Context, transcript string) (extract.ServiceVoice, error)
	ParseLab(ctx context.Context, text, formatHint string) (extract.ServiceLab, error)
}

// Result describes one ingestion.
type Result struct {
	ImportID string             `json:"import_id,omitempty"`
	Status   Status             `json:"status"`
	Message  string             `json:"message,omitempty"`
	Stored   int                `json:"stored"`
	Metrics  []biomarker.Metric `json:"metrics"`
}

// Pipeline ingests extracted data into a store.
type Pipeline struct {
	store     db.Store
	extractor Extractor
	timeout   time.Duration
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithExtractor sets the extraction backend tried before the local
// extractors. A nil extractor means local only.
func WithExtractor(e Extractor) Option {
	return func(p *Pipeline) {
		p.extractor = e
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// NewPipeline returns a pipeline writing to store.
func NewPipeline(store db.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   store,
		timeout: DefaultTimeout,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ExtractLab runs the lab extractors without storing anything.
func (p *Pipeline) ExtractLab(ctx context.Context, text, formatHint string) (extract.LabReport, Status) {
	local := extract.ParseLabReport(text)
	if p.extractor == nil {
		return local, StatusLocal
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	svc, err := p.extractor.ParseLab(callCtx, text, formatHint)
	if err != nil {
		logger.Warn("Lab extraction service unavailable, using local extraction", "error", err)
		return local, StatusLocal
	}

	return extract.ReconcileLab(svc, local), StatusService
}

// ExtractVoice runs the voice extractors without storing anything. The
// service result only contributes what the agreement gate accepts.
func (p *Pipeline) ExtractVoice(ctx context.Context, transcript string) (extract.VoiceIntake, Status) {
	regex := extract.ExtractVoiceIntake(transcript)
	if p.extractor == nil {
		return regex, StatusLocal
	}

	if !extract.HasHealthSignal(extract.NewSession(), transcript) {
		logger.Debug("Transcript has no health signal, skipping service")
		return regex, StatusLocal
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	svc, err := p.extractor.ParseVoice(callCtx, transcript)
	if err != nil {
		logger.Warn("Voice extraction service unavailable, using local extraction", "error", err)
		return regex, StatusLocal
	}

	return union(regex, extract.Reconcile(svc, regex)), StatusService
}

// ImportLab extracts and stores a lab report. filename may be empty.
func (p *Pipeline) ImportLab(ctx context.Context, filename, text string) (Result, error) {
	report, status := p.ExtractLab(ctx, text, "")

	now := p.now()
	date := biomarker.Date(now)
	if report.DrawDate != nil {
		date = biomarker.Date(*report.DrawDate)
	}

	obs := make([]biomarker.Observation, 0, len(report.Results))
	for _, metric := range sortedMetrics(report.Values()) {
		r := report.Results[metric]

		o := biomarker.Observation{
			Metric: metric,
			Value:  r.Value,
			Date:   biomarker.Ptr(date),
			Source: biomarker.SourceLabPDF,
		}
		if r.Unit != "" {
			o.Unit = biomarker.Ptr(r.Unit)
		}

		obs = append(obs, o)
	}

	imp := biomarker.Import{
		SourceType: biomarker.SourceLabPDF,
		DrawDate:   report.DrawDate,
		Fasting:    report.Fasting,
	}
	if filename != "" {
		imp.Filename = biomarker.Ptr(filename)
	}

	return p.commit(ctx, imp, obs, status)
}

// ImportVoice extracts and stores a transcript. Age and sex update the
// demographics record; vitals, flags and spoken lab values become
// observations.
func (p *Pipeline) ImportVoice(ctx context.Context, transcript string) (Result, extract.VoiceIntake, error) {
	v, status := p.ExtractVoice(ctx, transcript)

	if err := p.saveDemographics(ctx, v); err != nil {
		return Result{}, v, err
	}

	date := biomarker.Ptr(biomarker.Date(p.now()))
	obs := voiceObservations(v, date)

	res, err := p.commit(ctx, biomarker.Import{SourceType: biomarker.SourceVoice}, obs, status)

	return res, v, err
}

// ImportValues stores already-summarised values, such as wearable
// summaries or manual entries, dated at date.
func (p *Pipeline) ImportValues(ctx context.Context, source biomarker.Source, filename string, date time.Time, values map[biomarker.Metric]float64) (Result, error) {
	d := biomarker.Ptr(biomarker.Date(date))

	obs := make([]biomarker.Observation, 0, len(values))
	for _, metric := range sortedMetrics(values) {
		obs = append(obs, biomarker.Observation{
			Metric: metric,
			Value:  values[metric],
			Date:   d,
			Source: source,
			Unit:   unitFor(metric),
		})
	}

	imp := biomarker.Import{SourceType: source, DrawDate: d}
	if filename != "" {
		imp.Filename = biomarker.Ptr(filename)
	}

	return p.commit(ctx, imp, obs, StatusLocal)
}

// commit appends observations and then records the import. Nothing is
// written when there are no observations.
func (p *Pipeline) commit(ctx context.Context, imp biomarker.Import, obs []biomarker.Observation, status Status) (Result, error) {
	res := Result{Status: status}
	if status == StatusLocal {
		res.Message = LocalMessage
	}

	if p.store == nil {
		return res, ErrStoreNotConfigured
	}

	if len(obs) == 0 {
		logger.Info("Nothing extracted", "source_type", imp.SourceType)
		return res, nil
	}

	now := p.now()
	imp.ID = biomarker.NewImportID(now)
	imp.ImportedAt = now

	seen := make(map[biomarker.Metric]bool, len(obs))
	for i := range obs {
		obs[i].ImportID = biomarker.Ptr(imp.ID)
		if !seen[obs[i].Metric] {
			seen[obs[i].Metric] = true
			imp.MetricsExtracted = append(imp.MetricsExtracted, obs[i].Metric)
		}
	}

	stored, err := p.store.Append(ctx, obs)
	if err != nil {
		return res, fmt.Errorf("failed to append observations: %w", err)
	}

	res.ImportID = imp.ID
	res.Stored = stored
	res.Metrics = imp.MetricsExtracted

	if err := p.store.SaveImport(ctx, imp); err != nil {
		logger.Error("Stored observations without import record", "import_id", imp.ID, "error", err)
		return res, fmt.Errorf("%w: %w", ErrPartialImport, err)
	}

	logger.Info("Imported observations", "import_id", imp.ID, "source_type", imp.SourceType, "stored", stored, "status", status)

	return res, nil
}

func (p *Pipeline) saveDemographics(ctx context.Context, v extract.VoiceIntake) error {
	if v.Age == nil && v.Sex == nil {
		return nil
	}

	if p.store == nil {
		return ErrStoreNotConfigured
	}

	current, err := p.store.Demographics(ctx)
	if err != nil {
		return fmt.Errorf("failed to load demographics: %w", err)
	}

	var demo biomarker.Demographics
	if current != nil {
		demo = *current
	}

	if v.Age != nil {
		demo.Age = *v.Age
	}

	if v.Sex != nil {
		demo.Sex = *v.Sex
	}

	if current != nil && demo == *current {
		return nil
	}

	if err := p.store.SaveDemographics(ctx, demo); err != nil {
		return fmt.Errorf("failed to save demographics: %w", err)
	}

	return nil
}

func voiceObservations(v extract.VoiceIntake, date *time.Time) []biomarker.Observation {
	values := make(map[biomarker.Metric]float64)

	if v.Systolic != nil && v.Diastolic != nil {
		values[biomarker.Systolic] = float64(*v.Systolic)
		values[biomarker.Diastolic] = float64(*v.Diastolic)
	}

	if v.Waist != nil {
		values[biomarker.WaistCircumference] = *v.Waist
	}

	if v.Weight != nil {
		values[biomarker.WeightLbs] = *v.Weight
	}

	if v.FamilyHistory != nil {
		values[biomarker.HasFamilyHistory] = boolValue(*v.FamilyHistory)
	}

	if v.HasMedications != nil {
		values[biomarker.HasMedicationList] = boolValue(*v.HasMedications)
	}

	for metric, value := range biomarker.FilterPlausible(v.Labs) {
		values[metric] = value
	}

	obs := make([]biomarker.Observation, 0, len(values))
	for _, metric := range sortedMetrics(values) {
		obs = append(obs, biomarker.Observation{
			Metric: metric,
			Value:  values[metric],
			Date:   date,
			Source: biomarker.SourceVoice,
			Unit:   unitFor(metric),
		})
	}

	return obs
}

// union overlays the gate-accepted service fields on the regex result.
func union(regex, accepted extract.VoiceIntake) extract.VoiceIntake {
	out := regex

	if accepted.Age != nil {
		out.Age = accepted.Age
	}
	if accepted.Sex != nil {
		out.Sex = accepted.Sex
	}
	if accepted.HeightFt != nil {
		out.HeightFt = accepted.HeightFt
		out.HeightIn = accepted.HeightIn
	}
	if accepted.Weight != nil {
		out.Weight = accepted.Weight
	}
	if accepted.Systolic != nil {
		out.Systolic = accepted.Systolic
		out.Diastolic = accepted.Diastolic
	}
	if accepted.Waist != nil {
		out.Waist = accepted.Waist
	}
	if accepted.HasMedications != nil {
		out.HasMedications = accepted.HasMedications
		out.MedicationText = accepted.MedicationText
	}
	if accepted.FamilyHistory != nil {
		out.FamilyHistory = accepted.FamilyHistory
	}

	out.NoLabs = out.NoLabs || accepted.NoLabs
	out.HasLabs = out.HasLabs || accepted.HasLabs

	if len(accepted.Labs) > 0 {
		out.Labs = accepted.Labs
	}

	return out
}

func sortedMetrics(values map[biomarker.Metric]float64) []biomarker.Metric {
	metrics := make([]biomarker.Metric, 0, len(values))
	for m := range values {
		metrics = append(metrics, m)
	}

	slices.Sort(metrics)

	return metrics
}

func unitFor(m biomarker.Metric) *string {
	if u := m.DefaultUnit(); u != "" {
		return biomarker.Ptr(u)
	}

	return nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}

	return 0
}

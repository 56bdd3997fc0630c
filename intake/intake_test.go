// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/db"
	"github.com/humaidq/baseline/extract"
)

var testNow = time.Date(2024, time.October, 15, 12, 0, 0, 0, time.UTC)

const labText = `Collected: 03/02/2024
LDL Cholesterol Calc 118 mg/dL (ref 0-130)`

const voiceText = "35 male 5'10 195 lbs blood pressure 110 over 70 waist is 36 family history of cardiac disease"

type fakeExtractor struct {
	voice func(ctx context.Context, transcript string) (extract.ServiceVoice, error)
	lab   func(ctx context.Context, text, hint string) (extract.ServiceLab, error)
}

func (f fakeExtractor) ParseVoice(ctx context.Context, transcript string) (extract.ServiceVoice, error) {
	return f.voice(ctx, transcript)
}

func (f fakeExtractor) ParseLab(ctx context.Context, text, hint string) (extract.ServiceLab, error) {
	return f.lab(ctx, text, hint)
}

func blockingExtractor() fakeExtractor {
	return fakeExtractor{
		voice: func(ctx context.Context, _ string) (extract.ServiceVoice, error) {
			<-ctx.Done()
			return extract.ServiceVoice{}, ctx.Err()
		},
		lab: func(ctx context.Context, _, _ string) (extract.ServiceLab, error) {
			<-ctx.Done()
			return extract.ServiceLab{}, ctx.Err()
		},
	}
}

type failingImportStore struct {
	*db.MemoryStore
}

func (failingImportStore) SaveImport(context.Context, biomarker.Import) error {
	return errors.New("disk full")
}

func newStore(t *testing.T) *db.MemoryStore {
	t.Helper()

	s, err := db.NewMemoryStore("")
	if err != nil {
		t.Fatalf("NewMemoryStore returned error: %v", err)
	}

	return s
}

func latest(t *testing.T, s db.Store, m biomarker.Metric) *biomarker.Observation {
	t.Helper()

	o, err := s.Latest(context.Background(), m)
	if err != nil {
		t.Fatalf("Latest(%s) returned error: %v", m, err)
	}

	return o
}

func TestImportLabLocal(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	p := NewPipeline(s, WithClock(func() time.Time { return testNow }))

	res, err := p.ImportLab(context.Background(), "quest.txt", labText)
	if err != nil {
		t.Fatalf("ImportLab returned error: %v", err)
	}

	if res.Status != StatusLocal || res.Message != LocalMessage || res.Stored != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	o := latest(t, s, biomarker.LDL)
	if o == nil || o.Value != 118 || o.Source != biomarker.SourceLabPDF {
		t.Fatalf("unexpected ldl observation %+v", o)
	}

	if o.Date == nil || !o.Date.Equal(time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected draw date, got %v", o.Date)
	}

	imports, err := s.ListImports(context.Background())
	if err != nil || len(imports) != 1 {
		t.Fatalf("expected one import, got %d (%v)", len(imports), err)
	}

	imp := imports[0]
	if imp.ID != res.ImportID || imp.Filename == nil || *imp.Filename != "quest.txt" || o.ImportID == nil || *o.ImportID != imp.ID {
		t.Fatalf("unexpected import %+v", imp)
	}

	if len(imp.MetricsExtracted) != 1 || imp.MetricsExtracted[0] != biomarker.LDL {
		t.Fatalf("unexpected metrics %v", imp.MetricsExtracted)
	}
}

func TestImportLabServiceMerged(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ext := fakeExtractor{
		lab: func(_ context.Context, _, _ string) (extract.ServiceLab, error) {
			return extract.ServiceLab{
				Fasting:    biomarker.Ptr(false),
				Biomarkers: map[string]float64{"hdl_c": 55, "apob": 5000},
			}, nil
		},
	}
	p := NewPipeline(s, WithExtractor(ext), WithClock(func() time.Time { return testNow }))

	res, err := p.ImportLab(context.Background(), "", labText)
	if err != nil {
		t.Fatalf("ImportLab returned error: %v", err)
	}

	if res.Status != StatusService || res.Message != "" || res.Stored != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	if o := latest(t, s, biomarker.HDL); o == nil || o.Value != 55 {
		t.Fatalf("expected service hdl, got %+v", o)
	}

	if o := latest(t, s, biomarker.ApoB); o != nil {
		t.Fatalf("expected implausible apob dropped, got %+v", o)
	}

	imports, _ := s.ListImports(context.Background())
	if len(imports) != 1 || imports[0].Fasting == nil || *imports[0].Fasting {
		t.Fatalf("expected non-fasting import, got %+v", imports)
	}
}

func TestImportFallsBackOnTimeout(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	p := NewPipeline(s, WithExtractor(blockingExtractor()), WithTimeout(10*time.Millisecond))

	res, err := p.ImportLab(context.Background(), "", labText)
	if err != nil {
		t.Fatalf("ImportLab returned error: %v", err)
	}

	if res.Status != StatusLocal || res.Stored != 1 {
		t.Fatalf("expected local fallback, got %+v", res)
	}

	res, _, err = p.ImportVoice(context.Background(), voiceText)
	if err != nil {
		t.Fatalf("ImportVoice returned error: %v", err)
	}

	if res.Status != StatusLocal {
		t.Fatalf("expected local fallback, got %+v", res)
	}
}

func TestImportVoiceLocal(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	if err := s.SaveDemographics(context.Background(), biomarker.Demographics{Age: 30, Sex: biomarker.SexFemale, Ethnicity: "asian"}); err != nil {
		t.Fatalf("SaveDemographics returned error: %v", err)
	}

	p := NewPipeline(s, WithClock(func() time.Time { return testNow }))

	res, v, err := p.ImportVoice(context.Background(), voiceText)
	if err != nil {
		t.Fatalf("ImportVoice returned error: %v", err)
	}

	if v.Age == nil || *v.Age != 35 {
		t.Fatalf("unexpected extraction %+v", v)
	}

	if res.Stored != 5 {
		t.Fatalf("expected 5 observations, got %+v", res)
	}

	want := map[biomarker.Metric]float64{
		biomarker.Systolic:           110,
		biomarker.Diastolic:          70,
		biomarker.WaistCircumference: 36,
		biomarker.WeightLbs:          195,
		biomarker.HasFamilyHistory:   1,
	}

	for metric, value := range want {
		o := latest(t, s, metric)
		if o == nil || o.Value != value || o.Source != biomarker.SourceVoice {
			t.Fatalf("%s: expected %v, got %+v", metric, value, o)
		}

		if o.Date == nil || !o.Date.Equal(biomarker.Date(testNow)) {
			t.Fatalf("%s: expected today's date, got %v", metric, o.Date)
		}
	}

	demo, err := s.Demographics(context.Background())
	if err != nil || demo == nil {
		t.Fatalf("expected demographics, got %v (%v)", demo, err)
	}

	if demo.Age != 35 || demo.Sex != biomarker.SexMale || demo.Ethnicity != "asian" {
		t.Fatalf("unexpected demographics %+v", demo)
	}
}

func TestImportVoiceServiceFlags(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ext := fakeExtractor{
		voice: func(_ context.Context, _ string) (extract.ServiceVoice, error) {
			return extract.ServiceVoice{
				Age:            biomarker.Ptr(35),
				HasMedications: biomarker.Ptr(true),
				MedicationText: biomarker.Ptr("statin"),
			}, nil
		},
	}
	p := NewPipeline(s, WithExtractor(ext))

	res, v, err := p.ImportVoice(context.Background(), voiceText)
	if err != nil {
		t.Fatalf("ImportVoice returned error: %v", err)
	}

	if res.Status != StatusService || res.Stored != 6 {
		t.Fatalf("unexpected result %+v", res)
	}

	if v.Weight == nil || *v.Weight != 195 {
		t.Fatalf("expected regex weight kept, got %+v", v)
	}

	if o := latest(t, s, biomarker.HasMedicationList); o == nil || o.Value != 1 {
		t.Fatalf("expected medication flag, got %+v", o)
	}
}

func TestImportVoiceKeepsRegexOverImplausibleService(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ext := fakeExtractor{
		voice: func(_ context.Context, _ string) (extract.ServiceVoice, error) {
			return extract.ServiceVoice{
				Age:       biomarker.Ptr(350),
				WeightLbs: biomarker.Ptr(9000.0),
				Systolic:  biomarker.Ptr(900),
				Diastolic: biomarker.Ptr(950),
			}, nil
		},
	}
	p := NewPipeline(s, WithExtractor(ext))

	res, _, err := p.ImportVoice(context.Background(), voiceText)
	if err != nil {
		t.Fatalf("ImportVoice returned error: %v", err)
	}

	if res.Status != StatusService || res.Stored != 5 {
		t.Fatalf("unexpected result %+v", res)
	}

	want := map[biomarker.Metric]float64{
		biomarker.WeightLbs: 195,
		biomarker.Systolic:  110,
		biomarker.Diastolic: 70,
	}
	for metric, value := range want {
		if o := latest(t, s, metric); o == nil || o.Value != value {
			t.Fatalf("expected %s=%v, got %+v", metric, value, o)
		}
	}

	demo, err := s.Demographics(context.Background())
	if err != nil || demo == nil || demo.Age != 35 {
		t.Fatalf("expected age 35 kept, got %+v (%v)", demo, err)
	}
}

func TestImportNothingExtracted(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	p := NewPipeline(s)

	res, err := p.ImportLab(context.Background(), "", "page 1 of 2")
	if err != nil {
		t.Fatalf("ImportLab returned error: %v", err)
	}

	if res.Stored != 0 || res.ImportID != "" {
		t.Fatalf("expected empty result, got %+v", res)
	}

	imports, _ := s.ListImports(context.Background())
	if len(imports) != 0 {
		t.Fatalf("expected no imports, got %d", len(imports))
	}
}

func TestImportPartialFailure(t *testing.T) {
	t.Parallel()

	mem := newStore(t)
	p := NewPipeline(failingImportStore{mem})

	res, err := p.ImportLab(context.Background(), "", labText)
	if !errors.Is(err, ErrPartialImport) {
		t.Fatalf("expected ErrPartialImport, got %v", err)
	}

	if res.Stored != 1 || latest(t, mem, biomarker.LDL) == nil {
		t.Fatalf("expected observations kept, got %+v", res)
	}
}

func TestImportValues(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	p := NewPipeline(s)

	res, err := p.ImportValues(context.Background(), biomarker.SourceWearable, "garmin.csv", testNow, map[biomarker.Metric]float64{
		biomarker.RestingHR:     52.4,
		biomarker.DailyStepsAvg: 9100,
	})
	if err != nil {
		t.Fatalf("ImportValues returned error: %v", err)
	}

	if res.Stored != 2 || len(res.Metrics) != 2 || res.Metrics[0] != biomarker.DailyStepsAvg {
		t.Fatalf("unexpected result %+v", res)
	}

	o := latest(t, s, biomarker.RestingHR)
	if o == nil || o.Unit == nil || *o.Unit != "bpm" || o.Source != biomarker.SourceWearable {
		t.Fatalf("unexpected resting hr %+v", o)
	}
}

func TestNilStore(t *testing.T) {
	t.Parallel()

	p := NewPipeline(nil)
	if _, err := p.ImportLab(context.Background(), "", labText); !errors.Is(err, ErrStoreNotConfigured) {
		t.Fatalf("expected ErrStoreNotConfigured, got %v", err)
	}
}

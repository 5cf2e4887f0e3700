package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/phishguard/phishguard/internal/analysis"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTrustStore struct {
	snapshot     *core.BehaviorSnapshot
	snapshotErr  error
	interactions []string
}

func (f *fakeTrustStore) IsSenderTrusted(ctx context.Context, sender string) (bool, error) {
	return false, nil
}

func (f *fakeTrustStore) GetBehaviorSnapshot(ctx context.Context, sender string) (*core.BehaviorSnapshot, error) {
	return f.snapshot, f.snapshotErr
}

func (f *fakeTrustStore) RecordInteraction(ctx context.Context, sender, domain, verdict string) error {
	f.interactions = append(f.interactions, sender+"/"+verdict)
	return nil
}

type fakeClassifier struct {
	output *core.MLOutput
	err    error
	calls  int
}

func (f *fakeClassifier) ClassifyEmail(ctx context.Context, email *core.EmailInput) (*core.MLOutput, error) {
	f.calls++
	return f.output, f.err
}

type fakeHistory struct {
	saved []*core.ScanRecord
}

func (f *fakeHistory) SaveScan(ctx context.Context, rec *core.ScanRecord) error {
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeHistory) RecentScans(ctx context.Context, limit int) ([]core.ScanRecord, error) {
	out := make([]core.ScanRecord, 0, len(f.saved))
	for _, rec := range f.saved {
		out = append(out, *rec)
	}
	return out, nil
}

func (f *fakeHistory) Close() error { return nil }

func newTestService(trust *fakeTrustStore, ml core.MLClassifier, hist *fakeHistory, whitelisted []string) *Service {
	engine := analysis.NewEngine(analysis.DefaultConfig())
	return NewService(engine, trust, ml, hist, zap.NewNop(), whitelisted)
}

func TestService_WhitelistBypass(t *testing.T) {
	trust := &fakeTrustStore{}
	ml := &fakeClassifier{}
	hist := &fakeHistory{}
	svc := newTestService(trust, ml, hist, []string{"corp.example"})

	result, err := svc.AnalyzeEmail(context.Background(), &core.EmailInput{
		From:    "ceo@corp.example",
		Subject: "URGENT: verify your account immediately",
		Body:    "Click http://bit.ly/x to confirm your password",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, core.RiskLow, result.RiskLevel)
	assert.Equal(t, 0, ml.calls, "whitelisted senders should not reach the classifier")
	assert.Empty(t, hist.saved, "whitelisted emails are not persisted")
}

func TestService_FullPipeline(t *testing.T) {
	trust := &fakeTrustStore{}
	ml := &fakeClassifier{output: &core.MLOutput{Score: 90, Confidence: 0.95, ModelUsed: "test-model"}}
	hist := &fakeHistory{}
	svc := newTestService(trust, ml, hist, nil)

	result, err := svc.AnalyzeEmail(context.Background(), &core.EmailInput{
		From:    "security@paypa1.com",
		Subject: "Your account has been suspended",
		Body:    "Verify your password at http://bit.ly/verify now or your account will be closed.",
	})
	require.NoError(t, err)

	assert.Equal(t, core.RiskHigh, result.RiskLevel)
	assert.Equal(t, 1, ml.calls)

	require.Len(t, hist.saved, 1)
	rec := hist.saved[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, result.Score, rec.RiskScore)
	assert.Equal(t, string(result.RiskLevel), rec.Verdict)
	assert.Equal(t, 0.95, rec.MLConfidence)
	assert.NotEmpty(t, rec.Links, "shortener URL should be recorded as a link")
}

func TestService_TrustStoreFailureIsNotFatal(t *testing.T) {
	trust := &fakeTrustStore{snapshotErr: errors.New("store offline")}
	hist := &fakeHistory{}
	svc := newTestService(trust, nil, hist, nil)

	result, err := svc.AnalyzeEmail(context.Background(), &core.EmailInput{
		From:    "someone@example.com",
		Subject: "hello",
		Body:    "see you at the meeting tomorrow",
	})
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestService_ClassifierFailureIsNotFatal(t *testing.T) {
	trust := &fakeTrustStore{}
	ml := &fakeClassifier{err: errors.New("model timeout")}
	hist := &fakeHistory{}
	svc := newTestService(trust, ml, hist, nil)

	result, err := svc.AnalyzeEmail(context.Background(), &core.EmailInput{
		From:    "someone@example.com",
		Subject: "hello",
		Body:    "see you at the meeting tomorrow",
	})
	require.NoError(t, err)
	assert.NotNil(t, result)

	require.Len(t, hist.saved, 1)
	assert.Zero(t, hist.saved[0].MLConfidence)
}

func TestService_EmptyEmailPropagatesError(t *testing.T) {
	svc := newTestService(&fakeTrustStore{}, nil, &fakeHistory{}, nil)

	_, err := svc.AnalyzeEmail(context.Background(), &core.EmailInput{From: "a@b.com"})
	assert.ErrorIs(t, err, core.ErrEmptyEmail)
}

func TestService_MarkSender(t *testing.T) {
	trust := &fakeTrustStore{}
	svc := newTestService(trust, nil, &fakeHistory{}, nil)
	ctx := context.Background()

	require.NoError(t, svc.MarkSenderSafe(ctx, "alice@example.com"))
	require.NoError(t, svc.MarkSenderPhishing(ctx, "mallory@evil.com"))
	require.NoError(t, svc.MarkSenderSuspicious(ctx, "bob@example.com"))

	assert.Equal(t, []string{
		"alice@example.com/safe",
		"mallory@evil.com/phishing",
		"bob@example.com/suspicious",
	}, trust.interactions)
}

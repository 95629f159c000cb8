package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfsouza/textfix/config"
	"rfsouza/textfix/correct"
	"rfsouza/textfix/platform"
	"rfsouza/textfix/storage"
)

type fakeClipboard struct {
	mu     sync.Mutex
	text   string
	getErr error
	setErr error
	sets   int
}

func (c *fakeClipboard) Get() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, c.getErr
}

func (c *fakeClipboard) Set(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.text = text
	c.sets++
	return nil
}

func (c *fakeClipboard) current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

type fakePaster struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *fakePaster) Paste() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func (p *fakePaster) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type notification struct {
	level   platform.Level
	title   string
	message string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) Notify(level platform.Level, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{level, title, message})
	return nil
}

func (n *fakeNotifier) byLevel(level platform.Level) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification
	for _, s := range n.sent {
		if s.level == level {
			out = append(out, s)
		}
	}
	return out
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type stubCorrector struct {
	mu      sync.Mutex
	calls   int
	fn      func(ctx context.Context, req correct.Request) (correct.Result, error)
	block   chan struct{}
	started chan struct{}
}

func (s *stubCorrector) Correct(ctx context.Context, req correct.Request) (correct.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	if s.fn != nil {
		return s.fn(ctx, req)
	}
	return correct.Result{Original: req.Text, Corrected: req.Text, Attempts: 1}, nil
}

func (s *stubCorrector) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeHotkey struct {
	mu       sync.Mutex
	triggers chan struct{}
	rebinds  []platform.KeyCombo
}

func newFakeHotkey() *fakeHotkey {
	return &fakeHotkey{triggers: make(chan struct{}, 4)}
}

func (h *fakeHotkey) Listen(ctx context.Context, combo platform.KeyCombo) (<-chan struct{}, error) {
	return h.triggers, nil
}

func (h *fakeHotkey) Rebind(combo platform.KeyCombo) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rebinds = append(h.rebinds, combo)
	return nil
}

func (h *fakeHotkey) reboundTo() []platform.KeyCombo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]platform.KeyCombo(nil), h.rebinds...)
}

type statusEvent struct {
	id     string
	status string
}

type fakeSink struct {
	mu       sync.Mutex
	statuses []statusEvent
	saved    []*storage.Correction
}

func (s *fakeSink) CorrectionStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, statusEvent{id, status})
}

func (s *fakeSink) CorrectionSaved(c *storage.Correction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, c)
}

func (s *fakeSink) statusList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.statuses))
	for i, e := range s.statuses {
		out[i] = e.status
	}
	return out
}

type agentFixture struct {
	agent     *Agent
	store     *config.Store
	clipboard *fakeClipboard
	paster    *fakePaster
	notifier  *fakeNotifier
	corrector *stubCorrector
	hotkey    *fakeHotkey
	sink      *fakeSink
}

func newAgentFixture(t *testing.T, mutate func(*config.Config)) *agentFixture {
	t.Helper()

	cfg := &config.Config{
		Hotkey: config.HotkeyConfig{Combo: "ctrl+shift+c"},
		Correction: config.CorrectionConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			Language:          config.LangPortuguese,
			APIKey:            "test-key",
			AutoPaste:         true,
			ShowNotifications: true,
			TimeoutSeconds:    5,
			MaxRetries:        0,
			MaxTextLength:     10000,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	f := &agentFixture{
		store:     config.NewStore(cfg),
		clipboard: &fakeClipboard{},
		paster:    &fakePaster{},
		notifier:  &fakeNotifier{},
		corrector: &stubCorrector{},
		hotkey:    newFakeHotkey(),
		sink:      &fakeSink{},
	}

	f.agent = &Agent{
		store:     f.store,
		hotkey:    f.hotkey,
		clipboard: f.clipboard,
		paster:    f.paster,
		notifier:  f.notifier,
		service:   f.corrector,
		status:    f.sink,
	}
	return f
}

func TestTriggerCorrectionSuccess(t *testing.T) {
	f := newAgentFixture(t, nil)
	f.clipboard.text = "Eu vai na loja"
	f.corrector.fn = func(ctx context.Context, req correct.Request) (correct.Result, error) {
		assert.Equal(t, "Eu vai na loja", req.Text)
		assert.Equal(t, config.LangPortuguese, req.Language)
		return correct.Result{
			Original:  req.Text,
			Corrected: "Eu vou à loja.",
			Provider:  "openai",
			Attempts:  1,
		}, nil
	}

	f.agent.TriggerCorrection(context.Background())

	assert.Equal(t, "Eu vou à loja.", f.clipboard.current())
	assert.Equal(t, 1, f.paster.count())
	assert.Equal(t, []string{"busy", "done"}, f.sink.statusList())

	success := f.notifier.byLevel(platform.LevelSuccess)
	require.Len(t, success, 1)
	assert.Contains(t, success[0].message, "Eu vou à loja.")
	assert.Empty(t, f.notifier.byLevel(platform.LevelError))
}

func TestTriggerCorrectionEmptyClipboard(t *testing.T) {
	f := newAgentFixture(t, nil)
	f.clipboard.text = "   \n"

	f.agent.TriggerCorrection(context.Background())

	assert.Zero(t, f.corrector.count(), "provider must not be called for an empty clipboard")
	assert.Empty(t, f.sink.statusList())

	info := f.notifier.byLevel(platform.LevelInfo)
	require.Len(t, info, 1)
	assert.Contains(t, info[0].message, "empty")
}

func TestTriggerCorrectionClipboardReadFault(t *testing.T) {
	f := newAgentFixture(t, nil)
	f.clipboard.getErr = assert.AnError

	f.agent.TriggerCorrection(context.Background())

	assert.Zero(t, f.corrector.count())
	require.Len(t, f.notifier.byLevel(platform.LevelInfo), 1)
}

func TestTriggerCorrectionFailureLeavesClipboardUntouched(t *testing.T) {
	f := newAgentFixture(t, nil)
	f.clipboard.text = "original text"
	f.corrector.fn = func(ctx context.Context, req correct.Request) (correct.Result, error) {
		return correct.Result{}, &correct.Error{Kind: correct.KindAuth, Message: "bad key"}
	}

	f.agent.TriggerCorrection(context.Background())

	assert.Equal(t, "original text", f.clipboard.current())
	assert.Zero(t, f.clipboard.sets)
	assert.Zero(t, f.paster.count())
	assert.Equal(t, []string{"busy", "error"}, f.sink.statusList())

	errs := f.notifier.byLevel(platform.LevelError)
	require.Len(t, errs, 1, "exactly one error notification per failed cycle")
	assert.Contains(t, errs[0].message, "API key")
}

func TestTriggerCorrectionDropsConcurrentTriggers(t *testing.T) {
	f := newAgentFixture(t, nil)
	f.clipboard.text = "some text"
	f.corrector.block = make(chan struct{})
	f.corrector.started = make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		f.agent.TriggerCorrection(context.Background())
		close(done)
	}()

	<-f.corrector.started

	// A second trigger while the first is in flight is a no-op.
	f.agent.TriggerCorrection(context.Background())
	assert.Equal(t, 1, f.corrector.count())

	close(f.corrector.block)
	<-done

	// The guard clears once the cycle finishes.
	f.agent.TriggerCorrection(context.Background())
	assert.Equal(t, 2, f.corrector.count())
}

func TestTriggerCorrectionGuardClearsAfterFailure(t *testing.T) {
	f := newAgentFixture(t, nil)
	f.clipboard.text = "some text"
	f.corrector.fn = func(ctx context.Context, req correct.Request) (correct.Result, error) {
		return correct.Result{}, &correct.Error{Kind: correct.KindTimeout, Message: "deadline"}
	}

	f.agent.TriggerCorrection(context.Background())
	f.agent.TriggerCorrection(context.Background())

	assert.Equal(t, 2, f.corrector.count())
}

func TestTriggerCorrectionNotificationsDisabled(t *testing.T) {
	f := newAgentFixture(t, func(cfg *config.Config) {
		cfg.Correction.ShowNotifications = false
	})
	f.clipboard.text = "some text"

	f.agent.TriggerCorrection(context.Background())

	assert.Zero(t, f.notifier.count())
	assert.Equal(t, 1, f.clipboard.sets, "correction still runs with notifications off")
}

func TestTriggerCorrectionAutoPasteDisabled(t *testing.T) {
	f := newAgentFixture(t, func(cfg *config.Config) {
		cfg.Correction.AutoPaste = false
	})
	f.clipboard.text = "some text"

	f.agent.TriggerCorrection(context.Background())

	assert.Zero(t, f.paster.count())
	assert.Equal(t, 1, f.clipboard.sets)
}

func TestTriggerCorrectionPasteFailureKeepsClipboard(t *testing.T) {
	f := newAgentFixture(t, nil)
	f.clipboard.text = "some text"
	f.paster.err = assert.AnError
	f.corrector.fn = func(ctx context.Context, req correct.Request) (correct.Result, error) {
		return correct.Result{Original: req.Text, Corrected: "Fixed.", Attempts: 1}, nil
	}

	f.agent.TriggerCorrection(context.Background())

	// Paste failure is not a correction failure.
	assert.Equal(t, "Fixed.", f.clipboard.current())
	assert.Equal(t, []string{"busy", "done"}, f.sink.statusList())

	success := f.notifier.byLevel(platform.LevelSuccess)
	require.Len(t, success, 1)
	assert.Contains(t, success[0].message, "copied to clipboard")
}

func TestTriggerCorrectionClipboardWriteFailure(t *testing.T) {
	f := newAgentFixture(t, nil)
	f.clipboard.text = "some text"
	f.clipboard.setErr = assert.AnError

	f.agent.TriggerCorrection(context.Background())

	assert.Equal(t, []string{"busy", "error"}, f.sink.statusList())
	require.Len(t, f.notifier.byLevel(platform.LevelError), 1)
	assert.Zero(t, f.paster.count())
}

func TestTriggerCorrectionConcurrentWithServiceSwap(t *testing.T) {
	f := newAgentFixture(t, nil)
	f.clipboard.text = "some text"

	// Settings changes swap the service while correction cycles read it;
	// both paths must go through the guarded accessors.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			f.agent.swapService(nil, f.corrector)
		}
	}()

	for i := 0; i < 200; i++ {
		f.agent.TriggerCorrection(context.Background())
	}
	<-done

	assert.Equal(t, 200, f.corrector.count())
}

type closableProvider struct {
	mu     sync.Mutex
	closed bool
}

func (p *closableProvider) Name() string { return "closable" }

func (p *closableProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return prompt, nil
}

func (p *closableProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *closableProvider) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func TestRebuildServiceClosesReplacedProvider(t *testing.T) {
	f := newAgentFixture(t, nil)

	old := &closableProvider{}
	f.agent.swapService(old, f.corrector)

	require.NoError(t, f.agent.rebuildService(context.Background()))
	assert.True(t, old.isClosed(), "replaced provider must release its connections")
}

func TestAgentCloseReleasesProvider(t *testing.T) {
	f := newAgentFixture(t, nil)

	p := &closableProvider{}
	f.agent.swapService(p, f.corrector)

	f.agent.Close()
	assert.True(t, p.isClosed())
}

func TestRunRebindsHotkeyOnSettingsChange(t *testing.T) {
	f := newAgentFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- f.agent.Run(ctx)
	}()

	next := f.store.Get()
	next.Hotkey.Combo = "alt+x"
	f.store.Set(&next)

	require.Eventually(t, func() bool {
		rebinds := f.hotkey.reboundTo()
		return len(rebinds) == 1 && rebinds[0] == platform.KeyCombo{Alt: true, Key: 0x58}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-runDone)
}

func TestRunIgnoresUnchangedCombo(t *testing.T) {
	f := newAgentFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- f.agent.Run(ctx)
	}()

	// Same combo, different unrelated setting: no rebind.
	next := f.store.Get()
	next.Correction.AutoPaste = false
	f.store.Set(&next)

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, f.hotkey.reboundTo())

	cancel()
	require.NoError(t, <-runDone)
}

func TestResolveComboInvalid(t *testing.T) {
	f := newAgentFixture(t, nil)
	cfg := f.store.Get()

	combo, ok := f.agent.resolveCombo(cfg, "banana")
	assert.False(t, ok)
	assert.Equal(t, platform.KeyCombo{}, combo)

	errs := f.notifier.byLevel(platform.LevelError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].message, "banana")
}

func TestSuccessMessage(t *testing.T) {
	res := correct.Result{Original: "a b", Corrected: "A, b."}
	msg := successMessage(res, false)
	assert.Contains(t, msg, "corrected and copied to clipboard")
	assert.Contains(t, msg, "A, b.")

	msg = successMessage(res, true)
	assert.Contains(t, msg, "pasted")

	same := correct.Result{Original: "Fine.", Corrected: "Fine."}
	assert.Contains(t, successMessage(same, false), "No changes needed")

	long := correct.Result{Original: "x", Corrected: repeatRune('é', 100)}
	msg = successMessage(long, false)
	assert.Contains(t, msg, "...")
	assert.LessOrEqual(t, len([]rune(msg)), 200)
}

func repeatRune(r rune, n int) string {
	rs := make([]rune, n)
	for i := range rs {
		rs[i] = r
	}
	return string(rs)
}

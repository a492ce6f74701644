package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bmc_collect/domain/entities"
	"bmc_collect/domain/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDriverKind(t *testing.T) {
	kind, err := ParseDriverKind(" Playwright ")
	require.NoError(t, err)
	assert.Equal(t, DriverPlaywright, kind)

	_, err = ParseDriverKind("puppeteer")
	assert.Error(t, err)
}

func TestParseBrowserKind(t *testing.T) {
	for in, want := range map[string]BrowserKind{"edge": BrowserEdge, "MSEdge": BrowserEdge, "chrome": BrowserChrome} {
		got, err := ParseBrowserKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBrowserKind("firefox")
	assert.Error(t, err)
}

func TestParseWindowSize(t *testing.T) {
	w, h, err := ParseWindowSize("1268x720")
	require.NoError(t, err)
	assert.Equal(t, 1268, w)
	assert.Equal(t, 720, h)

	for _, bad := range []string{"1268", "0x720", "wide x tall", "1268x-1"} {
		_, _, err := ParseWindowSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestChromiumArgs(t *testing.T) {
	opts := DefaultOptions()
	args := opts.chromiumArgs()

	assert.Contains(t, args, "--window-size=1268,720")
	assert.Contains(t, args, "--disable-gpu")
	assert.Contains(t, args, "--disable-dev-shm-usage")
	assert.NotContains(t, args, "--headless=new")
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	bad := DefaultOptions()
	bad.Driver = "cypress"
	assert.Error(t, bad.Validate())

	bad = DefaultOptions()
	bad.Width = 0
	assert.Error(t, bad.Validate())
}

func TestFindDriverOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msedgedriver")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	got, err := findDriver(BrowserEdge, path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = findDriver(BrowserEdge, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindBrowserBinaryOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msedge")
	require.NoError(t, os.WriteFile(path, nil, 0o755))
	assert.Equal(t, path, findBrowserBinary(BrowserEdge, path))
}

func TestFactoryWrapsStartupFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	f, err := NewFactory(DefaultOptions(), logger)
	require.NoError(t, err)
	assert.Equal(t, "selenium/edge", f.Name())

	f.start = func(Options, *logrus.Logger) (interfaces.Driver, error) {
		return nil, errors.New("session not created")
	}

	_, err = f.Open(context.Background())
	var sessionErr *entities.SessionCreationFailedError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, "selenium/edge", sessionErr.Driver)
	assert.ErrorContains(t, err, "session not created")
}

func TestFactoryRejectsCancelledContext(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opts := DefaultOptions()
	opts.Driver = DriverRod
	f, err := NewFactory(opts, logger)
	require.NoError(t, err)

	started := false
	f.start = func(Options, *logrus.Logger) (interfaces.Driver, error) {
		started = true
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, started)
}

func TestNewFactoryValidates(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opts := DefaultOptions()
	opts.Browser = "safari"
	_, err := NewFactory(opts, logger)
	assert.Error(t, err)
}

func TestDialogGateReturnsWhenDialogOpens(t *testing.T) {
	gate := newDialogGate()
	release := make(chan struct{})
	defer close(release)

	go func() {
		time.Sleep(10 * time.Millisecond)
		gate.signal()
	}()

	started := time.Now()
	err := gate.run(context.Background(), 0, func() error {
		<-release
		return errors.New("page frozen")
	})
	assert.NoError(t, err)
	assert.Less(t, time.Since(started), time.Second)
}

func TestDialogGateReturnsActionResult(t *testing.T) {
	gate := newDialogGate()
	boom := errors.New("element detached")

	assert.NoError(t, gate.run(context.Background(), time.Second, func() error { return nil }))
	assert.ErrorIs(t, gate.run(context.Background(), time.Second, func() error { return boom }), boom)
}

func TestDialogGateDropsStaleSignal(t *testing.T) {
	gate := newDialogGate()
	gate.signal()
	gate.signal()

	boom := errors.New("not clickable")
	err := gate.run(context.Background(), time.Second, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestDialogGateBoundsBlockedCall(t *testing.T) {
	gate := newDialogGate()
	release := make(chan struct{})
	defer close(release)

	err := gate.run(context.Background(), 20*time.Millisecond, func() error {
		<-release
		return nil
	})
	assert.ErrorContains(t, err, "did not return within 20ms")
}

func TestDialogGateHonoursContext(t *testing.T) {
	gate := newDialogGate()
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := gate.run(ctx, 0, func() error {
		<-release
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAwaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := await(ctx, func() error {
		<-release
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

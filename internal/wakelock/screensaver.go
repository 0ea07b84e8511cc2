package wakelock

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"camloop/internal/ports"
)

const (
	screenSaverDest   = "org.freedesktop.ScreenSaver"
	screenSaverPath   = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	screenSaverIface  = "org.freedesktop.ScreenSaver"
	inhibitMethod     = screenSaverIface + ".Inhibit"
	unInhibitMethod   = screenSaverIface + ".UnInhibit"
	defaultAppName    = "camloop"
	defaultReasonText = "camera preview active"
)

// Caller is the subset of a D-Bus object used to inhibit the screensaver.
type Caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// ScreenSaver inhibits display sleep through the freedesktop ScreenSaver
// D-Bus interface.
type ScreenSaver struct {
	appName string
	reason  string
	connect func() (Caller, error)
}

func NewScreenSaver(appName string, reason string) *ScreenSaver {
	return NewScreenSaverWithCaller(appName, reason, connectSessionBus)
}

// NewScreenSaverWithCaller allows a custom bus connection.
func NewScreenSaverWithCaller(appName string, reason string, connect func() (Caller, error)) *ScreenSaver {
	if appName == "" {
		appName = defaultAppName
	}
	if reason == "" {
		reason = defaultReasonText
	}
	return &ScreenSaver{appName: appName, reason: reason, connect: connect}
}

func connectSessionBus() (Caller, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return conn.Object(screenSaverDest, screenSaverPath), nil
}

func (s *ScreenSaver) RequestActive(ctx context.Context) (ports.WakeLock, error) {
	obj, err := s.connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var cookie uint32
	if err := obj.CallWithContext(ctx, inhibitMethod, 0, s.appName, s.reason).Store(&cookie); err != nil {
		return nil, fmt.Errorf("screensaver inhibit failed: %w", err)
	}
	return &inhibition{obj: obj, cookie: cookie}, nil
}

type inhibition struct {
	obj    Caller
	cookie uint32

	once sync.Once
	err  error
}

// Release uninhibits the screensaver. Only the first call has an effect.
func (i *inhibition) Release() error {
	i.once.Do(func() {
		call := i.obj.CallWithContext(context.Background(), unInhibitMethod, 0, i.cookie)
		if call.Err != nil {
			i.err = fmt.Errorf("screensaver uninhibit failed: %w", call.Err)
		}
	})
	return i.err
}

// Noop satisfies ports.WakeLockService when wake-lock handling is disabled.
type Noop struct{}

func (Noop) RequestActive(context.Context) (ports.WakeLock, error) {
	return noopLock{}, nil
}

type noopLock struct{}

func (noopLock) Release() error { return nil }

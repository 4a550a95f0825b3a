package sessionsrv

import (
	"context"
	"errors"
	"sync"

	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/sessions"
)

// fakeLibrary implementa sessions.Library con comportamiento programable
type fakeLibrary struct {
	mu sync.Mutex

	authenticated map[kernel.SessionKey]bool
	active        map[kernel.SessionKey]bool

	startErr  error
	deleteErr error
	sendErr   error
	sendID    kernel.MessageID

	// onStart corre dentro de StartSession con los callbacks de esa llamada
	onStart func(cb sessions.SessionCallbacks)

	startCalls  int
	deleteCalls int
	loadCalls   int

	lastCallbacks sessions.SessionCallbacks
	sentTo        []string
	sentTexts     []string

	globalConnecting   []func(kernel.SessionKey)
	globalConnected    []func(kernel.SessionKey)
	globalDisconnected []func(kernel.SessionKey)
	globalQRUpdated    []func(kernel.SessionKey, string)
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{
		authenticated: make(map[kernel.SessionKey]bool),
		active:        make(map[kernel.SessionKey]bool),
		sendID:        kernel.MessageID("3EB0C767D0D1A8"),
	}
}

func (f *fakeLibrary) StartSession(ctx context.Context, key kernel.SessionKey, cb sessions.SessionCallbacks) error {
	f.mu.Lock()
	f.startCalls++
	f.lastCallbacks = cb
	onStart := f.onStart
	err := f.startErr
	f.mu.Unlock()

	if err != nil {
		return err
	}
	f.mu.Lock()
	f.active[key] = true
	f.mu.Unlock()
	if onStart != nil {
		onStart(cb)
	}
	return nil
}

func (f *fakeLibrary) DeleteSession(ctx context.Context, key kernel.SessionKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.active, key)
	delete(f.authenticated, key)
	return nil
}

func (f *fakeLibrary) HasSession(key kernel.SessionKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[key]
}

func (f *fakeLibrary) IsAuthenticated(key kernel.SessionKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated[key]
}

func (f *fakeLibrary) LoadSessions(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	return nil
}

func (f *fakeLibrary) send(to, text string) (kernel.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sentTo = append(f.sentTo, to)
	f.sentTexts = append(f.sentTexts, text)
	return f.sendID, nil
}

func (f *fakeLibrary) SendText(ctx context.Context, key kernel.SessionKey, to, text string) (kernel.MessageID, error) {
	return f.send(to, text)
}

func (f *fakeLibrary) SendImage(ctx context.Context, key kernel.SessionKey, to, caption string, data []byte, mimeType string) (kernel.MessageID, error) {
	if len(data) == 0 {
		return "", errors.New("empty image payload")
	}
	return f.send(to, caption)
}

func (f *fakeLibrary) SendDocument(ctx context.Context, key kernel.SessionKey, to, caption string, data []byte, filename, mimeType string) (kernel.MessageID, error) {
	if len(data) == 0 {
		return "", errors.New("empty document payload")
	}
	return f.send(to, caption)
}

func (f *fakeLibrary) OnConnecting(fn func(kernel.SessionKey)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.globalConnecting = append(f.globalConnecting, fn)
}

func (f *fakeLibrary) OnConnected(fn func(kernel.SessionKey)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.globalConnected = append(f.globalConnected, fn)
}

func (f *fakeLibrary) OnDisconnected(fn func(kernel.SessionKey)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.globalDisconnected = append(f.globalDisconnected, fn)
}

func (f *fakeLibrary) OnQRUpdated(fn func(kernel.SessionKey, string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.globalQRUpdated = append(f.globalQRUpdated, fn)
}

// emit helpers para simular eventos de fondo en los tests

func (f *fakeLibrary) emitConnected(key kernel.SessionKey) {
	f.mu.Lock()
	fns := f.globalConnected
	f.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}

func (f *fakeLibrary) emitDisconnected(key kernel.SessionKey) {
	f.mu.Lock()
	fns := f.globalDisconnected
	f.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}

func (f *fakeLibrary) emitConnecting(key kernel.SessionKey) {
	f.mu.Lock()
	fns := f.globalConnecting
	f.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}

func (f *fakeLibrary) emitQRUpdated(key kernel.SessionKey, qr string) {
	f.mu.Lock()
	fns := f.globalQRUpdated
	f.mu.Unlock()
	for _, fn := range fns {
		fn(key, qr)
	}
}

func (f *fakeLibrary) callbacks() sessions.SessionCallbacks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCallbacks
}

func (f *fakeLibrary) counts() (starts, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls, f.deleteCalls
}

// okRenderer envuelve el payload crudo para poder asertarlo
var okRenderer = sessions.QRRendererFunc(func(raw string) (string, error) {
	return "img:" + raw, nil
})

var failRenderer = sessions.QRRendererFunc(func(raw string) (string, error) {
	return "", errors.New("png encoding failed")
})

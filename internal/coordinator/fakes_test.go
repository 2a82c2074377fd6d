package coordinator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nerrad567/blescan-node/internal/settings"
)

type attachCall struct {
	SSID   string
	Secret string
}

type fakeAttacher struct {
	mu          sync.Mutex
	attaches    []attachCall
	disconnects int
	err         error
}

func (f *fakeAttacher) Attach(ssid, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attaches = append(f.attaches, attachCall{SSID: ssid, Secret: secret})
	return f.err
}

func (f *fakeAttacher) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeAttacher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeAttacher) calls() []attachCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]attachCall(nil), f.attaches...)
}

func (f *fakeAttacher) disconnectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

type publishCall struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

type subscribeCall struct {
	Topic string
	QoS   byte
}

type fakeUplink struct {
	mu         sync.Mutex
	starts     []string
	stops      int
	publishes  []publishCall
	subscribes []subscribeCall
	nextID     uint16
}

func (f *fakeUplink) Start(uri string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, uri)
	return nil
}

func (f *fakeUplink) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeUplink) Publish(topic string, payload []byte, qos byte, retained bool) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.publishes = append(f.publishes, publishCall{Topic: topic, Payload: string(payload), QoS: qos, Retained: retained})
	return f.nextID, nil
}

func (f *fakeUplink) Subscribe(topic string, qos byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes = append(f.subscribes, subscribeCall{Topic: topic, QoS: qos})
	return nil
}

func (f *fakeUplink) published() []publishCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishCall(nil), f.publishes...)
}

func (f *fakeUplink) startURIs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.starts...)
}

func (f *fakeUplink) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

type fakeAdvertiser struct {
	mu     sync.Mutex
	starts int
	stops  int
}

func (f *fakeAdvertiser) StartAdvertising() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return nil
}

func (f *fakeAdvertiser) StopAdvertising() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

type fakeDisplay struct {
	mu    sync.Mutex
	lines [2]string
}

func (f *fakeDisplay) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = [2]string{}
}

func (f *fakeDisplay) ShowLine(line int, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines[line] = text
}

func (f *fakeDisplay) frame() [2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines
}

type sighting struct {
	Board, Name, Address string
	RSSI                 int
}

type fakeSink struct {
	mu        sync.Mutex
	sightings []sighting
}

func (f *fakeSink) RecordSighting(board, name, address string, rssi int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sightings = append(f.sightings, sighting{board, name, address, rssi})
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	store    *settings.MemoryStore
	attacher *fakeAttacher
	uplink   *fakeUplink
	adv      *fakeAdvertiser
	display  *fakeDisplay
	sink     *fakeSink
	c        *Coordinator
}

// newHarness builds a coordinator over fakes with values preloaded in the store.
func newHarness(t *testing.T, values map[string]string) *harness {
	t.Helper()
	ctx := context.Background()
	store := settings.NewMemoryStore()
	for k, v := range values {
		require.NoError(t, store.Set(ctx, k, v))
	}

	h := &harness{
		t:        t,
		ctx:      ctx,
		store:    store,
		attacher: &fakeAttacher{},
		uplink:   &fakeUplink{},
		adv:      &fakeAdvertiser{},
		display:  &fakeDisplay{},
		sink:     &fakeSink{},
	}
	h.c = New(Deps{
		Store:      store,
		Attacher:   h.attacher,
		Uplink:     h.uplink,
		Advertiser: h.adv,
		Display:    h.display,
		Sightings:  h.sink,
		Metrics:    NewMetrics(nil),
	}, Options{QueueSize: 8})
	return h
}

// boot runs the boot sequence synchronously.
func (h *harness) boot() {
	h.c.boot(h.ctx)
}

// send dispatches events synchronously, as the Run goroutine would.
func (h *harness) send(events ...Event) {
	for _, ev := range events {
		h.c.dispatch(h.ctx, ev)
	}
}

func (h *harness) get(key string) string {
	h.t.Helper()
	v, ok, err := h.store.Get(h.ctx, key)
	require.NoError(h.t, err)
	require.True(h.t, ok, "key %s not stored", key)
	return v
}

var provisioned = map[string]string{
	settings.KeySSID:      "MyWifi",
	settings.KeyPassword:  "secret123",
	settings.KeyBroker:    "mqtt://10.0.0.5",
	settings.KeyBoardName: "room1",
}

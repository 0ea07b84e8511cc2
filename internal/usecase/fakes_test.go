package usecase

import (
	"context"
	"errors"
	"sync"

	"camloop/internal/domain"
	"camloop/internal/ports"
)

// callLog records native calls across fakes so tests can assert ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

type fakeCaptureEngine struct {
	log       *callLog
	openErr   error
	startErr  error
	stopErr   error
	closeErr  error
	resources []*fakeCaptureResource
}

func (f *fakeCaptureEngine) Open(_ context.Context, deviceID string) (ports.CaptureResource, error) {
	f.log.add("video.open:" + deviceID)
	if f.openErr != nil {
		return nil, f.openErr
	}
	resource := &fakeCaptureResource{
		log:      f.log,
		deviceID: deviceID,
		startErr: f.startErr,
		stopErr:  f.stopErr,
		closeErr: f.closeErr,
		frames:   make(chan []byte),
	}
	f.resources = append(f.resources, resource)
	return resource, nil
}

func (f *fakeCaptureEngine) openResources() int {
	open := 0
	for _, r := range f.resources {
		if r.closeCalls == 0 {
			open++
		}
	}
	return open
}

type fakeCaptureResource struct {
	log        *callLog
	deviceID   string
	startErr   error
	stopErr    error
	closeErr   error
	frames     chan []byte
	stopCalls  int
	closeCalls int
}

func (f *fakeCaptureResource) StartPreview(_ context.Context) error {
	f.log.add("video.start_preview:" + f.deviceID)
	return f.startErr
}

func (f *fakeCaptureResource) StopPreview(_ context.Context) error {
	f.log.add("video.stop_preview:" + f.deviceID)
	f.stopCalls++
	return f.stopErr
}

func (f *fakeCaptureResource) Source() ports.FrameSource { return f }

func (f *fakeCaptureResource) Frames() <-chan []byte { return f.frames }

func (f *fakeCaptureResource) Close() error {
	f.log.add("video.close:" + f.deviceID)
	f.closeCalls++
	return f.closeErr
}

type fakeSink struct {
	log      *callLog
	attached ports.FrameSource
	attaches int
	detaches int
}

func (f *fakeSink) Attach(source ports.FrameSource) {
	f.log.add("sink.attach")
	f.attached = source
	f.attaches++
}

func (f *fakeSink) Detach() {
	f.log.add("sink.detach")
	f.attached = nil
	f.detaches++
}

type fakeWakeLockService struct {
	log      *callLog
	err      error
	requests int
	locks    []*fakeWakeLock
}

func (f *fakeWakeLockService) RequestActive(_ context.Context) (ports.WakeLock, error) {
	f.log.add("wake.request")
	f.requests++
	if f.err != nil {
		return nil, f.err
	}
	lock := &fakeWakeLock{log: f.log}
	f.locks = append(f.locks, lock)
	return lock, nil
}

func (f *fakeWakeLockService) releases() int {
	total := 0
	for _, l := range f.locks {
		total += l.releases
	}
	return total
}

type fakeWakeLock struct {
	log      *callLog
	releases int
}

func (f *fakeWakeLock) Release() error {
	f.log.add("wake.release")
	f.releases++
	return nil
}

// recordingDispatcher runs inline and counts handoffs.
type recordingDispatcher struct {
	mu    sync.Mutex
	calls int
}

func (d *recordingDispatcher) Run(_ context.Context, fn func()) error {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	fn()
	return nil
}

type fakeGraphService struct {
	log *callLog

	graphErr    error
	graphStatus ports.CreationStatus
	inputErr    error
	inputStatus ports.CreationStatus
	outputErr   error
	outStatus   ports.CreationStatus
	connectErr  error
	startErr    error
	stopErr     error
	closeErr    error

	graphs []*fakeGraph
}

func (f *fakeGraphService) CreateGraph(_ context.Context, settings ports.GraphSettings) (ports.AudioGraph, ports.CreationStatus, error) {
	f.log.add("graph.create")
	if f.graphErr != nil {
		return nil, "", f.graphErr
	}
	if f.graphStatus != "" && f.graphStatus != ports.CreationSuccess {
		return nil, f.graphStatus, nil
	}
	graph := &fakeGraph{svc: f, settings: settings}
	f.graphs = append(f.graphs, graph)
	return graph, ports.CreationSuccess, nil
}

func (f *fakeGraphService) liveHandles() int {
	live := 0
	for _, g := range f.graphs {
		if g.closeCalls == 0 {
			live++
		}
		for _, n := range g.nodes {
			if n.closeCalls == 0 {
				live++
			}
		}
	}
	return live
}

type fakeGraph struct {
	svc        *fakeGraphService
	settings   ports.GraphSettings
	nodes      []*fakeNode
	connected  bool
	running    bool
	stopCalls  int
	closeCalls int
}

func (g *fakeGraph) CreateDeviceInputNode(_ context.Context, deviceID string) (ports.AudioNode, ports.CreationStatus, error) {
	g.svc.log.add("graph.input:" + deviceID)
	if g.svc.inputErr != nil {
		return nil, "", g.svc.inputErr
	}
	if g.svc.inputStatus != "" && g.svc.inputStatus != ports.CreationSuccess {
		return nil, g.svc.inputStatus, nil
	}
	node := &fakeNode{log: g.svc.log, name: "input"}
	g.nodes = append(g.nodes, node)
	return node, ports.CreationSuccess, nil
}

func (g *fakeGraph) CreateDeviceOutputNode(_ context.Context) (ports.AudioNode, ports.CreationStatus, error) {
	g.svc.log.add("graph.output")
	if g.svc.outputErr != nil {
		return nil, "", g.svc.outputErr
	}
	if g.svc.outStatus != "" && g.svc.outStatus != ports.CreationSuccess {
		return nil, g.svc.outStatus, nil
	}
	node := &fakeNode{log: g.svc.log, name: "output"}
	g.nodes = append(g.nodes, node)
	return node, ports.CreationSuccess, nil
}

func (g *fakeGraph) Connect(from ports.AudioNode, to ports.AudioNode) error {
	g.svc.log.add("graph.connect")
	if from == nil || to == nil {
		return errors.New("nil node")
	}
	if g.svc.connectErr != nil {
		return g.svc.connectErr
	}
	g.connected = true
	return nil
}

func (g *fakeGraph) Start() error {
	g.svc.log.add("graph.start")
	if g.svc.startErr != nil {
		return g.svc.startErr
	}
	g.running = true
	return nil
}

func (g *fakeGraph) Stop() error {
	g.svc.log.add("graph.stop")
	g.stopCalls++
	g.running = false
	return g.svc.stopErr
}

func (g *fakeGraph) Close() error {
	g.svc.log.add("graph.dispose")
	g.closeCalls++
	return g.svc.closeErr
}

type fakeNode struct {
	log        *callLog
	name       string
	closeErr   error
	closeCalls int
}

func (n *fakeNode) Close() error {
	n.log.add("node.dispose:" + n.name)
	n.closeCalls++
	return n.closeErr
}

type fakeEventSink struct {
	mu sync.Mutex

	video    []domain.VideoState
	audio    []domain.AudioState
	controls []domain.Controls
	errors   []errEvent
}

type errEvent struct {
	kind   domain.ErrorKind
	detail string
}

func (f *fakeEventSink) VideoStateChanged(state domain.VideoState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.video = append(f.video, state)
}

func (f *fakeEventSink) AudioStateChanged(state domain.AudioState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, state)
}

func (f *fakeEventSink) ControlsChanged(controls domain.Controls) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controls = append(f.controls, controls)
}

func (f *fakeEventSink) SessionError(kind domain.ErrorKind, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{kind: kind, detail: detail})
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]errEvent, len(f.errors))
	copy(out, f.errors)
	return out
}

func (f *fakeEventSink) lastControls() domain.Controls {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.controls) == 0 {
		return domain.Controls{}
	}
	return f.controls[len(f.controls)-1]
}

type fakeEnumerator struct {
	devices map[domain.DeviceKind][]domain.DeviceDescriptor
	err     error
	calls   int
}

func (f *fakeEnumerator) Enumerate(_ context.Context, kind domain.DeviceKind) ([]domain.DeviceDescriptor, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.devices[kind], nil
}

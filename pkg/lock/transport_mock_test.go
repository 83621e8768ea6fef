package lock

import (
	context "context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockTransport is a hand-written gomock-style mock of Transport. There is
// no non-test Transport implementation anywhere in this module (spec scope
// excludes BLE stacks), so nothing can generate this mock from a real
// import; it's written by hand in the shape mockgen would produce.
type MockTransport struct {
	ctrl     *gomock.Controller
	recorder *MockTransportMockRecorder
}

type MockTransportMockRecorder struct {
	mock *MockTransport
}

func NewMockTransport(ctrl *gomock.Controller) *MockTransport {
	mock := &MockTransport{ctrl: ctrl}
	mock.recorder = &MockTransportMockRecorder{mock}
	return mock
}

func (m *MockTransport) EXPECT() *MockTransportMockRecorder {
	return m.recorder
}

func (m *MockTransport) Connect(ctx context.Context) (ServiceInfo, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Connect", ctx)
	ret0, _ := ret[0].(ServiceInfo)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockTransportMockRecorder) Connect(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Connect", reflect.TypeOf((*MockTransport)(nil).Connect), ctx)
}

func (m *MockTransport) EnableNotifications(ctx context.Context, svc ServiceInfo) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EnableNotifications", ctx, svc)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockTransportMockRecorder) EnableNotifications(ctx, svc interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EnableNotifications", reflect.TypeOf((*MockTransport)(nil).EnableNotifications), ctx, svc)
}

func (m *MockTransport) Write(ctx context.Context, svc ServiceInfo, data []byte, withResponse bool) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Write", ctx, svc, data, withResponse)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockTransportMockRecorder) Write(ctx, svc, data, withResponse interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Write", reflect.TypeOf((*MockTransport)(nil).Write), ctx, svc, data, withResponse)
}

func (m *MockTransport) Inbound() <-chan []byte {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Inbound")
	ret0, _ := ret[0].(<-chan []byte)
	return ret0
}

func (mr *MockTransportMockRecorder) Inbound() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Inbound", reflect.TypeOf((*MockTransport)(nil).Inbound))
}

func (m *MockTransport) ConnEvents() <-chan ConnEvent {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ConnEvents")
	ret0, _ := ret[0].(<-chan ConnEvent)
	return ret0
}

func (mr *MockTransportMockRecorder) ConnEvents() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ConnEvents", reflect.TypeOf((*MockTransport)(nil).ConnEvents))
}

func (m *MockTransport) Disconnect() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Disconnect")
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockTransportMockRecorder) Disconnect() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Disconnect", reflect.TypeOf((*MockTransport)(nil).Disconnect))
}

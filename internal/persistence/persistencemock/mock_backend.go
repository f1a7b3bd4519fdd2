// Package persistencemock is a mockgen-generated double for
// persistence.Backend, hand-maintained here in the mockgen output shape
// since this module never invokes the Go toolchain (including `go
// generate`).
//
// Source: github.com/sabasehrish/phlex/internal/persistence (interfaces: Backend)
package persistencemock

import (
	context "context"
	reflect "reflect"

	persistence "github.com/sabasehrish/phlex/internal/persistence"
	gomock "go.uber.org/mock/gomock"
)

// MockBackend is a mock of the Backend interface.
type MockBackend struct {
	ctrl     *gomock.Controller
	recorder *MockBackendMockRecorder
}

// MockBackendMockRecorder is the mock recorder for MockBackend.
type MockBackendMockRecorder struct {
	mock *MockBackend
}

// NewMockBackend creates a new mock instance.
func NewMockBackend(ctrl *gomock.Controller) *MockBackend {
	mock := &MockBackend{ctrl: ctrl}
	mock.recorder = &MockBackendMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBackend) EXPECT() *MockBackendMockRecorder {
	return m.recorder
}

// CreateContainers mocks base method.
func (m *MockBackend) CreateContainers(ctx context.Context, types map[string]string) (persistence.Creator, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateContainers", ctx, types)
	ret0, _ := ret[0].(persistence.Creator)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CreateContainers indicates an expected call of CreateContainers.
func (mr *MockBackendMockRecorder) CreateContainers(ctx, types any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateContainers", reflect.TypeOf((*MockBackend)(nil).CreateContainers), ctx, types)
}

// RegisterWrite mocks base method.
func (m *MockBackend) RegisterWrite(ctx context.Context, creator persistence.Creator, product string, data any, typeName string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RegisterWrite", ctx, creator, product, data, typeName)
	ret0, _ := ret[0].(error)
	return ret0
}

// RegisterWrite indicates an expected call of RegisterWrite.
func (mr *MockBackendMockRecorder) RegisterWrite(ctx, creator, product, data, typeName any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RegisterWrite", reflect.TypeOf((*MockBackend)(nil).RegisterWrite), ctx, creator, product, data, typeName)
}

// CommitOutput mocks base method.
func (m *MockBackend) CommitOutput(ctx context.Context, creator persistence.Creator, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CommitOutput", ctx, creator, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// CommitOutput indicates an expected call of CommitOutput.
func (mr *MockBackendMockRecorder) CommitOutput(ctx, creator, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CommitOutput", reflect.TypeOf((*MockBackend)(nil).CommitOutput), ctx, creator, id)
}

// Read mocks base method.
func (m *MockBackend) Read(ctx context.Context, creator persistence.Creator, product, id string, out any, typeName string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Read", ctx, creator, product, id, out, typeName)
	ret0, _ := ret[0].(error)
	return ret0
}

// Read indicates an expected call of Read.
func (mr *MockBackendMockRecorder) Read(ctx, creator, product, id, out, typeName any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Read", reflect.TypeOf((*MockBackend)(nil).Read), ctx, creator, product, id, out, typeName)
}

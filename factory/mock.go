package factory

import "github.com/bitfsorg/libforge-go/token"

// MockCaller is a test double for Caller.
// CallFn must be set before Call is used.
type MockCaller struct {
	CallFn func(cp token.Cellpack, incoming token.Parcel, fuel uint64) (*token.CallResponse, error)
	Calls  []token.Cellpack
}

func (m *MockCaller) Call(cp token.Cellpack, incoming token.Parcel, fuel uint64) (*token.CallResponse, error) {
	m.Calls = append(m.Calls, cp)
	return m.CallFn(cp, incoming, fuel)
}

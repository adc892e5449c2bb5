package stats

import "github.com/stretchr/testify/mock"

type MockStatsUpdater struct {
	mock.Mock
}

func (m *MockStatsUpdater) Set(name string, value int64) {
	m.Called(name, value)
}
func (m *MockStatsUpdater) Value(name string) int64 {
	args := m.Called(name)
	return args.Get(0).(int64)
}
func (m *MockStatsUpdater) RegisterMetric(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) Run() {
	m.Called()
}

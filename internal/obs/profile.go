package obs

import (
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/errors"
)

// StartProfiler pushes continuous profiles to a pyroscope server. The
// returned stop func flushes and detaches the profiler.
func StartProfiler(app, serverAddr string) (stop func(), err error) {
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: app,
		ServerAddress:   serverAddr,
		Tags: map[string]string{
			"env": "local",
		},
		Logger: emptyLogger{},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "start pyroscope").With("server", serverAddr)
	}
	return func() {
		_ = profiler.Stop()
	}, nil
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}

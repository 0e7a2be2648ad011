package simulation

import (
	"github.com/sarchlab/nodetopo/datarecording"
	"github.com/sarchlab/nodetopo/monitoring"
)

// Builder can be used to build a simulation.
type Builder struct {
	recordOn       bool
	outputFileName string
	dataRecorder   datarecording.DataRecorder
	monitorOn      bool
	monitorPort    int
}

// MakeBuilder creates a new builder. Recording and monitoring are off by
// default.
func MakeBuilder() Builder {
	return Builder{}
}

// WithRecording records every created component and link into a SQLite
// database.
func (b Builder) WithRecording() Builder {
	b.recordOn = true
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
// The ".sqlite3" suffix is appended by the recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithDataRecorder records into the given recorder instead of the default
// SQLite database.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recordOn = true
	b.dataRecorder = r

	return b
}

// WithMonitoring serves the topology over HTTP while it is being built.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordOn && b.outputFileName != "" {
		panic("output file cannot be set when recording is disabled")
	}

	if b.dataRecorder != nil && b.outputFileName != "" {
		panic("output file cannot be set with a custom data recorder")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := NewSimulation()

	if b.dataRecorder != nil {
		s.dataRecorder = b.dataRecorder
		s.AcceptHook(datarecording.NewTopologyRecorder(s.dataRecorder))
	} else if b.recordOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "nodetopo_" + s.id
		}

		s.dataRecorder = datarecording.New(outputPath)
		s.AcceptHook(datarecording.NewTopologyRecorder(s.dataRecorder))
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}

		s.monitor.RegisterTopology(s)
		s.AcceptHook(s.monitor.MetricsHook())
		s.monitor.StartServer()
	}

	return s
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/fatih/color"
	"github.com/sarchlab/nodetopo/datarecording"
	"github.com/sarchlab/nodetopo/node"
	"github.com/sarchlab/nodetopo/params"
	"github.com/sarchlab/nodetopo/platform"
	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/simulation"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a platform of nodes and wire it to a router.",
	Long: "`build --params node.yaml --nodes 4 --detailed 0,2 --cores 2` " +
		"builds nodes 0 and 2 in detail and reports nodes 1 and 3 as skipped.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := readRunConfig(cmd)
		if err := c.validate(); err != nil {
			return err
		}

		return runBuild(cmd.Context(), c)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("params", "p", envOr(envParams, ""),
		"Parameter file of a node.")
	buildCmd.Flags().Int("nodes", 1, "Number of nodes in the platform.")
	buildCmd.Flags().IntSlice("detailed", nil,
		"Nodes to build in detail. All nodes if empty.")
	buildCmd.Flags().Int("cores", 1, "Number of cores of each node.")
	buildCmd.Flags().String("model", "", "Name of the node model.")
	buildCmd.Flags().Bool("record", false,
		"Record the topology into a SQLite database.")
	buildCmd.Flags().String("output", "",
		"Name of the database file, without the .sqlite3 suffix.")
	buildCmd.Flags().String("recorder", recorderSQLite,
		"Where to record: sqlite or clickhouse. ClickHouse is located "+
			"by the NODETOPO_CLICKHOUSE_* environment variables.")
	buildCmd.Flags().Bool("serve", false,
		"Serve the topology over HTTP until interrupted.")
	buildCmd.Flags().Int("port", 0, "Port of the monitoring server.")
	buildCmd.Flags().Bool("open", false,
		"Open the monitoring server in a browser.")
}

func runBuild(ctx context.Context, c runConfig) error {
	p, err := params.Load(c.ParamsFile)
	if err != nil {
		return err
	}

	s, err := newSimulation(c)
	if err != nil {
		return err
	}
	defer s.Terminate()

	nodeList := make([]node.NodeID, 0, len(c.detailedNodes()))
	for _, id := range c.detailedNodes() {
		nodeList = append(nodeList, node.NodeID(id))
	}

	model := node.MakeBuilder().
		WithFactory(s).
		WithWirer(s).
		WithParams(p).
		WithNodeList(nodeList...).
		Build(c.ModelName)

	platformBuilder := platform.MakeBuilder().
		WithFactory(s).
		WithNodeModel(model).
		WithNumNodes(c.NumNodes).
		WithNumCores(c.NumCores)
	if s.GetMonitor() != nil {
		platformBuilder = platformBuilder.WithMonitor(s.GetMonitor())
	}

	plat, err := platformBuilder.Build()
	if err != nil {
		return err
	}

	printSummary(model.Name(), s, plat)

	if c.Serve {
		return serve(ctx, s, c.Open)
	}

	return nil
}

func newSimulation(c runConfig) (*simulation.Simulation, error) {
	b := simulation.MakeBuilder()

	switch {
	case c.Record && c.Recorder == recorderClickHouse:
		r, err := datarecording.NewClickHouseRecorder(clickHouseOptions())
		if err != nil {
			return nil, err
		}

		b = b.WithDataRecorder(r)
	case c.Record:
		b = b.WithRecording()
		if c.Output != "" {
			b = b.WithOutputFileName(c.Output)
		}
	}

	if c.Serve {
		b = b.WithMonitoring()
		if c.Port != 0 {
			b = b.WithMonitorPort(c.Port)
		}
	}

	return b.Build(), nil
}

func clickHouseOptions() datarecording.ClickHouseOptions {
	port, err := strconv.Atoi(envOr(envClickHousePort, "9000"))
	if err != nil {
		logrus.Warnf("Invalid %s, using 9000", envClickHousePort)
		port = 9000
	}

	return datarecording.ClickHouseOptions{
		Host:     envOr(envClickHouseHost, "localhost"),
		Port:     port,
		Database: envOr(envClickHouseDB, "default"),
		Username: envOr(envClickHouseUser, "default"),
		Password: envOr(envClickHousePassword, ""),
	}
}

func printSummary(
	modelName string,
	s *simulation.Simulation,
	plat *platform.Platform,
) {
	title := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	title.Printf("%s\n", modelName)
	ok.Printf("  built nodes:     %v\n", plat.Built)
	if len(plat.Skipped) > 0 {
		warn.Printf("  skipped nodes:   %v\n", plat.Skipped)
	}

	fmt.Printf("  components:      %d (+%d subsystems)\n",
		len(s.Components()), len(s.Subsystems()))
	fmt.Printf("  links:           %d\n", len(s.Links()))

	uncuttable := 0
	for _, l := range s.Links() {
		if l.Uncuttable() {
			uncuttable++
		}
	}
	fmt.Printf("  uncuttable:      %d\n", uncuttable)

	if open := s.OpenLinks(); len(open) > 0 {
		warn.Printf("  open links:      %d\n", len(open))
	}

	for _, tag := range sim.KnownTypeTags() {
		if n := len(s.ComponentsByTag(tag)); n > 0 {
			fmt.Printf("    %-28s %d\n", tag, n)
		}
	}
}

func serve(ctx context.Context, s *simulation.Simulation, open bool) error {
	if open {
		if err := s.GetMonitor().OpenInBrowser(); err != nil {
			logrus.Warnf("Failed to open browser: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop the monitoring server.")
	<-ctx.Done()

	return nil
}

package cmd

import (
	"errors"

	"github.com/fatih/color"
	"github.com/sarchlab/nodetopo/node"
	"github.com/sarchlab/nodetopo/params"
	"github.com/sarchlab/nodetopo/simulation"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a parameter file by building one node in memory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("params")
		cores, _ := cmd.Flags().GetInt("cores")

		return runValidate(file, cores)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("params", "p", envOr(envParams, ""),
		"Parameter file of a node.")
	validateCmd.Flags().Int("cores", 1, "Number of cores to build.")
}

func runValidate(file string, cores int) error {
	if file == "" {
		return errors.New("no parameter file given")
	}

	p, err := params.Load(file)
	if err != nil {
		return err
	}

	s := simulation.NewSimulation()
	model := node.MakeBuilder().
		WithFactory(s).
		WithWirer(s).
		WithParams(p).
		WithNodeList(0).
		Build("")

	_, err = model.Build(0, cores)

	var cfgErr *params.ConfigError
	if errors.As(err, &cfgErr) {
		color.Red("%s: parameter %s is not valid: %v", file, cfgErr.Key, cfgErr.Err)
		return err
	}

	if err != nil {
		return err
	}

	color.Green("%s: ok, %d components and %d links per node",
		file, len(s.Components())+len(s.Subsystems()), len(s.Links()))

	return nil
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

// runConfig is what the build command assembles from flags and environment.
type runConfig struct {
	ParamsFile string `validate:"required,file"`
	NumNodes   int    `validate:"min=1"`
	Detailed   []int  `validate:"dive,min=0"`
	NumCores   int    `validate:"min=0"`
	ModelName  string `validate:"omitempty,alphanum"`

	Record   bool
	Output   string `validate:"excluded_without=Record"`
	Recorder string `validate:"omitempty,oneof=sqlite clickhouse"`

	Serve bool
	Port  int  `validate:"omitempty,min=1000,max=65535"`
	Open  bool `validate:"excluded_without=Serve"`
}

const (
	recorderSQLite     = "sqlite"
	recorderClickHouse = "clickhouse"
)

var configValidator = validator.New()

func (c runConfig) validate() error {
	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("invalid value %v for %s (%s)",
				e.Value(), e.Field(), e.Tag())
		}

		return err
	}

	for _, id := range c.Detailed {
		if id >= c.NumNodes {
			return fmt.Errorf("detailed node %d is outside the %d nodes",
				id, c.NumNodes)
		}
	}

	if c.Recorder == recorderClickHouse && c.Output != "" {
		return fmt.Errorf("output can only be set with the sqlite recorder")
	}

	if c.Port != 0 && !c.Serve {
		return fmt.Errorf("port can only be set together with serve")
	}

	return nil
}

// detailedNodes returns the nodes to build in detail. All nodes by default.
func (c runConfig) detailedNodes() []int {
	if len(c.Detailed) > 0 {
		return c.Detailed
	}

	nodes := make([]int, c.NumNodes)
	for i := range nodes {
		nodes[i] = i
	}

	return nodes
}

func readRunConfig(cmd *cobra.Command) runConfig {
	c := runConfig{}

	c.ParamsFile, _ = cmd.Flags().GetString("params")
	c.NumNodes, _ = cmd.Flags().GetInt("nodes")
	c.Detailed, _ = cmd.Flags().GetIntSlice("detailed")
	c.NumCores, _ = cmd.Flags().GetInt("cores")
	c.ModelName, _ = cmd.Flags().GetString("model")
	c.Record, _ = cmd.Flags().GetBool("record")
	c.Output, _ = cmd.Flags().GetString("output")
	c.Recorder, _ = cmd.Flags().GetString("recorder")
	c.Serve, _ = cmd.Flags().GetBool("serve")
	c.Port, _ = cmd.Flags().GetInt("port")
	c.Open, _ = cmd.Flags().GetBool("open")

	return c
}

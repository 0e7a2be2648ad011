// Package main is the entry point of the nodetopo CLI.
package main

import "github.com/sarchlab/nodetopo/nodetopo/cmd"

func main() {
	cmd.Execute()
}

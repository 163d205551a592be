package main

import (
	"clusterkit/cmd/cmd"
)

func main() {
	cmd.Execute()
}

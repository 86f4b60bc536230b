package main

import "github.com/devicelab-dev/calabash-bridge/pkg/cli"

func main() {
	cli.Execute()
}

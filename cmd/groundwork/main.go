package main

import "github.com/groundwork-dev/groundwork/internal/cli"

func main() {
	cli.Execute()
}

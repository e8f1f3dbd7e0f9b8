package main

import "timebank/internal/cli"

func main() {
	cli.Execute()
}

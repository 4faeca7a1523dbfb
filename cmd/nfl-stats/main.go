package main

import "github.com/pfrederiksen/nfl-season-stats/internal/cli"

func main() {
	cli.Execute()
}

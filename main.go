package main

import "github.com/KaramelBytes/ctrlchart-cli/cmd"

func main() {
	cmd.Execute()
}

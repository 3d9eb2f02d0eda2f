package main

import "github.com/KaramelBytes/clusterbench-cli/cmd"

func main() {
	cmd.Execute()
}

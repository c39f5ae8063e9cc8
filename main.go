package main

import "github.com/KaramelBytes/sentinel-cli/cmd"

func main() {
	cmd.Execute()
}

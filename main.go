package main

import "github.com/sigexhq/sigex-cli/cmd"

func main() {
	cmd.Execute()
}

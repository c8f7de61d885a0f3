package main

import "github.com/theirongolddev/rollview/cmd"

func main() {
	cmd.Execute()
}

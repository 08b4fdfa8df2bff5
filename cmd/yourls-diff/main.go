package main

import "github.com/gioxx/yourls-diff/cmd/yourls-diff/cmd"

func main() {
	cmd.Execute()
}

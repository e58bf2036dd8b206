// Package main is the bookcrawler executable.
package main

import "github.com/maktaba/bookcrawler/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/agubarev/lowcode/cmd"

func main() {
	cmd.Execute()
}

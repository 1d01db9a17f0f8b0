package main

import "github.com/shaharia-lab/taskcore/cmd"

func main() {
	cmd.Execute()
}

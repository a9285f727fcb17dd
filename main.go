package main

import "pbb/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/kiranvarmap/qms/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/dvergaraf/wacrm/cmd"

func main() {
	cmd.Execute()
}

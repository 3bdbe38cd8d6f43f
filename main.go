package main

import "github.com/frahmantamala/subscription-sales/cmd"

func main() {
	cmd.Execute()
}

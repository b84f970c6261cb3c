package main

import "github.com/MrEthical07/staffguard/cmd/staffguard/cmd"

func main() {
	cmd.Execute()
}

package main

import "bcn-hostel-prices/cmd/hostel-prices/cmd"

func main() {
	cmd.Execute()
}

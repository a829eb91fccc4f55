package main

import "github.com/adityarahman/booking-management/cmd"

func main() {
	cmd.Execute()
}

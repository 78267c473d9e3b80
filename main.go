package main

import "github.com/travelcrm/travel-crm/cmd"

func main() {
	cmd.Execute()
}

package main

import "storefront-backend/commands"

func main() {
	commands.Execute()
}

package main

import "ai-chat-be/cmd/statuswatch/cmd"

func main() {
	cmd.Execute()
}

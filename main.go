package main

import "github.com/map4expo/expo-session/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/Alijeyrad/surveybot/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/killallgit/vidsum/cmd"

// @title           vidsum API
// @version         1.0.0
// @description     Summarizes YouTube and Bilibili videos and records what has been processed
// @contact.name    API Support
// @contact.url     https://github.com/killallgit/vidsum
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
func main() {
	cmd.Execute()
}

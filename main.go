/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/gmaffy/minys-go/cmd"

func main() {
	cmd.Execute()
}

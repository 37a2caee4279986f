package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/Othernet-Project/fsal/pkg/fs"
)

const (
	// defaultSocketPath is the default daemon socket path used by client
	// commands.
	defaultSocketPath = "/var/run/fsal.socket"
	// listingTimeFormat is the timestamp format used in listings.
	listingTimeFormat = "2006-01-02 15:04:05"
)

// printObject prints a single listing line for the specified object.
// Directories are colorized and marked with a trailing separator, files carry
// a humanized size.
func printObject(object *fs.Object) {
	if object.IsDir() {
		fmt.Printf(
			"%s  %10s  %s\n",
			object.ModifyDate.Format(listingTimeFormat),
			"-",
			color.BlueString(object.RelPath+"/"),
		)
		return
	}
	fmt.Printf(
		"%s  %10s  %s\n",
		object.ModifyDate.Format(listingTimeFormat),
		humanize.IBytes(uint64(object.Size)),
		object.RelPath,
	)
}

// printListing prints a base path header followed by one line per object.
func printListing(basePath string, objects []*fs.Object) {
	fmt.Println("Base path:", basePath)
	for _, object := range objects {
		printObject(object)
	}
}

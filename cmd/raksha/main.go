package main

import (
	"fmt"
	"os"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "courses":
		err = cmdCourses()
	case "course":
		err = cmdCourse(os.Args[2:])
	case "profile":
		err = cmdProfile(os.Args[2:])
	case "progress":
		err = cmdProgress(os.Args[2:])
	case "leaderboard":
		err = cmdLeaderboard()
	case "badges":
		err = cmdBadges()
	case "status":
		err = cmdStatus()
	case "version":
		fmt.Printf("raksha %s\n", Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`raksha - cybersecurity awareness training

Usage:
  raksha <command> [arguments]

Commands:
  courses               List available courses
  course <id>           Show a course and its lessons
  profile <learner-id>  Show a learner profile
  progress <learner-id> Show a learner's course progress
  leaderboard           Show the XP leaderboard
  badges                Show the badge catalog
  status                Show daemon status
  version               Show version

Environment:
  RAKSHA_ADDR           Daemon address (default http://127.0.0.1:8080)`)
}

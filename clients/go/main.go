// Command line client for the club chat server.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/belchote2025/nuevaweb-sub001/clients/go/clubchat"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("CHAT_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := clubchat.NewClient(
		baseURL,
		os.Getenv("CHAT_USER"),
		os.Getenv("CHAT_NAME"),
		os.Getenv("CHAT_ROLE"),
	)
	cmd := os.Args[1]

	switch cmd {
	case "rooms":
		resp, err := client.Rooms()
		exitOnError(err)
		for _, room := range resp.Rooms {
			marker := " "
			if room.Restricted {
				marker = "*"
			}
			fmt.Printf("%s %s  %s\n", marker, room.ID, room.Name)
		}

	case "read":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: clubchat read <room>")
			os.Exit(1)
		}
		resp, err := client.Messages(os.Args[2])
		exitOnError(err)
		for _, msg := range resp.Messages {
			ts := time.Unix(msg.Timestamp, 0).Format("2006-01-02 15:04:05")
			fmt.Printf("[%s] %s: %s\n", ts, msg.AuthorName, msg.Body)
		}

	case "post":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: clubchat post <room> <body>")
			os.Exit(1)
		}
		msg, err := client.Post(os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("posted %s\n", msg.ID)

	case "dm":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: clubchat dm <peer> <body>")
			os.Exit(1)
		}
		dm, err := client.SendDM(os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("sent %s\n", dm.ID)

	case "inbox":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: clubchat inbox <peer>")
			os.Exit(1)
		}
		resp, err := client.Conversation(os.Args[2])
		exitOnError(err)
		for _, dm := range resp.Messages {
			ts := time.Unix(dm.Timestamp, 0).Format("2006-01-02 15:04:05")
			fmt.Printf("[%s] %s: %s\n", ts, dm.FromName, dm.Body)
		}

	case "unread":
		count, err := client.Unread()
		exitOnError(err)
		fmt.Println(count)

	case "roster":
		entries, err := client.Roster()
		exitOnError(err)
		for _, e := range entries {
			fmt.Printf("%s  %s (%s)\n", e.ID, e.Name, e.Role)
		}

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: clubchat <command>

Commands:
  rooms            list visible rooms (* = restricted)
  read <room>      poll a room for new messages
  post <room> <body>
  dm <peer> <body>
  inbox <peer>     poll the conversation with a peer
  unread           unread direct-message count
  roster           list identities

Environment:
  CHAT_URL   server base URL (default http://localhost:8080)
  CHAT_USER  caller id
  CHAT_NAME  caller display name
  CHAT_ROLE  caller role`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

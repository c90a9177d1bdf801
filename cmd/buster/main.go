// Command buster is a diagnostic console client: it joins a running server,
// prints every broadcast colorized by event kind, renders roster updates as
// tables and forwards simple stdin commands as game actions.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    string          `json:"at"`
}

type playerRow struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Color          string `json:"color"`
	Alive          bool   `json:"alive"`
	TasksCompleted int    `json:"tasksCompleted"`
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "server WebSocket URL")
	name := flag.String("name", "buster", "display name to join with")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		log.Fatal("Dial failed: ", err)
	}
	defer conn.Close()

	send(conn, map[string]any{"type": "join", "name": *name})
	color.Green.Printf("Joined %s as %q\n", *addr, *name)
	printHelp()

	go readLoop(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if !handleLine(conn, scanner.Text()) {
			return
		}
	}
}

func printHelp() {
	fmt.Println("commands: start | state | report | emergency | vote <id> | skip | sab <id> | trigger <kind> | say <msg> | quit")
}

// handleLine maps one console command to a wire frame. Returns false on quit.
func handleLine(conn *websocket.Conn, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	arg := strings.Join(fields[1:], " ")

	switch fields[0] {
	case "quit":
		return false
	case "start":
		send(conn, map[string]any{"type": "start-round"})
	case "state":
		send(conn, map[string]any{"type": "request-state"})
	case "report":
		send(conn, map[string]any{"type": "report-body", "location": arg})
	case "emergency":
		send(conn, map[string]any{"type": "emergency-meeting"})
	case "vote":
		send(conn, map[string]any{"type": "submit-vote", "votedFor": arg})
	case "skip":
		send(conn, map[string]any{"type": "submit-vote"})
	case "sab":
		send(conn, map[string]any{"type": "attempt-sabotage", "targetId": arg, "success": true, "sabotageType": "attack"})
	case "trigger":
		send(conn, map[string]any{"type": "trigger-sabotage", "sabotageType": arg})
	case "say":
		send(conn, map[string]any{"type": "chat-message", "message": arg})
	default:
		printHelp()
	}
	return true
}

func send(conn *websocket.Conn, payload map[string]any) {
	if err := conn.WriteJSON(payload); err != nil {
		log.Fatal("Write failed: ", err)
	}
}

func readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			color.Red.Println("Connection closed: ", err)
			os.Exit(0)
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			color.Red.Printf("Bad frame: %s\n", data)
			continue
		}
		render(f)
	}
}

// render picks a color per event family so the firehose stays readable.
func render(f frame) {
	switch f.Event {
	case "roster-update", "meeting-started":
		color.Cyan.Printf("[%s]\n", f.Event)
		renderRoster(f.Data)
	case "player-killed", "player-ejected", "sabotage-attempt", "sabotage-triggered":
		color.Red.Printf("[%s] %s\n", f.Event, f.Data)
	case "round-started", "round-ended", "return-to-lobby":
		color.Yellow.Printf("[%s] %s\n", f.Event, f.Data)
	case "chat-message":
		color.Green.Printf("[%s] %s\n", f.Event, f.Data)
	case "round-timer-update":
		// One line per second is too chatty for a debug console.
	default:
		color.Gray.Printf("[%s] %s\n", f.Event, f.Data)
	}
}

func renderRoster(data json.RawMessage) {
	var payload struct {
		Players []playerRow `json:"players"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload.Players) == 0 {
		fmt.Println(string(data))
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Color", "Alive", "Tasks"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, p := range payload.Players {
		table.Append([]string{
			shortID(p.ID), p.Name, p.Color,
			fmt.Sprint(p.Alive), fmt.Sprint(p.TasksCompleted),
		})
	}
	table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	Token     string `env:"CHAT_TOKEN"`
	Username  string `env:"CHAT_USERNAME"`
	Room      string `env:"CHAT_ROOM,default=general"`
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the websocket client lifecycle: connect, join the default
// room, then multiplex stdin commands and server events until Ctrl+C.
func run() (int, error) {
	// 1. Load configuration (.env then environment).
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Establish the websocket connection with credentials in the query.
	target, err := url.Parse(config.ServerURL)
	if err != nil {
		return exitConfig, fmt.Errorf("invalid server url: %w", err)
	}
	query := target.Query()
	if config.Token != "" {
		query.Set("token", config.Token)
	}
	if config.Username != "" {
		query.Set("username", config.Username)
	}
	target.RawQuery = query.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer conn.Close()

	color.Green.Printf(">>> Connected to %s (Ctrl+C to quit)\n", config.ServerURL)

	// 4. Join the default room right away.
	if err := send(conn, "join_thread", map[string]string{"room": config.Room}); err != nil {
		return exitRuntime, err
	}

	// 5. Server events in the background, stdin in the foreground.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				if ctx.Err() == nil {
					color.Red.Printf("Connection lost: %v\n", err)
				}
				return
			}
			render(f)
		}
	}()

	go readCommands(conn)

	select {
	case <-ctx.Done():
		color.Yellow.Println("Stopping client...")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return exitOK, nil
	case <-done:
		return exitRuntime, nil
	}
}

// readCommands turns stdin lines into protocol frames. Lines starting
// with '/' are commands; everything else is a chat message.
func readCommands(conn *websocket.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			_ = send(conn, "send_message", map[string]string{"message": line})
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		arg := ""
		if len(parts) == 2 {
			arg = strings.TrimSpace(parts[1])
		}

		switch parts[0] {
		case "/join":
			_ = send(conn, "join_thread", map[string]string{"room": arg})
		case "/who":
			_ = send(conn, "get_room_info", nil)
		case "/online":
			_ = send(conn, "get_online_users", nil)
		case "/dm":
			_ = send(conn, "create_dm", map[string]string{"target_user_id": arg})
		case "/joindm":
			_ = send(conn, "join_dm", map[string]string{"dm_room_id": arg})
		case "/dms":
			_ = send(conn, "get_dm_list", nil)
		case "/help":
			printHelp()
		default:
			color.Red.Printf("Unknown command: %s (try /help)\n", parts[0])
		}
	}
}

func send(conn *websocket.Conn, event string, data any) error {
	payload := map[string]any{"event": event}
	if data != nil {
		payload["data"] = data
	}
	return conn.WriteJSON(payload)
}

// render pretty-prints one server event.
func render(f frame) {
	switch f.Event {
	case "connected":
		var d struct {
			Message   string `json:"message"`
			SessionID string `json:"session_id"`
			Username  string `json:"username"`
		}
		_ = json.Unmarshal(f.Data, &d)
		color.Green.Printf("%s as %s (session %s)\n", d.Message, d.Username, d.SessionID)

	case "auth_error", "error":
		var d struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(f.Data, &d)
		color.Red.Printf("Error: %s\n", d.Message)

	case "new_message":
		var d messagePayload
		_ = json.Unmarshal(f.Data, &d)
		printMessage(d)

	case "joined_thread":
		var d struct {
			Room           string           `json:"room"`
			Message        string           `json:"message"`
			RecentMessages []messagePayload `json:"recent_messages"`
		}
		_ = json.Unmarshal(f.Data, &d)
		color.Cyan.Printf("%s (%d recent messages)\n", d.Message, len(d.RecentMessages))
		for _, m := range d.RecentMessages {
			printMessage(m)
		}

	case "room_messages":
		var d struct {
			Room     string           `json:"room"`
			Messages []messagePayload `json:"messages"`
		}
		_ = json.Unmarshal(f.Data, &d)
		color.Cyan.Printf("History of %s:\n", d.Room)
		for _, m := range d.Messages {
			printMessage(m)
		}

	case "user_joined", "user_left":
		var d struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(f.Data, &d)
		color.Yellow.Println(d.Message)

	case "typing_update":
		var d struct {
			TypingUsers []string `json:"typing_users"`
		}
		_ = json.Unmarshal(f.Data, &d)
		if len(d.TypingUsers) > 0 {
			color.Gray.Printf("typing: %s\n", strings.Join(d.TypingUsers, ", "))
		}

	case "room_info":
		var d struct {
			Room          *string `json:"room"`
			TotalMessages int     `json:"total_messages"`
			Users         []struct {
				Username string `json:"username"`
				UserID   string `json:"user_id"`
			} `json:"users"`
		}
		_ = json.Unmarshal(f.Data, &d)
		if d.Room == nil {
			color.Yellow.Println("Not in any room")
			return
		}
		color.Cyan.Printf("Room %s (%d messages)\n", *d.Room, d.TotalMessages)
		table := newTable([]string{"Username", "User ID"})
		for _, u := range d.Users {
			table.Append([]string{u.Username, u.UserID})
		}
		table.Render()

	case "online_users":
		var d struct {
			Users []struct {
				Username string  `json:"username"`
				UserID   string  `json:"user_id"`
				LastSeen float64 `json:"last_seen"`
			} `json:"users"`
		}
		_ = json.Unmarshal(f.Data, &d)
		table := newTable([]string{"Username", "User ID", "Online Since"})
		for _, u := range d.Users {
			table.Append([]string{u.Username, u.UserID, formatEpoch(u.LastSeen)})
		}
		table.Render()

	case "dm_created":
		var d struct {
			DMRoomID string `json:"dm_room_id"`
		}
		_ = json.Unmarshal(f.Data, &d)
		color.Green.Printf("DM ready: %s\n", d.DMRoomID)

	case "dm_invitation":
		var d struct {
			DMRoomID string `json:"dm_room_id"`
			FromUser struct {
				Username string `json:"username"`
			} `json:"from_user"`
		}
		_ = json.Unmarshal(f.Data, &d)
		color.Magenta.Printf("DM invitation from %s: /joindm %s\n", d.FromUser.Username, d.DMRoomID)

	case "dm_list":
		var d struct {
			DMs []struct {
				DMRoomID  string `json:"dm_room_id"`
				OtherUser struct {
					Username string `json:"username"`
					Online   bool   `json:"online"`
				} `json:"other_user"`
				LastMessageAt float64 `json:"last_message_at"`
				UnreadCount   int     `json:"unread_count"`
			} `json:"dms"`
		}
		_ = json.Unmarshal(f.Data, &d)
		table := newTable([]string{"DM Room", "With", "Online", "Last Message", "Messages"})
		for _, dm := range d.DMs {
			table.Append([]string{
				dm.DMRoomID,
				dm.OtherUser.Username,
				fmt.Sprintf("%t", dm.OtherUser.Online),
				formatEpoch(dm.LastMessageAt),
				fmt.Sprintf("%d", dm.UnreadCount),
			})
		}
		table.Render()
	}
}

type messagePayload struct {
	Username  string  `json:"username"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

func printMessage(m messagePayload) {
	fmt.Printf("[%s] %s: %s\n",
		color.Gray.Render(formatEpoch(m.Timestamp)),
		color.Cyan.Render(m.Username),
		m.Message,
	)
}

func formatEpoch(epoch float64) string {
	if epoch == 0 {
		return "-"
	}
	return time.Unix(int64(epoch), 0).Format(time.TimeOnly)
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func printHelp() {
	fmt.Println(`Commands:
  /join <room>    switch to a room
  /who            list members of the current room
  /online         list online users
  /dm <user_id>   open a direct conversation
  /joindm <id>    enter a DM room
  /dms            list your conversations
  /help           this help`)
}

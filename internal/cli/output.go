package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

// PrintEvent outputs one room event. The json-lines format prints one
// compact object per line for piping.
func (o *Output) PrintEvent(e RoomEvent) {
	switch o.format {
	case "json":
		o.printJSON(e)
	case "json-lines":
		data, _ := json.Marshal(e)
		fmt.Println(string(data))
	default:
		timestamp := e.Time.Format("2006-01-02 15:04:05")
		fmt.Printf("[%s] %s: %s\n", timestamp, e.Type, summarize(e.Data))
	}
}

// summarize shortens a payload for single-line display
func summarize(data []byte) string {
	s := strings.ReplaceAll(string(data), "\n", " ")
	if len(s) > 100 {
		s = s[:100] + "..."
	}
	return s
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case UsernameResult:
		o.printUsernameResult(v)
	case AuthResult:
		o.printAuthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status  string   `json:"status"`
	Rooms   int      `json:"rooms"`
	Parties []string `json:"parties"`
}

// UsernameResult response type
type UsernameResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// AuthResult is the social room auth_success payload
type AuthResult struct {
	Token      string `json:"token"`
	Username   string `json:"username"`
	DeviceID   string `json:"deviceId"`
	FriendCode string `json:"friendCode"`
	Friends    []struct {
		Username string `json:"username"`
		Online   bool   `json:"online"`
	} `json:"friends"`
	PendingRequests []struct {
		FromUsername string `json:"fromUsername"`
	} `json:"pendingRequests"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Rooms: %d\n", h.Rooms)
	if len(h.Parties) > 0 {
		fmt.Printf("Parties: %s\n", strings.Join(h.Parties, ", "))
	}
}

func (o *Output) printUsernameResult(u UsernameResult) {
	verdict := "rejected"
	if u.Valid {
		verdict = "ok"
	}
	fmt.Printf("Username %s: %s\n", verdict, u.Reason)
}

func (o *Output) printAuthResult(a AuthResult) {
	fmt.Printf("User: %s (%s)\n", a.Username, a.DeviceID)
	fmt.Printf("Friend code: %s\n", a.FriendCode)
	fmt.Printf("Friends (%d):\n", len(a.Friends))
	for _, f := range a.Friends {
		status := "offline"
		if f.Online {
			status = "online"
		}
		fmt.Printf("  - %s [%s]\n", f.Username, status)
	}
	if len(a.PendingRequests) > 0 {
		fmt.Printf("Pending requests (%d):\n", len(a.PendingRequests))
		for _, r := range a.PendingRequests {
			fmt.Printf("  - %s\n", r.FromUsername)
		}
	}
}

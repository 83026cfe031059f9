// Package main - walkthrough
// Rehearsal driver: connects to a running velada server and plays the whole
// evening over WebSocket, from the countdown gate to the final light. Used to
// verify a deployment end to end before the guest ever sees it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Config for the walkthrough run
type Config struct {
	ServerURL   string
	GuestName   string
	Answers     []string
	FinalAnswer string
	Timeout     time.Duration
}

// snapshot mirrors the server's snapshot payload; only the fields the driver
// reacts to are decoded.
type snapshot struct {
	Step            string `json:"step"`
	AnimationLocked bool   `json:"animation_locked"`
	CardPhase       string `json:"card_phase"`
	ActiveCardID    *int   `json:"active_card_id"`
	SolvedCardIDs   []int  `json:"solved_card_ids"`
	TotalCards      int    `json:"total_cards"`
	CanNext         bool   `json:"can_next"`
	VisibleCards    []struct {
		ID     int  `json:"id"`
		Solved bool `json:"solved"`
	} `json:"visible_cards"`
	Countdown struct {
		Unlocked bool `json:"unlocked"`
	} `json:"countdown"`
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	guestName := flag.String("name", "Invitada", "Name to commit on the NAME screen")
	answersStr := flag.String("answers", "", "Comma-separated card answers, in card order")
	finalAnswer := flag.String("final", "", "Final answer for the third light")
	timeout := flag.Duration("timeout", 2*time.Minute, "Abort if the walkthrough takes longer")
	flag.Parse()

	config := Config{
		ServerURL:   *serverURL,
		GuestName:   *guestName,
		Answers:     splitAnswers(*answersStr),
		FinalAnswer: *finalAnswer,
		Timeout:     *timeout,
	}

	if len(config.Answers) == 0 || config.FinalAnswer == "" {
		fmt.Println("Usage: walkthrough -answers=a,b,c -final=xyz [-url=...] [-name=...]")
		os.Exit(2)
	}

	fmt.Println("=========================================")
	fmt.Println("Velada walkthrough")
	fmt.Println("=========================================")
	fmt.Printf("Server:  %s\n", config.ServerURL)
	fmt.Printf("Guest:   %s\n", config.GuestName)
	fmt.Printf("Answers: %d cards + final\n", len(config.Answers))
	fmt.Println("=========================================")

	if err := run(config); err != nil {
		log.Fatalf("Walkthrough failed: %v", err)
	}
	fmt.Println("Walkthrough complete: the evening reached END.")
}

func splitAnswers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	answers := make([]string, 0, len(parts))
	for _, p := range parts {
		answers = append(answers, strings.TrimSpace(p))
	}
	return answers
}

func run(config Config) error {
	conn, _, err := websocket.DefaultDialer.Dial(config.ServerURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(config.Timeout)
	answerIdx := 0
	lastSent := ""

	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}

		// The server batches messages with newline separators.
		for _, line := range strings.Split(string(raw), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			var env envelope
			if err := json.Unmarshal([]byte(line), &env); err != nil {
				continue
			}
			if env.Type != "snapshot" {
				continue
			}
			var snap snapshot
			if err := json.Unmarshal(env.Payload, &snap); err != nil {
				continue
			}

			if snap.Step == "END" {
				return nil
			}

			intent, payload := nextIntent(snap, config, &answerIdx)
			if intent == "" {
				continue
			}

			// Snapshots repeat while timers run; only log a change of plan.
			if intent != lastSent {
				fmt.Printf("  step=%s -> %s\n", snap.Step, intent)
				lastSent = intent
			}
			if err := sendIntent(conn, intent, payload); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("timed out before reaching END")
}

// nextIntent decides the next guest action for the current snapshot.
// Returns an empty intent when the only correct move is to wait.
func nextIntent(snap snapshot, config Config, answerIdx *int) (string, interface{}) {
	if snap.AnimationLocked {
		return "", nil
	}

	switch snap.Step {
	case "HOME":
		if !snap.Countdown.Unlocked {
			return "", nil
		}
		return "ADVANCE", nil
	case "START":
		return "ADVANCE", nil
	case "NAME":
		return "SUBMIT_NAME", map[string]string{"name": config.GuestName}
	case "CAROUSEL":
		if snap.ActiveCardID != nil {
			if snap.CardPhase != "FLIPPED" {
				return "", nil
			}
			// Answers are consumed by solved count, so a repeated snapshot
			// of the same flipped card never burns the next answer.
			*answerIdx = len(snap.SolvedCardIDs)
			if *answerIdx >= len(config.Answers) {
				return "CLOSE_CARD", nil
			}
			return "SUBMIT_ANSWER", map[string]string{"text": config.Answers[*answerIdx]}
		}
		for _, card := range snap.VisibleCards {
			if !card.Solved {
				return "OPEN_CARD", map[string]int{"card_id": card.ID}
			}
		}
		if snap.CanNext {
			return "CAROUSEL_NEXT", nil
		}
		// All visible cards solved and no next page: the complete pause is
		// about to hand us LIGHT_1.
		return "", nil
	case "LIGHT_3":
		return "SUBMIT_FINAL", map[string]string{"text": config.FinalAnswer}
	default:
		// LIGHT_1, LIGHT_2, LIGHT_4 advance on their own timers.
		return "", nil
	}
}

func sendIntent(conn *websocket.Conn, intentType string, payload interface{}) error {
	msg := map[string]interface{}{"type": intentType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s failed: %w", intentType, err)
	}
	return nil
}

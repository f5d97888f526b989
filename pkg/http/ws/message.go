package ws

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeQueueJoin    = "queue_join"
	TypeQueueLeave   = "queue_leave"
	TypeAnswerSubmit = "answer_submit"

	// Server -> Client
	TypeConnected         = "connected"
	TypeQueueJoined       = "queue_joined"
	TypeQueueLeft         = "queue_left"
	TypeMatchFound        = "match_found"
	TypeAnswerResult      = "answer_result"
	TypeRoundEnd          = "round_end"
	TypeNextTask          = "next_task"
	TypeMatchEnd          = "match_end"
	TypeMatchCanceled     = "match_canceled"
	TypeRoundClosed       = "round_closed"
	TypeWrongTask         = "wrong_task"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"
)

// ClientMessage is any inbound frame. Fields unused by a type are ignored.
type ClientMessage struct {
	Type    string     `json:"type"`
	MatchID string     `json:"match_id,omitempty"`
	Answer  FlexString `json:"answer,omitempty"`
	TaskID  *int64     `json:"task_id,omitempty"`
}

// FlexString accepts a JSON string or number and keeps its text form.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("answer must be a string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// TaskPayload is the client view of a question. It never carries the answer.
type TaskPayload struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Statement  string   `json:"statement"`
	Subject    string   `json:"subject"`
	Topic      string   `json:"topic"`
	Difficulty int      `json:"difficulty"`
	AnswerType string   `json:"answer_type"`
	Hints      []string `json:"hints"`
}

// Server Messages (outgoing)

type ConnectedEvent struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

type QueueJoinedEvent struct {
	Type     string `json:"type"`
	Joined   bool   `json:"joined"`
	Position int    `json:"position"`
}

type QueueLeftEvent struct {
	Type    string `json:"type"`
	Removed bool   `json:"removed"`
}

type MatchFoundEvent struct {
	Type           string      `json:"type"`
	MatchID        string      `json:"match_id"`
	Round          int         `json:"round"`
	TargetScore    int         `json:"target_score"`
	Task           TaskPayload `json:"task"`
	OpponentUserID string      `json:"opponent_user_id"`
}

type AnswerResultEvent struct {
	Type         string `json:"type"`
	MatchID      string `json:"match_id"`
	IsCorrect    bool   `json:"is_correct"`
	Scored       bool   `json:"scored"`
	Player1Score int    `json:"player1_score"`
	Player2Score int    `json:"player2_score"`
}

type RoundEndEvent struct {
	Type         string  `json:"type"`
	MatchID      string  `json:"match_id"`
	WinnerUserID *string `json:"winner_user_id"`
	Player1Score int     `json:"player1_score"`
	Player2Score int     `json:"player2_score"`
}

type NextTaskEvent struct {
	Type    string      `json:"type"`
	MatchID string      `json:"match_id"`
	Round   int         `json:"round"`
	Task    TaskPayload `json:"task"`
}

type MatchEndEvent struct {
	Type         string `json:"type"`
	MatchID      string `json:"match_id"`
	Result       string `json:"result"`
	RatingBefore int    `json:"rating_before"`
	RatingAfter  int    `json:"rating_after"`
}

type MatchCanceledEvent struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id"`
	Reason  string `json:"reason"`
}

// MatchRefEvent is used by round_closed and wrong_task.
type MatchRefEvent struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id"`
}

type LeaderboardUpdateEvent struct {
	Type string             `json:"type"`
	Top  []LeaderboardEntry `json:"top"`
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Rating int    `json:"rating"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
	Games  int    `json:"games"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewError builds an error event carrying a wire error code.
func NewError(code string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: code}
}

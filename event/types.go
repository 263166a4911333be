package event

import (
	"time"

	json "github.com/bytedance/sonic"
)

const DuelTopic = "duel_topic"

type DuelEventType string

const (
	DuelEventJoined    DuelEventType = "joined"
	DuelEventCompleted DuelEventType = "completed"
)

// DuelMessage 对战生命周期事件, key 为对战 id 保证同一对战的事件有序
type DuelMessage struct {
	Type     DuelEventType `json:"type"`
	DuelID   string        `json:"duel_id"`
	User1ID  uint64        `json:"user1_id"`
	User2ID  uint64        `json:"user2_id"`
	WinnerID *uint64       `json:"winner_id,omitempty"`
	Score1   int           `json:"score1"`
	Score2   int           `json:"score2"`
	At       time.Time     `json:"at"`
}

func (m *DuelMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *DuelMessage) Unmarshal(data []byte) error {
	return json.Unmarshal(data, m)
}

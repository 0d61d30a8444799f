package handlers

import (
	"github.com/samber/lo"

	"github.com/edgard/batepapo/internal/database"
)

type participantResponse struct {
	Name     string `json:"name"`
	LastSeen int64  `json:"lastSeen"`
}

type messageResponse struct {
	ID   int64  `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

func toParticipant(p database.Participant) participantResponse {
	return participantResponse{Name: p.Name, LastSeen: p.LastSeen}
}

func toMessage(m database.Message) messageResponse {
	return messageResponse{
		ID:   m.ID,
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: string(m.Type),
		Time: m.Time,
	}
}

func toParticipants(participants []database.Participant) []participantResponse {
	return lo.Map(participants, func(p database.Participant, _ int) participantResponse {
		return toParticipant(p)
	})
}

func toMessages(messages []database.Message) []messageResponse {
	return lo.Map(messages, func(m database.Message, _ int) messageResponse {
		return toMessage(m)
	})
}

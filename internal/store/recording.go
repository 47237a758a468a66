// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import "time"

// Recording is one row of the recordings table.
type Recording struct {
	ID           int64     `json:"-"`
	FileName     string    `json:"fileName"`
	ExtensionNum string    `json:"extensionNum"`
	ObjectID     string    `json:"objectId"`
	ChannelNum   string    `json:"channelNum"`
	AniAliDigits string    `json:"aniAliDigits"`
	Name         string    `json:"name"`
	DateAdded    time.Time `json:"dateAdded"`
	Opco         string    `json:"opco"`
	AgentID      string    `json:"agentID"`
	Duration     string    `json:"duration"`
	Direction    string    `json:"direction"`
}

const selectColumns = `id, file_name, extension_num, object_id, channel_num, ani_ali_digits,
	name, date_added, opco, agent_id, duration, direction`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecording(s scanner) (Recording, error) {
	var r Recording
	err := s.Scan(&r.ID, &r.FileName, &r.ExtensionNum, &r.ObjectID, &r.ChannelNum, &r.AniAliDigits,
		&r.Name, &r.DateAdded, &r.Opco, &r.AgentID, &r.Duration, &r.Direction)
	return r, err
}

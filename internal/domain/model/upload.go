package model

import "time"

// Upload is one result file waiting to be ingested.
type Upload struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"` // original file name, carries the event date
	Digest     string    `json:"digest"`
	Run        int       `json:"run,omitempty"` // 1 or 2 for a qualifier run, 0 for a regular race
	Location   string    `json:"location,omitempty"`
	Body       []byte    `json:"-"`
	ReceivedAt time.Time `json:"received_at"`
}

package models

import "time"

// FileInfo represents metadata about a converted PDF held in the result store.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourceName string    `json:"sourceName,omitempty"`
	Endpoint   string    `json:"endpoint,omitempty"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"createdAt"`
	Status     string    `json:"status"`
}

// Clone returns a copy of the metadata.
func (f *FileInfo) Clone() *FileInfo {
	c := *f
	return &c
}

package models

import (
	"strings"
	"time"
)

type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// KindFromContentType maps a declared MIME type to a media kind. The second
// return value is false when the type is neither an image nor a video.
func KindFromContentType(contentType string) (MediaKind, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage, true
	case strings.HasPrefix(ct, "video/"):
		return KindVideo, true
	}
	return "", false
}

func (k MediaKind) Valid() bool {
	return k == KindImage || k == KindVideo
}

// MediaItem is one uploaded file submitted for processing.
type MediaItem struct {
	ID             string    `json:"id" binding:"required"`
	OriginalName   string    `json:"originalName" binding:"required"`
	Kind           MediaKind `json:"type" binding:"required,oneof=image video"`
	SourceLocation string    `json:"sourceLocation" binding:"required"`
	ContentType    string    `json:"contentType,omitempty"`
}

type ResultStatus string

const (
	StatusDone    ResultStatus = "done"
	StatusError   ResultStatus = "error"
	StatusSkipped ResultStatus = "skipped"
)

// ProcessResult is the terminal outcome for one MediaItem.
type ProcessResult struct {
	ID             string       `json:"id"`
	OriginalName   string       `json:"originalName"`
	FinalName      string       `json:"finalName"`
	Kind           MediaKind    `json:"type"`
	Sequence       int          `json:"sequence"`
	Status         ResultStatus `json:"status"`
	Error          string       `json:"error,omitempty"`
	SourceLocation string       `json:"sourceLocation"`
	OutputLocation string       `json:"outputLocation,omitempty"`
	PreviewURL     string       `json:"url,omitempty"`
}

// Item rebuilds the MediaItem a result was produced from.
func (r ProcessResult) Item() MediaItem {
	return MediaItem{
		ID:             r.ID,
		OriginalName:   r.OriginalName,
		Kind:           r.Kind,
		SourceLocation: r.SourceLocation,
	}
}

type StatusCounts struct {
	Total   int `json:"total"`
	Done    int `json:"done"`
	Error   int `json:"error"`
	Skipped int `json:"skipped"`
}

// BatchLedger is the ordered list of results for one SKU submission.
type BatchLedger struct {
	SKU       string          `json:"sku"`
	Results   []ProcessResult `json:"results"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Failed returns the results with status error, in ledger order.
func (l *BatchLedger) Failed() []ProcessResult {
	var failed []ProcessResult
	for _, r := range l.Results {
		if r.Status == StatusError {
			failed = append(failed, r)
		}
	}
	return failed
}

func (l *BatchLedger) Counts() StatusCounts {
	counts := StatusCounts{Total: len(l.Results)}
	for _, r := range l.Results {
		switch r.Status {
		case StatusDone:
			counts.Done++
		case StatusError:
			counts.Error++
		case StatusSkipped:
			counts.Skipped++
		}
	}
	return counts
}

func (l *BatchLedger) MaxSequence() int {
	max := 0
	for _, r := range l.Results {
		if r.Sequence > max {
			max = r.Sequence
		}
	}
	return max
}

// Succeeded reports whether no result ended in error.
func (l *BatchLedger) Succeeded() bool {
	return l.Counts().Error == 0
}

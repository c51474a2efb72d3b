package models

import "time"

type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
	Ledger  string `json:"ledger,omitempty"`
}

type UploadResponse struct {
	SKU      string         `json:"sku"`
	Files    []MediaItem    `json:"files"`
	Rejected []RejectedFile `json:"rejected,omitempty"`
}

type RejectedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type ProcessResponse struct {
	Success bool            `json:"success"`
	SKU     string          `json:"sku"`
	Results []ProcessResult `json:"results"`
	Counts  StatusCounts    `json:"counts"`
	Error   string          `json:"error,omitempty"`
}

func NewProcessResponse(ledger *BatchLedger) ProcessResponse {
	return ProcessResponse{
		Success: ledger.Succeeded(),
		SKU:     ledger.SKU,
		Results: ledger.Results,
		Counts:  ledger.Counts(),
	}
}

type TelegramResponse struct {
	Success  bool   `json:"success"`
	SKU      string `json:"sku"`
	FileName string `json:"fileName"`
	Files    int    `json:"files"`
}

type CleanupResponse struct {
	Success bool   `json:"success"`
	SKU     string `json:"sku"`
}

type StatusResponse struct {
	SKU       string          `json:"sku"`
	Running   bool            `json:"running"`
	LastEvent *ProgressEvent  `json:"lastEvent,omitempty"`
	Counts    *StatusCounts   `json:"counts,omitempty"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
	Failed    []ProcessResult `json:"failed,omitempty"`
}

type FilesResponse struct {
	SKU   string     `json:"sku"`
	Files []FileInfo `json:"files"`
}

type FileInfo struct {
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
	URL      string    `json:"url"`
}

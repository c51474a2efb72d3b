package models

type ProcessRequest struct {
	SKU   string      `json:"sku" binding:"required,sku"`
	Files []MediaItem `json:"files" binding:"required,min=1,dive"`
}

type DownloadRequest struct {
	SKU              string `json:"sku" binding:"required,sku"`
	IncludeOriginals bool   `json:"includeOriginals"`
	// Cleanup removes the SKU's files and ledger once the archive is built.
	Cleanup bool `json:"cleanup"`
}

type TelegramRequest struct {
	SKU string `json:"sku" binding:"required,sku"`
	// ChatID overrides TELEGRAM_CHAT_ID when set.
	ChatID  string `json:"chatId,omitempty"`
	Cleanup bool   `json:"cleanup"`
}

type CleanupRequest struct {
	SKU string `json:"sku" binding:"required,sku"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

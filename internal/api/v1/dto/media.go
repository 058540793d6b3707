package dto

import "time"

// MediaUploadRequestDTO initiates a direct-to-storage upload.
type MediaUploadRequestDTO struct {
	Filename  string `json:"filename" validate:"required"`
	SizeBytes int64  `json:"size_bytes" validate:"required,gt=0"`
}

// MediaUploadResponseDTO returns the asset record and a presigned PUT URL.
type MediaUploadResponseDTO struct {
	Asset     MediaAssetResponseDTO `json:"asset"`
	UploadURL string                `json:"upload_url"`
}

// MediaAssetResponseDTO is returned in API responses.
type MediaAssetResponseDTO struct {
	AssetID   string    `json:"asset_id"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// MediaDownloadResponseDTO carries a presigned GET URL.
type MediaDownloadResponseDTO struct {
	DownloadURL string `json:"download_url"`
}

package handlers

import (
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/AnshRaj112/emodiary-backend/internal/config"
	"github.com/AnshRaj112/emodiary-backend/internal/services"
)

var (
	mediaUploader services.MediaUploader
	mediaFolder   = "emodiary"
)

// InitCloudinaryService connects the media store used by /api/upload and
// returns it so diary creation can share it.
func InitCloudinaryService(cfg *config.Config) (*services.CloudinaryService, error) {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return nil, err
	}
	SetMediaUploader(service, cfg.MediaFolder)
	return service, nil
}

// SetMediaUploader sets the store behind /api/upload
func SetMediaUploader(uploader services.MediaUploader, folder string) {
	mediaUploader = uploader
	if folder != "" {
		mediaFolder = folder
	}
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// UploadFile stores one media file for the caller under
// <folder>/uploads/<owner>[/<subfolder>] and returns its URL.
func UploadFile(w http.ResponseWriter, r *http.Request) {
	if mediaUploader == nil {
		writeError(w, http.StatusServiceUnavailable, "Media uploads are not available")
		return
	}
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided: "+err.Error())
		return
	}
	defer file.Close()

	folder := path.Join(mediaFolder, "uploads", ownerID)
	if sub := strings.Trim(path.Clean("/"+r.URL.Query().Get("folder")), "/"); sub != "" {
		folder = path.Join(folder, sub)
	}

	url, err := mediaUploader.Upload(r.Context(), file, folder, "")
	if err != nil {
		log.Printf("[Upload] failed for %s: %v", ownerID, err)
		writeError(w, http.StatusBadGateway, "Failed to upload file")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "File uploaded successfully",
		URL:     url,
	})
}

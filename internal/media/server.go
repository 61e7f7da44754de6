package media

import (
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"chathub/internal/common"
	"chathub/internal/dbmongo"
)

// Maximum accepted upload, including multipart overhead.
const maxUploadBytes = 10 << 20

// HTTPServer serves image attachment upload and download.
type HTTPServer struct {
	storage *dbmongo.ImageStorage
}

func NewHTTPServer(mongoClient *dbmongo.MongoClient) *HTTPServer {
	return &HTTPServer{
		storage: dbmongo.NewImageStorage(mongoClient),
	}
}

func (s *HTTPServer) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/media", s.uploadFile).Methods(http.MethodPost)
	router.HandleFunc("/media/{fileId}", s.serveFile).Methods(http.MethodGet)
	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	return router
}

func (s *HTTPServer) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = contentTypeFor(header.Filename)
	}
	uploaderID := r.FormValue("uploader_id")

	image, err := s.storage.Upload(r.Context(), header.Filename, mimeType, uploaderID, file)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, image)
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["fileId"]

	stream, image, err := s.storage.Download(r.Context(), fileID)
	if err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	defer stream.Close()

	mimeType := image.MimeType
	if mimeType == "" {
		mimeType = contentTypeFor(image.Filename)
	}
	w.Header().Set("Content-Type", mimeType)

	if _, err := io.Copy(w, stream); err != nil {
		log.Printf("error streaming file %s: %v", fileID, err)
	}
}

func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("media server is healthy"))
}

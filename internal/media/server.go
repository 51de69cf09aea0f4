package media

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/dbmongo"
)

// HTTPServer streams stored attachments. Message views point at GET /media/{fileId}.
type HTTPServer struct {
	storage dbmongo.AttachmentStore
	router  *mux.Router
	log     *zap.Logger
}

func NewHTTPServer(storage dbmongo.AttachmentStore, log *zap.Logger) *HTTPServer {
	s := &HTTPServer{storage: storage, log: log}

	router := mux.NewRouter()
	s.RegisterRoutes(router)
	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router = router
	return s
}

// RegisterRoutes mounts the download route on r so the API server can serve media too.
func (s *HTTPServer) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/media/{fileId}", s.serveFile).Methods(http.MethodGet, http.MethodHead)
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		common.WriteJSON(w, http.StatusServiceUnavailable, common.ErrorResponse{Error: common.ErrAttachmentsOff.Error()})
		return
	}
	fileID := mux.Vars(r)["fileId"]

	stream, file, err := s.storage.Download(r.Context(), fileID)
	if err != nil {
		common.WriteError(w, s.log.With(zap.String("file_id", fileID)), err)
		return
	}
	defer stream.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = common.ContentTypeForName(file.Filename)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if file.Filename != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": file.Filename}))
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	if _, err := io.Copy(w, stream); err != nil {
		s.log.Warn("attachment stream interrupted", zap.String("file_id", fileID), zap.Error(err))
	}
}

func (s *HTTPServer) health(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if s.storage == nil {
		status = "disabled"
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}

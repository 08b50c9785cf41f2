package http

import (
	"bytes"
	"errors"
	"net/http"
	"path"

	"vidcatalog/shared/handler"
	"vidcatalog/shared/observability"
	"vidcatalog/workers/downloader/internal/domain"
)

// Response bodies. Each route answers 200 with a status field, except for
// catalog read failures and health.
type (
	submitResponse struct {
		Status  string `json:"status"`
		VideoID string `json:"video_id,omitempty"`
		Message string `json:"message,omitempty"`
	}

	statusResponse struct {
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
	}

	videosResponse struct {
		Videos []videoView `json:"videos"`
	}

	healthResponse struct {
		Status string                  `json:"status"`
		Error  string                  `json:"error,omitempty"`
		Jobs   map[domain.JobState]int `json:"jobs,omitempty"`
	}
)

// videoView is a catalog record with display formatting applied
type videoView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	Filesize    string `json:"filesize"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
	Uploader    string `json:"uploader"`
	Filepath    string `json:"filepath"`
	MediaURL    string `json:"media_url"`
}

func newVideoViews(records []domain.VideoRecord) []videoView {
	views := make([]videoView, 0, len(records))
	for _, rec := range records {
		views = append(views, videoView{
			ID:          rec.ID,
			Title:       rec.Title,
			Duration:    domain.FormatDuration(rec.Duration),
			Filesize:    domain.FormatFileSize(rec.Filesize),
			Thumbnail:   rec.Thumbnail,
			Description: rec.Description,
			Uploader:    rec.Uploader,
			Filepath:    rec.Filepath,
			MediaURL:    "/downloads/" + path.Base(rec.Filepath),
		})
	}
	return views
}

func (a *Adapter) handleIndex(w http.ResponseWriter, r *http.Request) {
	records, err := a.svc.ListCatalog(r.Context())
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	// Render to a buffer so a template failure can still produce a 500
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, indexPage{Videos: newVideoViews(records)}); err != nil {
		a.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (a *Adapter) handleListVideos(w http.ResponseWriter, r *http.Request) {
	records, err := a.svc.ListCatalog(r.Context())
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	a.writeJSON(w, r, http.StatusOK, videosResponse{Videos: newVideoViews(records)})
}

func (a *Adapter) handleDownload(w http.ResponseWriter, r *http.Request) {
	result, err := a.svc.Submit(r.Context(), r.FormValue("url"))
	if err != nil {
		message := domain.Describe(err)
		if errors.Is(err, domain.ErrInvalidURL) {
			message = domain.ErrInvalidURL.Message
		}
		a.writeJSON(w, r, http.StatusOK, submitResponse{Status: "error", Message: message})
		return
	}

	a.writeJSON(w, r, http.StatusOK, submitResponse{Status: "success", VideoID: result.JobID})
}

func (a *Adapter) handleProgress(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, r, http.StatusOK, a.svc.QueryStatus(r.PathValue("id")))
}

func (a *Adapter) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteRecord(r.Context(), r.PathValue("id")); err != nil {
		a.writeJSON(w, r, http.StatusOK, statusResponse{Status: "error", Message: domain.Describe(err)})
		return
	}

	a.writeJSON(w, r, http.StatusOK, statusResponse{Status: "success"})
}

func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Health(r.Context()); err != nil {
		a.writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{
			Status: "unhealthy",
			Error:  err.Error(),
		})
		return
	}

	a.writeJSON(w, r, http.StatusOK, healthResponse{
		Status: "healthy",
		Jobs:   a.svc.Jobs(),
	})
}

func (a *Adapter) serverError(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.Error(r.Context(), "Request failed", err, observability.Fields{
		"path": r.URL.Path,
	})
	_ = handler.WriteError(w, http.StatusInternalServerError, "server error: "+domain.Describe(err))
}

func (a *Adapter) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	if err := handler.WriteJSON(w, status, v); err != nil {
		a.logger.Warn(r.Context(), "Failed to write response", observability.Fields{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
	}
}
